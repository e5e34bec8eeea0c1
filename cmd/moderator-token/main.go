// moderator-token выпускает токен для административных маршрутов API.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"tiktroq/internal/infra/config"
	httpinfra "tiktroq/internal/infra/http"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		subject string
		ttl     time.Duration
	)
	flagSet := pflag.NewFlagSet("moderator-token", pflag.ContinueOnError)
	flagSet.StringVarP(&subject, "subject", "s", "", "идентификатор модератора")
	flagSet.DurationVar(&ttl, "ttl", 12*time.Hour, "срок действия токена")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if subject == "" {
		return errors.New("--subject обязателен")
	}

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	if cfg.AdminSecret == "" {
		return errors.New("ADMIN_JWT_SECRET не задан")
	}
	token, err := httpinfra.IssueModeratorToken(cfg.AdminSecret, subject, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
