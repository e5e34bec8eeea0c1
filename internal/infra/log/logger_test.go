package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	prod := newLogger("prod", &buf)
	if prod.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("ожидали info в prod, получили %s", prod.GetLevel())
	}
	prod.Debug().Msg("скрыто")
	if buf.Len() != 0 {
		t.Fatalf("debug не должен попадать в вывод prod")
	}
	svc := ForService(prod, "api")
	svc.Info().Msg("старт")
	if !strings.Contains(buf.String(), `"service":"api"`) {
		t.Fatalf("ожидали поле service, получили %s", buf.String())
	}

	dev := newLogger("dev", &buf)
	if dev.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("ожидали debug в dev")
	}
}
