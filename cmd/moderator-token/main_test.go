package main

import "testing"

func TestRunValidatesInput(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "")
	if err := run([]string{"--subject", "alice"}); err == nil {
		t.Fatalf("без секрета ожидали ошибку")
	}
	t.Setenv("ADMIN_JWT_SECRET", "secret")
	if err := run(nil); err == nil {
		t.Fatalf("без subject ожидали ошибку")
	}
	if err := run([]string{"-s", "alice", "--ttl", "1h"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
}
