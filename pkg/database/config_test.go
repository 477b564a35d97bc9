package database_test

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/quill/pkg/database"
)

func TestFinalize(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	t.Setenv("TEST_DB_PORT", "6432")
	t.Setenv("TEST_DB_SSL_MODE", "require")
	t.Setenv("TEST_DB_TIMEOUT", "10s")

	env := &database.Env{
		Host:        "TEST_DB_HOST",
		Port:        "TEST_DB_PORT",
		SSLMode:     "TEST_DB_SSL_MODE",
		ConnTimeout: "TEST_DB_TIMEOUT",
	}

	cfg := database.Config{Name: "quill", User: "quill"}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"host", cfg.Host, "db.internal"},
		{"port", cfg.Port, 6432},
		{"ssl_mode", cfg.SSLMode, "require"},
		{"max_open_conns", cfg.MaxOpenConns, 25},
		{"max_idle_conns", cfg.MaxIdleConns, 5},
		{"conn_max_lifetime", cfg.ConnMaxLifetimeDuration(), 15 * time.Minute},
		{"conn_timeout", cfg.ConnTimeoutDuration(), 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     database.Config
		wantErr string
	}{
		{"missing name", database.Config{User: "quill"}, "name required"},
		{"missing user", database.Config{Name: "quill"}, "user required"},
		{"bad ssl mode", database.Config{Name: "quill", User: "quill", SSLMode: "always"}, "invalid ssl_mode"},
		{"idle exceeds open", database.Config{Name: "quill", User: "quill", MaxOpenConns: 4, MaxIdleConns: 8}, "exceeds max_open_conns"},
		{"bad lifetime", database.Config{Name: "quill", User: "quill", ConnMaxLifetime: "soon"}, "invalid conn_max_lifetime"},
		{"bad timeout", database.Config{Name: "quill", User: "quill", ConnTimeout: "soon"}, "invalid conn_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "localhost", Port: 5432, Name: "quill", User: "quill", MaxOpenConns: 25}
	base.Merge(&database.Config{Host: "db.internal", Password: "s3cret"})

	if base.Host != "db.internal" || base.Password != "s3cret" {
		t.Errorf("overlay not applied: %+v", base)
	}
	if base.Port != 5432 || base.User != "quill" || base.MaxOpenConns != 25 {
		t.Errorf("zero overlay fields overwrote base: %+v", base)
	}
}

func TestDsn(t *testing.T) {
	cfg := database.Config{
		Host:        "db.internal",
		Port:        5432,
		Name:        "quill",
		User:        "quill app",
		Password:    "p@ss word/?",
		SSLMode:     "verify-full",
		ConnTimeout: "5s",
	}

	u, err := url.Parse(cfg.Dsn())
	if err != nil {
		t.Fatalf("dsn is not a URL: %v", err)
	}

	if u.Scheme != "postgres" || u.Host != "db.internal:5432" || u.Path != "/quill" {
		t.Errorf("dsn: %s", u)
	}
	if u.User.Username() != "quill app" {
		t.Errorf("user: got %q", u.User.Username())
	}
	if pw, _ := u.User.Password(); pw != "p@ss word/?" {
		t.Errorf("password: got %q", pw)
	}
	if got := u.Query().Get("sslmode"); got != "verify-full" {
		t.Errorf("sslmode: got %q", got)
	}
	if got := u.Query().Get("connect_timeout"); got != "5" {
		t.Errorf("connect_timeout: got %q", got)
	}
}
