package main

import (
	"net/http"
	"testing"
	"time"

	appconfig "github.com/wolfman30/tradeezy-assistant/internal/config"
)

func TestNewServerCoversToolLoop(t *testing.T) {
	cfg := &appconfig.Config{Port: "9090", MaxToolRounds: 3, OutboundTimeout: 10 * time.Second}
	srv := newServer(cfg, http.NotFoundHandler())

	if srv.Addr != ":9090" {
		t.Fatalf("unexpected addr %q", srv.Addr)
	}
	if want := 75 * time.Second; srv.WriteTimeout != want {
		t.Fatalf("expected write timeout %s, got %s", want, srv.WriteTimeout)
	}
}

func TestNewServerClampsRounds(t *testing.T) {
	cfg := &appconfig.Config{Port: "8080", OutboundTimeout: time.Second}
	if got := newServer(cfg, http.NotFoundHandler()).WriteTimeout; got != 8*time.Second {
		t.Fatalf("unexpected write timeout %s", got)
	}
}
