package main

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4"

	appmigrations "github.com/wolfman30/tradeezy-assistant/migrations"
)

type fakeMigrator struct {
	ups, downs int
	forced     int
	upErr      error
}

func (f *fakeMigrator) Up() error { f.ups++; return f.upErr }
func (f *fakeMigrator) Down() error { f.downs++; return nil }
func (f *fakeMigrator) Force(v int) error { f.forced = v; return nil }
func (f *fakeMigrator) Version() (uint, bool, error) { return 1, false, nil }

func TestRunDefaultsToUp(t *testing.T) {
	m := &fakeMigrator{upErr: migrate.ErrNoChange}
	if err := run(m, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ups != 1 {
		t.Fatalf("expected one up, got %d", m.ups)
	}
}

func TestRunSurfacesUpFailure(t *testing.T) {
	m := &fakeMigrator{upErr: errors.New("syntax error")}
	if err := run(m, []string{"up"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunForce(t *testing.T) {
	m := &fakeMigrator{}
	if err := run(m, []string{"force", "1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.forced != 1 {
		t.Fatalf("expected forced version 1, got %d", m.forced)
	}
	if err := run(m, []string{"force"}); err == nil {
		t.Fatalf("expected error without version")
	}
	if err := run(m, []string{"sideways"}); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(appmigrations.FS, "*.up.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	downs, err := fs.Glob(appmigrations.FS, "*.down.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(ups) == 0 || len(ups) != len(downs) {
		t.Fatalf("expected paired migrations, got %d up and %d down", len(ups), len(downs))
	}
}
