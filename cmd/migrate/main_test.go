package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"strings"
	"testing"

	"github.com/angelmondragon/agencyops-backend/pkg/logger"
)

func TestParseFlagsRejectsIncompleteCommands(t *testing.T) {
	cases := map[string][]string{
		"create without name":    {"-cmd", "create"},
		"version without target": {"-cmd", "version"},
		"unknown command":        {"-cmd", "redo"},
	}
	for name, args := range cases {
		if _, err := parseFlags(args, &bytes.Buffer{}); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	opts, err := parseFlags(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if opts.cmd != "up" {
		t.Fatalf("expected default cmd up, got %q", opts.cmd)
	}
}

func TestRunValidateOffline(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), logger.Nop(), []string{"-cmd", "validate", "-dir", "../../pkg/migrate/migrations"}, &out); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if strings.TrimSpace(out.String()) != "migration validation passed" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunCreateOffline(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	if err := run(context.Background(), logger.Nop(), []string{"-cmd", "create", "-dir", dir, "-name", "add_invoice_reference"}, &out); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out.String(), "_add_invoice_reference.sql") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestHelpDescribesService(t *testing.T) {
	var out bytes.Buffer
	_, err := parseFlags([]string{"-h"}, &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
	if !strings.Contains(out.String(), "agencyops Postgres schema") {
		t.Fatalf("usage missing service description: %q", out.String())
	}
}
