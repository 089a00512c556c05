package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/agencyops-backend/pkg/logger"
)

func TestRunDryRunValidatesShippedCatalog(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), logger.Nop(), []string{"-file", "../../catalog.yaml", "-dry-run"}, &out)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if got := out.String(); got != "catalog valid: 4 services\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRunReturnsErrorsInsteadOfExiting(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("services:\n  - slug: Not A Slug\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cases := map[string][]string{
		"missing file":    {"-file", filepath.Join(dir, "missing.yaml"), "-dry-run"},
		"invalid catalog": {"-file", bad, "-dry-run"},
	}
	for name, args := range cases {
		if err := run(context.Background(), logger.Nop(), args, &bytes.Buffer{}); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRunHelpPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), logger.Nop(), []string{"-h"}, &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
	if !strings.Contains(out.String(), "service catalog") {
		t.Fatalf("usage missing description: %q", out.String())
	}
}
