package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/agencyops-backend/pkg/migrate"
	"github.com/stretchr/testify/require"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestReconcilerIdempotencyKeysAreUnique(t *testing.T) {
	content := readMigrations(t)

	checks := []string{
		"CONSTRAINT services_slug_key UNIQUE (slug)",
		"CONSTRAINT orders_stripe_checkout_session_id_key UNIQUE (stripe_checkout_session_id)",
		"CONSTRAINT subscriptions_stripe_subscription_id_key UNIQUE (stripe_subscription_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS clients_user_id_key",
		"CREATE UNIQUE INDEX IF NOT EXISTS clients_pending_business_email_key",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := migrate.CreateSQLMigration(dir, "Add Invoices Table")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_invoices_table.sql"))
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}

func readMigrations(t *testing.T) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	var b strings.Builder
	for _, m := range matches {
		data, err := os.ReadFile(m)
		require.NoError(t, err)
		b.Write(data)
	}
	return b.String()
}
