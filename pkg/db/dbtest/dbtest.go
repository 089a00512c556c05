// Package dbtest opens throwaway sqlite databases that mirror the Postgres
// schema closely enough for repository and reconciler tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/agencyops-backend/pkg/db"
)

// schema keeps the unique keys of the goose migrations; enum columns become TEXT.
var schema = []string{
	`CREATE TABLE services (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		setup_price_cents INTEGER,
		monthly_price_cents INTEGER,
		stripe_setup_price_id TEXT,
		stripe_monthly_price_id TEXT,
		active BOOLEAN NOT NULL DEFAULT 1,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT services_slug_key UNIQUE (slug)
	)`,
	`CREATE UNIQUE INDEX idx_services_stripe_monthly_price_id ON services (stripe_monthly_price_id) WHERE stripe_monthly_price_id IS NOT NULL`,
	`CREATE TABLE profiles (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		full_name TEXT,
		role TEXT NOT NULL DEFAULT 'client',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE clients (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		stripe_customer_id TEXT,
		business_email TEXT NOT NULL,
		business_name TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX clients_user_id_key ON clients (user_id) WHERE user_id IS NOT NULL`,
	`CREATE UNIQUE INDEX clients_pending_business_email_key ON clients (business_email) WHERE user_id IS NULL`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		service_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		amount_cents INTEGER NOT NULL,
		stripe_checkout_session_id TEXT NOT NULL,
		stripe_payment_intent_id TEXT,
		metadata TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT orders_stripe_checkout_session_id_key UNIQUE (stripe_checkout_session_id)
	)`,
	`CREATE TABLE projects (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		service_id TEXT NOT NULL,
		order_id TEXT,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'onboarding',
		start_date DATE,
		estimated_completion_date DATE,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE project_milestones (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		title TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		completed_at DATETIME,
		created_at DATETIME
	)`,
	`CREATE TABLE subscriptions (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		service_id TEXT NOT NULL,
		stripe_subscription_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		current_period_start DATETIME,
		current_period_end DATETIME,
		cancelled_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT subscriptions_stripe_subscription_id_key UNIQUE (stripe_subscription_id)
	)`,
	`CREATE TABLE activity_log (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at DATETIME
	)`,
}

// Open returns a db.Client backed by a private in-memory sqlite database.
func Open(t testing.TB) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// A single connection keeps the shared in-memory database alive and
	// serializes writers the way sqlite expects.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db.FromGorm(conn)
}
