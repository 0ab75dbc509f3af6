package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureCampaignSchema creates the campaign ledger tables if they are missing.
// Safe to call at startup; all statements are idempotent.
func EnsureCampaignSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ddls := []string{
		`CREATE TABLE IF NOT EXISTS campaigns (
			id BIGSERIAL PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS publish_records (
			id BIGSERIAL PRIMARY KEY,
			campaign_id BIGINT NOT NULL REFERENCES campaigns(id),
			variant_language TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT,
			platform_asset_id TEXT,
			public_url TEXT,
			status TEXT NOT NULL,
			error_message TEXT,
			published_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publish_records_campaign ON publish_records (campaign_id, id)`,
	}
	for _, ddl := range ddls {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensuring campaign schema failed: %w", err)
		}
	}
	return nil
}
