package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureCampaignSchemaMSSQL creates the campaign ledger tables in MSSQL if missing.
func EnsureCampaignSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	createIfMissing := func(table, ddl string) error {
		q := fmt.Sprintf(`IF OBJECT_ID('%s', 'U') IS NULL BEGIN %s END`, table, ddl)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure table %s: %w", table, err)
		}
		return nil
	}

	if err := createIfMissing("dbo.campaigns", `CREATE TABLE dbo.[campaigns] (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		slug NVARCHAR(255) NOT NULL UNIQUE,
		name NVARCHAR(255) NOT NULL,
		description NVARCHAR(MAX) NULL,
		created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
		updated_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
	)`); err != nil {
		return err
	}
	if err := createIfMissing("dbo.publish_records", `CREATE TABLE dbo.[publish_records] (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		campaign_id BIGINT NOT NULL,
		variant_language NVARCHAR(32) NOT NULL,
		title NVARCHAR(512) NOT NULL,
		body NVARCHAR(MAX) NULL,
		platform_asset_id NVARCHAR(255) NULL,
		public_url NVARCHAR(1024) NULL,
		status NVARCHAR(32) NOT NULL,
		error_message NVARCHAR(MAX) NULL,
		published_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
	)`); err != nil {
		return err
	}
	return nil
}
