package persistence

import (
	"context"
	"database/sql"
	"time"

	"my-campaign/domain/model"
	"my-campaign/domain/repository"
	"my-campaign/infrastructure/utils"
)

// CampaignRepositoryMssql is the Azure SQL flavour of the campaign ledger.
// SQL Server has no ON CONFLICT, so creation retries the select once after a
// duplicate-key insert loses the race.
type CampaignRepositoryMssql struct {
	db *sql.DB
}

func NewCampaignRepositoryMssql(db *sql.DB) *CampaignRepositoryMssql {
	return &CampaignRepositoryMssql{db: db}
}

func (r *CampaignRepositoryMssql) FindOrCreateCampaign(ctx context.Context, name string, defaults model.CampaignDefaults) (int64, error) {
	slug := utils.Slugify(name)

	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM campaigns WHERE slug=@p1`, slug).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	now := time.Now().UTC()
	err = r.db.QueryRowContext(ctx, `INSERT INTO campaigns (slug, name, description, created_at, updated_at)
		OUTPUT INSERTED.id VALUES (@p1,@p2,@p3,@p4,@p4)`, slug, name, defaults.Description, now).Scan(&id)
	if err != nil {
		// Concurrent run may have inserted the slug first.
		if selErr := r.db.QueryRowContext(ctx, `SELECT id FROM campaigns WHERE slug=@p1`, slug).Scan(&id); selErr == nil {
			return id, nil
		}
		return 0, err
	}
	return id, nil
}

func (r *CampaignRepositoryMssql) AppendPublishRecord(ctx context.Context, rec *model.PublishRecord) error {
	if rec.PublishedAt.IsZero() {
		rec.PublishedAt = time.Now().UTC()
	}
	q := `INSERT INTO publish_records (campaign_id, variant_language, title, body, platform_asset_id, public_url, status, error_message, published_at)
	      OUTPUT INSERTED.id VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9)`
	return r.db.QueryRowContext(ctx, q,
		rec.CampaignID, rec.VariantLanguage, rec.Title, rec.Body,
		rec.PlatformAssetID, rec.PublicURL, rec.Status, rec.ErrorMessage, rec.PublishedAt,
	).Scan(&rec.ID)
}

func (r *CampaignRepositoryMssql) ListPublishRecords(ctx context.Context, campaignID int64) ([]*model.PublishRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, campaign_id, variant_language, title, body, platform_asset_id, public_url, status, error_message, published_at
		FROM publish_records WHERE campaign_id=@p1 ORDER BY id ASC`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.PublishRecord
	for rows.Next() {
		rec := &model.PublishRecord{}
		var assetID, publicURL, errMsg sql.NullString
		if err := rows.Scan(&rec.ID, &rec.CampaignID, &rec.VariantLanguage, &rec.Title, &rec.Body, &assetID, &publicURL, &rec.Status, &errMsg, &rec.PublishedAt); err != nil {
			return nil, err
		}
		if assetID.Valid {
			rec.PlatformAssetID = &assetID.String
		}
		if publicURL.Valid {
			rec.PublicURL = &publicURL.String
		}
		if errMsg.Valid {
			rec.ErrorMessage = &errMsg.String
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

var _ repository.ICampaignLedger = (*CampaignRepositoryMssql)(nil)
