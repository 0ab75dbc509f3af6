package persistence

import (
	"context"
	"database/sql"
	"time"

	"my-campaign/domain/model"
	"my-campaign/domain/repository"
	"my-campaign/infrastructure/logger"
	"my-campaign/infrastructure/utils"
)

// CampaignRepository implements the campaign ledger on PostgreSQL.
type CampaignRepository struct {
	db    *sql.DB
	cache repository.ICampaignCache // optional, best-effort
}

func NewCampaignRepository(db *sql.DB, cache repository.ICampaignCache) *CampaignRepository {
	return &CampaignRepository{db: db, cache: cache}
}

// FindOrCreateCampaign resolves the stable slug for name and looks the row up
// before inserting, so repeated or concurrent runs converge on one campaign.
// The unique index on slug plus ON CONFLICT keeps the insert race-free.
func (r *CampaignRepository) FindOrCreateCampaign(ctx context.Context, name string, defaults model.CampaignDefaults) (int64, error) {
	slug := utils.Slugify(name)

	if r.cache != nil {
		if id, err := r.cache.GetCampaignID(ctx, slug); err == nil && id > 0 {
			return id, nil
		}
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM campaigns WHERE slug=$1`, slug).Scan(&id)
	if err == nil {
		r.cacheID(ctx, slug, id)
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	now := time.Now().UTC()
	err = r.db.QueryRowContext(ctx, `INSERT INTO campaigns (slug, name, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$4)
		ON CONFLICT (slug) DO UPDATE SET updated_at=EXCLUDED.updated_at
		RETURNING id`, slug, name, defaults.Description, now).Scan(&id)
	if err != nil {
		return 0, err
	}
	r.cacheID(ctx, slug, id)
	return id, nil
}

func (r *CampaignRepository) cacheID(ctx context.Context, slug string, id int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetCampaignID(ctx, slug, id); err != nil {
		logger.GetLogger().WithField("error", err).Debug("campaign cache write failed")
	}
}

// AppendPublishRecord appends one row per variant attempt. Never updates.
func (r *CampaignRepository) AppendPublishRecord(ctx context.Context, rec *model.PublishRecord) error {
	if rec.PublishedAt.IsZero() {
		rec.PublishedAt = time.Now().UTC()
	}
	q := `INSERT INTO publish_records (campaign_id, variant_language, title, body, platform_asset_id, public_url, status, error_message, published_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`
	return r.db.QueryRowContext(ctx, q,
		rec.CampaignID, rec.VariantLanguage, rec.Title, rec.Body,
		rec.PlatformAssetID, rec.PublicURL, rec.Status, rec.ErrorMessage, rec.PublishedAt,
	).Scan(&rec.ID)
}

func (r *CampaignRepository) ListPublishRecords(ctx context.Context, campaignID int64) ([]*model.PublishRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, campaign_id, variant_language, title, body, platform_asset_id, public_url, status, error_message, published_at
		FROM publish_records WHERE campaign_id=$1 ORDER BY id ASC`, campaignID)
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

var _ repository.ICampaignLedger = (*CampaignRepository)(nil)
