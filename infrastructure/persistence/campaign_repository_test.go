package persistence

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"my-campaign/domain/model"
)

func TestCampaignRepository_FindOrCreateCampaign_Existing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCampaignRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM campaigns WHERE slug=$1`)).
		WithArgs("morning-devotional").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	id, err := repo.FindOrCreateCampaign(context.Background(), "Morning Devotional", model.CampaignDefaults{})

	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_FindOrCreateCampaign_CreatesWhenMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCampaignRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM campaigns WHERE slug=$1`)).
		WithArgs("morning-devotional").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO campaigns").
		WithArgs("morning-devotional", "Morning Devotional", "daily reflections", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(6))

	id, err := repo.FindOrCreateCampaign(context.Background(), "Morning Devotional", model.CampaignDefaults{Description: "daily reflections"})

	require.NoError(t, err)
	assert.Equal(t, int64(6), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_FindOrCreateCampaign_Idempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCampaignRepository(db, nil)

	// Second run with the same name resolves to the row the first run created.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM campaigns WHERE slug=$1`)).
		WithArgs("morning-devotional").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO campaigns").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM campaigns WHERE slug=$1`)).
		WithArgs("morning-devotional").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	first, err := repo.FindOrCreateCampaign(context.Background(), "Morning Devotional", model.CampaignDefaults{})
	require.NoError(t, err)
	second, err := repo.FindOrCreateCampaign(context.Background(), "Morning Devotional", model.CampaignDefaults{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_AppendPublishRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCampaignRepository(db, nil)

	assetID := "abc123"
	publicURL := "https://www.youtube.com/watch?v=abc123"
	rec := &model.PublishRecord{
		CampaignID:      5,
		VariantLanguage: "en",
		Title:           "Morning Light",
		Body:            "description",
		PlatformAssetID: &assetID,
		PublicURL:       &publicURL,
		Status:          model.PublishStatusSuccess,
		PublishedAt:     time.Now().UTC(),
	}

	mock.ExpectQuery("INSERT INTO publish_records").
		WithArgs(rec.CampaignID, rec.VariantLanguage, rec.Title, rec.Body, rec.PlatformAssetID, rec.PublicURL, rec.Status, rec.ErrorMessage, rec.PublishedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	err = repo.AppendPublishRecord(context.Background(), rec)

	require.NoError(t, err)
	assert.Equal(t, int64(11), rec.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_ListPublishRecords_OrderedWithNulls(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCampaignRepository(db, nil)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "campaign_id", "variant_language", "title", "body", "platform_asset_id", "public_url", "status", "error_message", "published_at"}).
		AddRow(1, 5, "en", "Morning Light", "desc", "abc123", "https://www.youtube.com/watch?v=abc123", "success", nil, now).
		AddRow(2, 5, "es", "Luz de Manana", "desc", nil, nil, "failed", "quotaExceeded", now)

	mock.ExpectQuery("SELECT id, campaign_id, variant_language").
		WithArgs(int64(5)).
		WillReturnRows(rows)

	list, err := repo.ListPublishRecords(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "en", list[0].VariantLanguage)
	require.NotNil(t, list[0].PlatformAssetID)
	assert.Equal(t, "abc123", *list[0].PlatformAssetID)
	assert.Nil(t, list[0].ErrorMessage)
	assert.Equal(t, "es", list[1].VariantLanguage)
	assert.Nil(t, list[1].PlatformAssetID)
	require.NotNil(t, list[1].ErrorMessage)
	assert.Equal(t, "quotaExceeded", *list[1].ErrorMessage)
	require.NoError(t, mock.ExpectationsWereMet())
}
