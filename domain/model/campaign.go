package model

import "time"

// Campaign groups the publish records of one marketing campaign. The slug is a
// stable key derived from the name so repeated runs find the same row instead of
// creating duplicates.
type Campaign struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CampaignDefaults seed a campaign row on first creation.
type CampaignDefaults struct {
	Description string `json:"description"`
}

// PublishRecord is the durable outcome of attempting to publish one variant.
// Append-only: failures are recorded too, with StatusFailed and no asset ID.
type PublishRecord struct {
	ID              int64     `json:"id"`
	CampaignID      int64     `json:"campaign_id"`
	VariantLanguage string    `json:"variant_language"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	PlatformAssetID *string   `json:"platform_asset_id,omitempty"`
	PublicURL       *string   `json:"public_url,omitempty"`
	Status          string    `json:"status"` // success | failed
	ErrorMessage    *string   `json:"error_message,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
}

const (
	PublishStatusSuccess = "success"
	PublishStatusFailed  = "failed"
)

// ActivityEvent is an append-only audit entry for campaign activity. The ledger
// treats these as a best-effort side channel.
type ActivityEvent struct {
	CampaignID int64     `json:"campaign_id"  bson:"campaign_id"`
	Kind       string    `json:"kind"         bson:"kind"`
	Language   string    `json:"language"     bson:"language"`
	Detail     string    `json:"detail"       bson:"detail"`
	CreatedAt  time.Time `json:"created_at"   bson:"created_at"`
}
