package repository

import (
	"context"

	"my-campaign/domain/model"
)

// ICampaignLedger is the narrow persistence contract the publishing pipeline
// depends on. The orchestrator treats every call as a fallible remote call
// and downgrades append failures to warnings.
type ICampaignLedger interface {
	// FindOrCreateCampaign looks a campaign up by the stable key derived from
	// name before creating it, so repeated runs reuse the same row.
	FindOrCreateCampaign(ctx context.Context, name string, defaults model.CampaignDefaults) (int64, error)

	// AppendPublishRecord appends one record per variant attempt, success or
	// failure. Append-only; never updates prior rows.
	AppendPublishRecord(ctx context.Context, record *model.PublishRecord) error

	// ListPublishRecords returns the records of a campaign in append order.
	ListPublishRecords(ctx context.Context, campaignID int64) ([]*model.PublishRecord, error)
}

// IActivityLog records campaign activity events. Best-effort side channel.
type IActivityLog interface {
	LogActivity(ctx context.Context, event *model.ActivityEvent) error
}
