package repository

import "context"

// ICampaignCache caches campaign slug -> id lookups. All methods are
// best-effort; callers must tolerate errors and fall through to the database.
type ICampaignCache interface {
	GetCampaignID(ctx context.Context, slug string) (int64, error)
	SetCampaignID(ctx context.Context, slug string, id int64) error
}
