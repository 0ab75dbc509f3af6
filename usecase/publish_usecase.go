package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"my-campaign/domain/dto"
	"my-campaign/domain/model"
	"my-campaign/domain/repository"
	"my-campaign/infrastructure/logger"
	"my-campaign/infrastructure/pubsub"
	"my-campaign/infrastructure/servicebus"
)

const (
	maxUploadAttempts = 3
	uploadBackoffBase = 2 * time.Second
)

type IPublishUsecase interface {
	PublishCampaign(ctx context.Context, req *dto.PublishCampaignRequest) (*dto.PublishCampaignResponse, error)
	GetRecords(ctx context.Context, campaignID int64) ([]*model.PublishRecord, error)
}

// Broadcaster receives each finished record for realtime fan-out.
type Broadcaster func(rec *model.PublishRecord, usedFallback bool)

type publishUsecase struct {
	ledger   repository.ICampaignLedger
	assets   repository.IAssetSource
	uploader repository.IPlatformUploader
	enricher *MetadataEnricher

	activity    repository.IActivityLog    // optional
	events      pubsub.ICampaignEvents     // optional
	eventsTopic string
	notifier    servicebus.ICampaignNotifier // optional
	broadcast   Broadcaster                  // optional

	concurrency int
	sleep       func(ctx context.Context, d time.Duration) error
}

type PublishOption func(*publishUsecase)

func WithActivityLog(activity repository.IActivityLog) PublishOption {
	return func(u *publishUsecase) { u.activity = activity }
}

func WithEvents(events pubsub.ICampaignEvents, topic string) PublishOption {
	return func(u *publishUsecase) { u.events = events; u.eventsTopic = topic }
}

func WithNotifier(notifier servicebus.ICampaignNotifier) PublishOption {
	return func(u *publishUsecase) { u.notifier = notifier }
}

func WithBroadcaster(b Broadcaster) PublishOption {
	return func(u *publishUsecase) { u.broadcast = b }
}

// WithConcurrency lets up to n variants render and upload in parallel. Ledger
// appends still happen afterwards in input order, so the record sequence is
// identical to a sequential run.
func WithConcurrency(n int) PublishOption {
	return func(u *publishUsecase) {
		if n > 1 {
			u.concurrency = n
		}
	}
}

func NewPublishUsecase(ledger repository.ICampaignLedger, assets repository.IAssetSource, uploader repository.IPlatformUploader, enricher *MetadataEnricher, opts ...PublishOption) IPublishUsecase {
	u := &publishUsecase{
		ledger:      ledger,
		assets:      assets,
		uploader:    uploader,
		enricher:    enricher,
		concurrency: 1,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// PublishCampaign runs the full pipeline for one campaign: resolve the
// campaign row, process every variant, and append one ledger record per
// variant in input order. A variant failure never stops the run; only missing
// prerequisites (no uploader, unreachable ledger) abort it.
func (u *publishUsecase) PublishCampaign(ctx context.Context, req *dto.PublishCampaignRequest) (*dto.PublishCampaignResponse, error) {
	if req == nil || req.CampaignName == "" {
		return nil, errors.New("campaign name required")
	}
	if len(req.Variants) == 0 {
		return nil, errors.New("at least one variant required")
	}
	if u.uploader == nil {
		return nil, errors.New("platform uploader not configured")
	}

	campaignID, err := u.ledger.FindOrCreateCampaign(ctx, req.CampaignName, model.CampaignDefaults{Description: req.Description})
	if err != nil {
		return nil, fmt.Errorf("resolving campaign: %w", err)
	}

	lg := logger.GetLogger().WithField("campaign_id", campaignID)
	lg.WithField("variants", len(req.Variants)).Info("Publish run started")

	type outcome struct {
		rec          *model.PublishRecord
		usedFallback bool
	}
	outcomes := make([]outcome, len(req.Variants))

	process := func(i int) {
		rec, usedFallback := u.processVariant(ctx, campaignID, req.Variants[i])
		outcomes[i] = outcome{rec: rec, usedFallback: usedFallback}
	}

	if u.concurrency > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(u.concurrency)
		for i := range req.Variants {
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				process(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range req.Variants {
			process(i)
		}
	}

	var warnings []string
	results := make([]dto.VariantResult, 0, len(outcomes))
	for _, o := range outcomes {
		// Ledger failures downgrade to warnings: the upload already
		// happened and its outcome must not be reported differently.
		if err := u.ledger.AppendPublishRecord(ctx, o.rec); err != nil {
			w := fmt.Sprintf("ledger append failed for %s: %v", o.rec.VariantLanguage, err)
			warnings = append(warnings, w)
			lg.WithField("error", err).WithField("language", o.rec.VariantLanguage).Warn("ledger append failed")
		}
		u.afterRecord(ctx, o.rec, o.usedFallback)

		res := dto.VariantResult{
			LanguageTag:  o.rec.VariantLanguage,
			Success:      o.rec.Status == model.PublishStatusSuccess,
			UsedFallback: o.usedFallback,
		}
		if o.rec.PublicURL != nil {
			res.PublicURL = *o.rec.PublicURL
		}
		if o.rec.ErrorMessage != nil {
			res.ErrorMessage = *o.rec.ErrorMessage
		}
		results = append(results, res)
	}

	u.notifyRunFinished(campaignID, req.CampaignName, results)
	lg.Info("Publish run finished")

	return &dto.PublishCampaignResponse{CampaignID: campaignID, Results: results, Warnings: warnings}, nil
}

// processVariant runs one variant through enrich, asset resolution and upload.
// It always returns a record; failures are folded into the record status.
func (u *publishUsecase) processVariant(ctx context.Context, campaignID int64, v model.Variant) (*model.PublishRecord, bool) {
	meta := u.enricher.EnrichMetadata(v)
	rec := &model.PublishRecord{
		CampaignID:      campaignID,
		VariantLanguage: v.LanguageTag,
		Title:           meta.Title,
		Body:            meta.Description,
		PublishedAt:     time.Now().UTC(),
	}

	payload, err := u.assets.Resolve(ctx, u.enricher.BuildRenderSpec(v))
	if err != nil {
		msg := fmt.Sprintf("asset resolution failed: %v", err)
		rec.Status = model.PublishStatusFailed
		rec.ErrorMessage = &msg
		return rec, false
	}
	usedFallback := !payload.Rendered

	result := u.uploadWithRetry(ctx, meta, payload)
	if !result.Success {
		rec.Status = model.PublishStatusFailed
		msg := result.ErrorMessage
		rec.ErrorMessage = &msg
		return rec, usedFallback
	}

	rec.Status = model.PublishStatusSuccess
	rec.PlatformAssetID = &result.PlatformAssetID
	rec.PublicURL = &result.PublicURL
	return rec, usedFallback
}

// uploadWithRetry retries transient upload failures with doubling backoff.
// Permanent failures (quota, validation) return immediately.
func (u *publishUsecase) uploadWithRetry(ctx context.Context, meta model.UploadMetadata, payload *model.AssetPayload) *model.UploadResult {
	backoff := uploadBackoffBase
	var result *model.UploadResult
	for attempt := 1; attempt <= maxUploadAttempts; attempt++ {
		result = u.uploader.Upload(ctx, meta, payload)
		if result.Success || !result.Retryable {
			return result
		}
		if attempt == maxUploadAttempts {
			break
		}
		logger.GetLogger().
			WithField("attempt", attempt).
			WithField("error", result.ErrorMessage).
			Warn("transient upload failure, retrying")
		if err := u.sleep(ctx, backoff); err != nil {
			return result
		}
		backoff *= 2
	}
	return result
}

// afterRecord fans the finished record out to the advisory channels. All of
// them are best-effort.
func (u *publishUsecase) afterRecord(ctx context.Context, rec *model.PublishRecord, usedFallback bool) {
	if u.broadcast != nil {
		u.broadcast(rec, usedFallback)
	}
	if u.activity != nil {
		event := &model.ActivityEvent{
			CampaignID: rec.CampaignID,
			Kind:       "variant_" + rec.Status,
			Language:   rec.VariantLanguage,
			CreatedAt:  time.Now().UTC(),
		}
		if rec.ErrorMessage != nil {
			event.Detail = *rec.ErrorMessage
		}
		if err := u.activity.LogActivity(ctx, event); err != nil {
			logger.GetLogger().WithField("error", err).Warn("activity log write failed")
		}
	}
	if u.events != nil {
		if _, err := u.events.PublishRecordEvent(ctx, u.eventsTopic, rec); err != nil {
			logger.GetLogger().WithField("error", err).Warn("publish record event failed")
		}
	}
}

func (u *publishUsecase) notifyRunFinished(campaignID int64, name string, results []dto.VariantResult) {
	if u.notifier == nil {
		return
	}
	summary := map[string]interface{}{
		"campaign_id":   campaignID,
		"campaign_name": name,
		"results":       results,
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := u.notifier.SendMessage(payload); err != nil {
		logger.GetLogger().WithField("error", err).Warn("run summary notification failed")
	}
}

func (u *publishUsecase) GetRecords(ctx context.Context, campaignID int64) ([]*model.PublishRecord, error) {
	return u.ledger.ListPublishRecords(ctx, campaignID)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
