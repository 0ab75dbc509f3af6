package repository

import (
	"context"
	"time"

	"my-campaign/domain/model"
)

// IRenderJobClient submits a render job to the avatar video service and waits
// for it to finish. Failures and timeouts come back as a recoverable
// render failure error; callers fall back instead of aborting.
type IRenderJobClient interface {
	SubmitAndAwait(ctx context.Context, spec model.RenderSpec, maxWait time.Duration) (*model.AssetPayload, error)
}

// IAssetSource resolves the video bytes for a variant: rendered when possible,
// the fixed fallback stock asset otherwise. It only errors when the fallback
// itself is unreachable.
type IAssetSource interface {
	Resolve(ctx context.Context, spec model.RenderSpec) (*model.AssetPayload, error)
}

// IPlatformUploader performs the two-phase metadata+binary upload. It never
// returns an error: every failure is folded into the UploadResult.
type IPlatformUploader interface {
	Upload(ctx context.Context, meta model.UploadMetadata, payload *model.AssetPayload) *model.UploadResult
}
