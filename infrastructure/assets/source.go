package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"my-campaign/domain/model"
	"my-campaign/domain/repository"
	"my-campaign/infrastructure/logger"
)

// Source resolves the video payload for a variant. When a render client is
// present it is tried first; any render failure is transparently replaced by
// the fixed fallback stock asset. A nil render client (capability key absent)
// takes the same fallback path without ever touching the render service.
type Source struct {
	renderClient repository.IRenderJobClient // nil = rendering disabled
	fallbackURL  string
	maxWait      time.Duration
	httpClient   *http.Client
}

func NewSource(renderClient repository.IRenderJobClient, fallbackURL string, maxWait time.Duration) repository.IAssetSource {
	return &Source{
		renderClient: renderClient,
		fallbackURL:  fallbackURL,
		maxWait:      maxWait,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Resolve returns a usable payload for the variant. It errors only when the
// fallback asset itself cannot be fetched, which is fatal for that variant.
func (s *Source) Resolve(ctx context.Context, spec model.RenderSpec) (*model.AssetPayload, error) {
	if s.renderClient != nil {
		payload, err := s.renderClient.SubmitAndAwait(ctx, spec, s.maxWait)
		if err == nil {
			return payload, nil
		}
		logger.GetLogger().WithField("error", err).Warn("Render failed, substituting fallback asset")
	}
	return s.fetchFallback(ctx)
}

func (s *Source) fetchFallback(ctx context.Context) (*model.AssetPayload, error) {
	if s.fallbackURL == "" {
		return nil, fmt.Errorf("no fallback asset configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.fallbackURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching fallback asset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fallback asset fetch failed: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("fallback asset is empty")
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = "video/mp4"
	}
	return &model.AssetPayload{Data: data, MimeType: mime, Rendered: false}, nil
}
