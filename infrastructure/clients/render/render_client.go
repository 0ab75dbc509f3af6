package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"my-campaign/domain/model"
	"my-campaign/domain/repository"
	"my-campaign/infrastructure/configuration"
	"my-campaign/infrastructure/logger"
)

// Failure reasons. A Failure is a recoverable signal: callers substitute the
// fallback asset instead of aborting the variant.
const (
	ReasonServiceError  = "service-error"
	ReasonTimeout       = "timeout"
	ReasonNotConfigured = "not-configured"
)

// Failure is returned when a render job cannot deliver an asset.
type Failure struct {
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("render failure (%s): %v", f.Reason, f.Err)
	}
	return fmt.Sprintf("render failure (%s)", f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// IsFailure reports whether err is a recoverable render failure.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

// Client talks to the avatar render service: one submission, linear polling on
// a fixed interval, then a download of the finished asset.
type Client struct {
	cfg        *configuration.RenderConfig
	httpClient *http.Client
	pollEvery  time.Duration
}

// NewRenderClient creates a render client. A missing API key is a configuration
// error surfaced here, before any variant is processed.
func NewRenderClient(cfg *configuration.RenderConfig) (repository.IRenderJobClient, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("render API key not configured")
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		pollEvery:  time.Duration(cfg.PollSeconds) * time.Second,
	}, nil
}

// WithPollInterval overrides the poll cadence. Used by tests.
func (c *Client) WithPollInterval(d time.Duration) *Client {
	c.pollEvery = d
	return c
}

// Wire shapes for the render service endpoints. Kept explicit so validation
// happens at the serialization boundary instead of ad hoc maps.
type generateRequest struct {
	VideoInputs []videoInput `json:"video_inputs"`
	Dimension   dimension    `json:"dimension"`
}

type videoInput struct {
	Character characterSettings `json:"character"`
	Voice     voiceSettings     `json:"voice"`
}

type characterSettings struct {
	Type     string `json:"type"`
	AvatarID string `json:"avatar_id"`
}

type voiceSettings struct {
	Type      string `json:"type"`
	VoiceID   string `json:"voice_id,omitempty"`
	InputText string `json:"input_text"`
}

type dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type generateResponse struct {
	Data struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

type statusResponse struct {
	Data struct {
		Status   string `json:"status"`
		VideoURL string `json:"video_url"`
		Error    *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SubmitAndAwait submits the job once and polls until a terminal state or
// maxWait elapses. On completion it downloads and returns the rendered asset.
func (c *Client) SubmitAndAwait(ctx context.Context, spec model.RenderSpec, maxWait time.Duration) (*model.AssetPayload, error) {
	if strings.TrimSpace(spec.Script) == "" {
		return nil, fmt.Errorf("render spec requires non-empty script")
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("render spec requires a target frame dimension")
	}

	job, err := c.submit(ctx, spec)
	if err != nil {
		return nil, &Failure{Reason: ReasonServiceError, Err: err}
	}
	logger.GetLogger().WithField("job_id", job.JobID).Info("Render job submitted")

	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(c.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, &Failure{Reason: ReasonTimeout, Err: ctx.Err()}
		case <-ticker.C:
			if err := c.poll(ctx, job); err != nil {
				return nil, &Failure{Reason: ReasonServiceError, Err: err}
			}
			switch job.Status {
			case model.RenderJobComplete:
				payload, err := c.fetchAsset(ctx, job.AssetURL)
				if err != nil {
					return nil, &Failure{Reason: ReasonServiceError, Err: err}
				}
				return payload, nil
			case model.RenderJobFailed:
				return nil, &Failure{Reason: ReasonServiceError, Err: fmt.Errorf("render service reported job %s failed", job.JobID)}
			}
			if time.Now().After(deadline) {
				return nil, &Failure{Reason: ReasonTimeout, Err: fmt.Errorf("render job %s exceeded %s", job.JobID, maxWait)}
			}
		}
	}
}

func (c *Client) submit(ctx context.Context, spec model.RenderSpec) (*model.RenderJob, error) {
	avatarID := spec.AvatarID
	if avatarID == "" {
		avatarID = c.cfg.AvatarID
	}
	voiceID := spec.VoiceID
	if voiceID == "" {
		voiceID = c.cfg.VoiceID
	}
	reqBody := generateRequest{
		VideoInputs: []videoInput{{
			Character: characterSettings{Type: "avatar", AvatarID: avatarID},
			Voice:     voiceSettings{Type: "text", VoiceID: voiceID, InputText: spec.Script},
		}},
		Dimension: dimension{Width: spec.Width, Height: spec.Height},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v2/video/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding generate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil && out.Error.Message != "" {
			return nil, fmt.Errorf("render submit rejected: %s", out.Error.Message)
		}
		return nil, fmt.Errorf("render submit rejected: %s", resp.Status)
	}
	if out.Data.VideoID == "" {
		return nil, fmt.Errorf("render submit returned no job id")
	}
	return &model.RenderJob{JobID: out.Data.VideoID, Status: model.RenderJobQueued}, nil
}

func (c *Client) poll(ctx context.Context, job *model.RenderJob) error {
	u := fmt.Sprintf("%s/v1/video_status.get?video_id=%s", c.cfg.BaseURL, url.QueryEscape(job.JobID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Api-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decoding status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil && out.Error.Message != "" {
			return fmt.Errorf("render status rejected: %s", out.Error.Message)
		}
		return fmt.Errorf("render status rejected: %s", resp.Status)
	}

	switch out.Data.Status {
	case "waiting", "pending", "queued":
		job.Status = model.RenderJobQueued
	case "processing":
		job.Status = model.RenderJobProcessing
	case "completed":
		job.Status = model.RenderJobComplete
		job.AssetURL = out.Data.VideoURL
	case "failed":
		job.Status = model.RenderJobFailed
	default:
		logger.GetLogger().WithField("status", out.Data.Status).Warn("Unknown render job status, treating as processing")
		job.Status = model.RenderJobProcessing
	}
	return nil
}

// fetchAsset downloads the finished video from the time-limited result URL.
func (c *Client) fetchAsset(ctx context.Context, assetURL string) (*model.AssetPayload, error) {
	if assetURL == "" {
		return nil, fmt.Errorf("render job completed without an asset url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset download failed: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = "video/mp4"
	}
	return &model.AssetPayload{Data: data, MimeType: mime, Rendered: true}, nil
}
