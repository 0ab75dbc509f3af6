package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"my-campaign/domain/model"
	"my-campaign/domain/repository"
	"my-campaign/infrastructure/configuration"
	"my-campaign/infrastructure/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	youtubeapi "google.golang.org/api/youtube/v3"
)

const defaultUploadBaseURL = "https://www.googleapis.com"

// UploadClient publishes video assets through the platform's multipart upload
// endpoint: a JSON snippet/status part followed by the binary payload, in a
// single multipart/related POST. It is transport only; metadata arrives
// pre-enriched and is never transformed here.
type UploadClient struct {
	oauthConfig *oauth2.Config
	token       *oauth2.Token
	baseURL     string
	httpClient  *http.Client
	channelID   string
	ctx         context.Context
}

// NewUploadClient creates an uploader from resolved credentials. Missing
// credentials are a configuration error for the whole run, reported here.
func NewUploadClient(ctx context.Context, cfg *configuration.UploadConfig) (repository.IPlatformUploader, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("upload credentials not configured (client id/secret and access/refresh tokens required)")
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			youtubeapi.YoutubeScope,
			youtubeapi.YoutubeUploadScope,
		},
		Endpoint: google.Endpoint,
	}
	token := &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-1 * time.Minute), // force refresh on first use
	}

	httpClient := oauthConfig.Client(ctx, token)
	httpClient.Timeout = 5 * time.Minute

	return &UploadClient{
		oauthConfig: oauthConfig,
		token:       token,
		baseURL:     defaultUploadBaseURL,
		httpClient:  httpClient,
		channelID:   cfg.ChannelID,
		ctx:         ctx,
	}, nil
}

// WithBaseURL points the client at a different upload host. Used by tests.
func (c *UploadClient) WithBaseURL(u string) *UploadClient {
	c.baseURL = u
	return c
}

// WithHTTPClient swaps the transport. Used by tests to bypass OAuth.
func (c *UploadClient) WithHTTPClient(h *http.Client) *UploadClient {
	c.httpClient = h
	return c
}

// platformError is the structured error body the platform returns on
// rejection.
type platformError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// Upload performs the two-phase multipart upload. It never returns an error:
// every failure is folded into the result so callers can record it and move on
// to the next variant.
func (c *UploadClient) Upload(ctx context.Context, meta model.UploadMetadata, payload *model.AssetPayload) *model.UploadResult {
	if payload == nil || len(payload.Data) == 0 {
		return &model.UploadResult{Success: false, ErrorMessage: "empty asset payload"}
	}

	video := &youtubeapi.Video{
		Snippet: &youtubeapi.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  meta.CategoryID,
			ChannelId:   c.channelID,
		},
		Status: &youtubeapi.VideoStatus{
			PrivacyStatus:           meta.Privacy,
			SelfDeclaredMadeForKids: false,
		},
	}
	snippet, err := json.Marshal(video)
	if err != nil {
		return &model.UploadResult{Success: false, ErrorMessage: fmt.Sprintf("encoding metadata: %v", err)}
	}

	// Phase 1: metadata part. Phase 2: binary part. Both go out as one
	// multipart/related request.
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	metaPart, err := writer.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return &model.UploadResult{Success: false, ErrorMessage: fmt.Sprintf("building metadata part: %v", err)}
	}
	if _, err := metaPart.Write(snippet); err != nil {
		return &model.UploadResult{Success: false, ErrorMessage: fmt.Sprintf("writing metadata part: %v", err)}
	}

	mediaPart, err := writer.CreatePart(textproto.MIMEHeader{"Content-Type": {payload.MimeType}})
	if err != nil {
		return &model.UploadResult{Success: false, ErrorMessage: fmt.Sprintf("building media part: %v", err)}
	}
	if _, err := mediaPart.Write(payload.Data); err != nil {
		return &model.UploadResult{Success: false, ErrorMessage: fmt.Sprintf("writing media part: %v", err)}
	}
	if err := writer.Close(); err != nil {
		return &model.UploadResult{Success: false, ErrorMessage: fmt.Sprintf("finalizing upload body: %v", err)}
	}

	uploadURL := c.baseURL + "/upload/youtube/v3/videos?uploadType=multipart&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return &model.UploadResult{Success: false, ErrorMessage: fmt.Sprintf("building upload request: %v", err)}
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &model.UploadResult{Success: false, ErrorMessage: fmt.Sprintf("upload request failed: %v", err), Retryable: true}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &model.UploadResult{Success: false, ErrorMessage: fmt.Sprintf("reading upload response: %v", err), Retryable: true}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &model.UploadResult{
			Success:      false,
			ErrorMessage: extractErrorMessage(respBody, resp.Status),
			Retryable:    retryableStatus(resp.StatusCode),
		}
	}

	var uploaded youtubeapi.Video
	if err := json.Unmarshal(respBody, &uploaded); err != nil || uploaded.Id == "" {
		return &model.UploadResult{Success: false, ErrorMessage: "platform accepted upload but returned no video id"}
	}

	result := &model.UploadResult{
		Success:         true,
		PlatformAssetID: uploaded.Id,
		PublicURL:       PublicURL(uploaded.Id, meta.ShortForm),
	}
	logger.GetLogger().WithField("video_id", uploaded.Id).Info("Video uploaded")
	return result
}

// PublicURL constructs the deterministic public URL for an uploaded asset.
func PublicURL(videoID string, shortForm bool) string {
	if shortForm {
		return "https://www.youtube.com/shorts/" + videoID
	}
	return "https://www.youtube.com/watch?v=" + videoID
}

// retryableStatus reports whether a failed upload is worth retrying. 403 quota
// errors look like rate limits but never recover within a run, so they are
// permanent.
func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

// extractErrorMessage prefers the platform's structured error body, falling
// back to the transport status text.
func extractErrorMessage(body []byte, status string) string {
	var pe platformError
	if err := json.Unmarshal(body, &pe); err == nil && pe.Error.Message != "" {
		if len(pe.Error.Errors) > 0 && pe.Error.Errors[0].Reason != "" {
			return fmt.Sprintf("%s: %s", pe.Error.Errors[0].Reason, pe.Error.Message)
		}
		return pe.Error.Message
	}
	return status
}
