package youtube_test

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	youtubeapi "google.golang.org/api/youtube/v3"

	"my-campaign/domain/model"
	youtubeclient "my-campaign/infrastructure/clients/youtube"
	"my-campaign/infrastructure/configuration"
)

func uploadTestConfig() *configuration.UploadConfig {
	return &configuration.UploadConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost/callback",
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ChannelID:    "channel-1",
		CategoryID:   "22",
		Privacy:      "public",
	}
}

func newTestUploader(t *testing.T, srv *httptest.Server) *youtubeclient.UploadClient {
	t.Helper()
	uploader, err := youtubeclient.NewUploadClient(context.Background(), uploadTestConfig())
	require.NoError(t, err)
	return uploader.(*youtubeclient.UploadClient).
		WithBaseURL(srv.URL).
		WithHTTPClient(srv.Client())
}

func testMeta() model.UploadMetadata {
	return model.UploadMetadata{
		Title:       "Morning Light",
		Description: "A short reflection.",
		Tags:        []string{"faith"},
		Privacy:     "public",
		CategoryID:  "22",
	}
}

func testPayload() *model.AssetPayload {
	return &model.AssetPayload{Data: []byte("video-bytes"), MimeType: "video/mp4", Rendered: true}
}

func TestUpload_SendsMetadataAndBinaryParts(t *testing.T) {
	var gotVideo youtubeapi.Video
	var gotMedia []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload/youtube/v3/videos", r.URL.Path)
		require.Equal(t, "multipart", r.URL.Query().Get("uploadType"))
		require.Equal(t, "snippet,status", r.URL.Query().Get("part"))

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/related", mediaType)

		reader := multipart.NewReader(r.Body, params["boundary"])

		metaPart, err := reader.NextPart()
		require.NoError(t, err)
		require.Contains(t, metaPart.Header.Get("Content-Type"), "application/json")
		require.NoError(t, json.NewDecoder(metaPart).Decode(&gotVideo))

		mediaPart, err := reader.NextPart()
		require.NoError(t, err)
		require.Equal(t, "video/mp4", mediaPart.Header.Get("Content-Type"))
		gotMedia, err = io.ReadAll(mediaPart)
		require.NoError(t, err)

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "abc123"})
	}))
	defer srv.Close()

	result := newTestUploader(t, srv).Upload(context.Background(), testMeta(), testPayload())

	require.True(t, result.Success)
	assert.Equal(t, "abc123", result.PlatformAssetID)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", result.PublicURL)

	assert.Equal(t, "Morning Light", gotVideo.Snippet.Title)
	assert.Equal(t, "A short reflection.", gotVideo.Snippet.Description)
	assert.Equal(t, []string{"faith"}, gotVideo.Snippet.Tags)
	assert.Equal(t, "public", gotVideo.Status.PrivacyStatus)
	assert.Equal(t, []byte("video-bytes"), gotMedia)
}

func TestUpload_ShortFormGetsShortsURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "short99"})
	}))
	defer srv.Close()

	meta := testMeta()
	meta.ShortForm = true
	result := newTestUploader(t, srv).Upload(context.Background(), meta, testPayload())

	require.True(t, result.Success)
	assert.Equal(t, "https://www.youtube.com/shorts/short99", result.PublicURL)
}

func TestUpload_QuotaErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"code":    403,
				"message": "The request cannot be completed because you have exceeded your quota.",
				"errors":  []map[string]string{{"reason": "quotaExceeded"}},
			},
		})
	}))
	defer srv.Close()

	result := newTestUploader(t, srv).Upload(context.Background(), testMeta(), testPayload())

	require.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "quotaExceeded")
	assert.False(t, result.Retryable)
}

func TestUpload_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 503, "message": "Backend Error"},
		})
	}))
	defer srv.Close()

	result := newTestUploader(t, srv).Upload(context.Background(), testMeta(), testPayload())

	require.False(t, result.Success)
	assert.True(t, result.Retryable)
}

func TestUpload_RateLimitIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	result := newTestUploader(t, srv).Upload(context.Background(), testMeta(), testPayload())

	require.False(t, result.Success)
	assert.True(t, result.Retryable)
}

func TestUpload_EmptyPayloadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty payload")
	}))
	defer srv.Close()

	result := newTestUploader(t, srv).Upload(context.Background(), testMeta(), &model.AssetPayload{})

	require.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "empty asset payload")
}

func TestUpload_MissingVideoIDInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	result := newTestUploader(t, srv).Upload(context.Background(), testMeta(), testPayload())

	require.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "no video id")
}

func TestNewUploadClient_RequiresCredentials(t *testing.T) {
	_, err := youtubeclient.NewUploadClient(context.Background(), &configuration.UploadConfig{})
	require.Error(t, err)
}
