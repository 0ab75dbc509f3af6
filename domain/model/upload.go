package model

// UploadMetadata is the structured part of the two-phase upload. The caller
// pre-enriches title/description/tags; the uploader only transports them.
type UploadMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Privacy     string   `json:"privacy"`
	CategoryID  string   `json:"category_id"`
	ShortForm   bool     `json:"short_form"`
}

// UploadResult is the immutable outcome of one upload call. The uploader never
// propagates an error value past its boundary; every failure becomes a result
// with Success=false and an error message.
type UploadResult struct {
	Success         bool   `json:"success"`
	PlatformAssetID string `json:"platform_asset_id,omitempty"`
	PublicURL       string `json:"public_url,omitempty"`
	ErrorMessage    string `json:"error_message,omitempty"`
	// Retryable marks transient failures (transport errors, 5xx, rate
	// limits). Quota exhaustion and validation errors are permanent.
	Retryable bool `json:"-"`
}
