package model

// Variant is one localized unit of campaign content. It is built once from the
// campaign request and never mutated; one Variant maps to exactly one publish attempt.
type Variant struct {
	LanguageTag string   `json:"language_tag"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Hashtags    []string `json:"hashtags"`
	ShortForm   bool     `json:"short_form"`
}

// RenderSpec describes the render job derived from a variant: which avatar reads
// which script at which frame dimension.
type RenderSpec struct {
	AvatarID string `json:"avatar_id"`
	VoiceID  string `json:"voice_id"`
	Script   string `json:"script"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// AssetPayload is the raw video content handed from the asset source to the
// uploader. Consumed exactly once; never cached.
type AssetPayload struct {
	Data     []byte
	MimeType string
	// Rendered is true when the bytes came from the render service rather than
	// the fallback stock asset.
	Rendered bool
}
