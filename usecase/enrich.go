package usecase

import (
	"strings"

	"my-campaign/domain/model"
)

// Platform limit on video titles; longer titles are truncated with an ellipsis.
const maxTitleLength = 100

const (
	landscapeWidth  = 1280
	landscapeHeight = 720
	portraitWidth   = 720
	portraitHeight  = 1280
)

// MetadataEnricher turns a raw variant into platform-ready upload metadata and
// a render spec. Pure transformation: no IO, safe to call concurrently.
type MetadataEnricher struct {
	siteURL    string
	categoryID string
	privacy    string
	avatarID   string
	voiceID    string
}

func NewMetadataEnricher(siteURL, categoryID, privacy, avatarID, voiceID string) *MetadataEnricher {
	return &MetadataEnricher{
		siteURL:    siteURL,
		categoryID: categoryID,
		privacy:    privacy,
		avatarID:   avatarID,
		voiceID:    voiceID,
	}
}

// EnrichMetadata builds the upload metadata for one variant: capped title,
// description assembled from body, hashtag line and site link, and plain tags.
func (e *MetadataEnricher) EnrichMetadata(v model.Variant) model.UploadMetadata {
	hashtags := normalizeHashtags(v.Hashtags)

	parts := []string{}
	if body := strings.TrimSpace(v.Body); body != "" {
		parts = append(parts, body)
	}
	if len(hashtags) > 0 {
		parts = append(parts, strings.Join(hashtags, " "))
	}
	if e.siteURL != "" {
		parts = append(parts, e.siteURL)
	}

	tags := make([]string, 0, len(hashtags))
	for _, h := range hashtags {
		tags = append(tags, strings.TrimPrefix(h, "#"))
	}

	return model.UploadMetadata{
		Title:       truncateTitle(v.Title),
		Description: strings.Join(parts, "\n\n"),
		Tags:        tags,
		Privacy:     e.privacy,
		CategoryID:  e.categoryID,
		ShortForm:   v.ShortForm,
	}
}

// BuildRenderSpec derives the render job for one variant. Short-form variants
// render portrait; everything else lands on the standard landscape frame.
func (e *MetadataEnricher) BuildRenderSpec(v model.Variant) model.RenderSpec {
	spec := model.RenderSpec{
		AvatarID: e.avatarID,
		VoiceID:  e.voiceID,
		Script:   strings.TrimSpace(v.Body),
		Width:    landscapeWidth,
		Height:   landscapeHeight,
	}
	if spec.Script == "" {
		spec.Script = strings.TrimSpace(v.Title)
	}
	if v.ShortForm {
		spec.Width = portraitWidth
		spec.Height = portraitHeight
	}
	return spec
}

// normalizeHashtags ensures each tag carries exactly one leading '#', drops
// empties and deduplicates case-insensitively while preserving input order.
func normalizeHashtags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		t = strings.TrimLeft(t, "#")
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, "#"+t)
	}
	return out
}

func truncateTitle(title string) string {
	title = strings.TrimSpace(title)
	runes := []rune(title)
	if len(runes) <= maxTitleLength {
		return title
	}
	return string(runes[:maxTitleLength-3]) + "..."
}
