package dto

import "my-campaign/domain/model"

// PublishCampaignRequest drives one orchestrator run.
type PublishCampaignRequest struct {
	CampaignName string          `json:"campaign_name" binding:"required"`
	Description  string          `json:"description"`
	Variants     []model.Variant `json:"variants" binding:"required"`
}

// VariantResult is the per-variant line item returned to the caller. Partial
// success is the expected shape, not an exceptional one.
type VariantResult struct {
	LanguageTag  string `json:"language_tag"`
	Success      bool   `json:"success"`
	PublicURL    string `json:"public_url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	UsedFallback bool   `json:"used_fallback"`
}

// PublishCampaignResponse itemizes the whole run.
type PublishCampaignResponse struct {
	CampaignID int64           `json:"campaign_id"`
	Results    []VariantResult `json:"results"`
	Warnings   []string        `json:"warnings,omitempty"`
}
