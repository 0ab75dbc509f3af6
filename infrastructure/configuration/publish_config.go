package configuration

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// RenderConfig is the resolved avatar render service configuration, built once
// at startup and handed to the render client constructor. A missing API key is
// not an error here: it flips the pipeline into fallback-only mode.
type RenderConfig struct {
	BaseURL     string
	APIKey      string
	AvatarID    string
	VoiceID     string
	PollSeconds int
	MaxWaitSecs int
}

// GetRenderConfig resolves render settings from JSON config with environment
// variable precedence.
func GetRenderConfig() *RenderConfig {
	cfg := &RenderConfig{
		BaseURL:     getConfigValue(C.Render.BaseURL, "RENDER_BASE_URL", "https://api.heygen.com"),
		APIKey:      getConfigValue(C.Render.APIKey, "RENDER_API_KEY", ""),
		AvatarID:    getConfigValue(C.Render.AvatarID, "RENDER_AVATAR_ID", ""),
		VoiceID:     getConfigValue(C.Render.VoiceID, "RENDER_VOICE_ID", ""),
		PollSeconds: C.Render.PollSeconds,
		MaxWaitSecs: C.Render.MaxWaitSecs,
	}
	if cfg.PollSeconds <= 0 {
		cfg.PollSeconds = 3
	}
	if cfg.MaxWaitSecs <= 0 {
		cfg.MaxWaitSecs = 300
	}
	return cfg
}

// Configured reports whether the render capability key is present.
func (rc *RenderConfig) Configured() bool {
	return rc != nil && strings.TrimSpace(rc.APIKey) != ""
}

// UploadConfig is the resolved video platform upload configuration.
type UploadConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AccessToken  string
	RefreshToken string
	ChannelID    string
	CategoryID   string
	Privacy      string
}

// GetUploadConfig resolves upload credentials from JSON config with environment
// variable precedence, falling back to token.json written by the OAuth flow.
func GetUploadConfig() (*UploadConfig, error) {
	scheme := "http"
	if C.App.TLSEnabled {
		scheme = "https"
	}
	defaultRedirect := fmt.Sprintf("%s://localhost:%d/auth/youtube/callback", scheme, C.App.Port)

	cfg := &UploadConfig{
		ClientID:     getConfigValue(C.YouTube.ClientID, "YOUTUBE_CLIENT_ID", ""),
		ClientSecret: getConfigValue(C.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET", ""),
		RedirectURL:  getConfigValue(C.YouTube.RedirectURI, "YOUTUBE_REDIRECT_URL", defaultRedirect),
		AccessToken:  getEnv("YOUTUBE_ACCESS_TOKEN", ""),
		RefreshToken: getEnv("YOUTUBE_REFRESH_TOKEN", ""),
		ChannelID:    getConfigValue(C.YouTube.ChannelID, "YOUTUBE_CHANNEL_ID", ""),
		CategoryID:   getConfigValue(C.YouTube.CategoryID, "YOUTUBE_CATEGORY_ID", "22"),
		Privacy:      getConfigValue(C.YouTube.Privacy, "YOUTUBE_PRIVACY", "public"),
	}

	// OAuth callback writes token.json; pick tokens up from there when the
	// environment does not provide them.
	if cfg.AccessToken == "" || cfg.RefreshToken == "" {
		if data, err := os.ReadFile("token.json"); err == nil {
			var tokenFile struct {
				AccessToken  string `json:"access_token"`
				RefreshToken string `json:"refresh_token"`
			}
			if jsonErr := json.Unmarshal(data, &tokenFile); jsonErr == nil {
				if cfg.AccessToken == "" {
					cfg.AccessToken = tokenFile.AccessToken
				}
				if cfg.RefreshToken == "" {
					cfg.RefreshToken = tokenFile.RefreshToken
				}
			}
		}
	}

	return cfg, nil
}

// Configured reports whether the uploader has enough credentials to attempt a
// real upload. Missing credentials are a whole-run configuration error.
func (uc *UploadConfig) Configured() bool {
	return uc != nil && uc.AccessToken != "" && uc.RefreshToken != "" &&
		uc.ClientID != "" && uc.ClientSecret != ""
}

// getConfigValue gets value from environment first, then config, then default.
// Placeholder values left from config templates are ignored.
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
