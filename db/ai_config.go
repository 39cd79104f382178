package db

import (
	"os"
	"strings"

	"github.com/snaptodo/snaptodo/config"
	"github.com/snaptodo/snaptodo/models"
)

// LoadAIConfig builds the AI configuration with DB > env > default precedence.
// The result is passed into the pipeline whole; nothing reads settings ad hoc
// mid-capture.
func LoadAIConfig() (*models.AIConfig, error) {
	all := make(map[string]string)

	rows, err := GetDB().Query("SELECT key, value FROM settings WHERE key LIKE 'ai_%'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		all[key] = value
	}

	cfg := config.Get()

	pick := func(dbKey, envKey, defaultValue string) string {
		if val, ok := all[dbKey]; ok && val != "" {
			return val
		}
		if envKey != "" {
			if envVal := os.Getenv(envKey); envVal != "" {
				return envVal
			}
		}
		return defaultValue
	}

	return &models.AIConfig{
		OCR: models.ModelConfig{
			BaseURL:   pick("ai_ocr_base_url", "OCR_BASE_URL", cfg.OCRBaseURL),
			APIKey:    pick("ai_ocr_api_key", "OCR_API_KEY", cfg.OCRAPIKey),
			ModelName: pick("ai_ocr_model", "OCR_MODEL", cfg.OCRModel),
			AppID:     pick("ai_ocr_app_id", "OCR_APP_ID", cfg.OCRAppID),
		},
		Analysis: models.ModelConfig{
			BaseURL:   pick("ai_analysis_base_url", "ANALYSIS_BASE_URL", cfg.AnalysisBaseURL),
			APIKey:    pick("ai_analysis_api_key", "ANALYSIS_API_KEY", cfg.AnalysisAPIKey),
			ModelName: pick("ai_analysis_model", "ANALYSIS_MODEL", cfg.AnalysisModel),
			AppID:     pick("ai_analysis_app_id", "ANALYSIS_APP_ID", cfg.AnalysisAppID),
		},
		OCRPrompt:      pick("ai_ocr_prompt", "", models.DefaultOCRPrompt),
		AnalysisPrompt: pick("ai_analysis_prompt", "", models.DefaultAnalysisPrompt),
	}, nil
}

// SaveAIConfig flattens the AI configuration to settings rows. An explicitly
// empty field deletes the stored override so the value falls back through to
// env/default; without that a saved key could never be cleared. A masked API
// key (all asterisks) is skipped so a settings round-trip through the UI does
// not clobber the real key.
func SaveAIConfig(c *models.AIConfig) error {
	updates, clears := splitAIConfigUpdates(c)

	for _, key := range clears {
		if err := DeleteSetting(key); err != nil {
			return err
		}
	}
	return UpdateSettings(updates)
}

// splitAIConfigUpdates sorts the flattened fields into rows to upsert and
// keys to delete.
func splitAIConfigUpdates(c *models.AIConfig) (updates map[string]string, clears []string) {
	updates = make(map[string]string)

	put := func(key, value string) {
		if value == "" {
			clears = append(clears, key)
			return
		}
		if isMasked(value) {
			return
		}
		updates[key] = value
	}

	put("ai_ocr_base_url", c.OCR.BaseURL)
	put("ai_ocr_api_key", c.OCR.APIKey)
	put("ai_ocr_model", c.OCR.ModelName)
	put("ai_ocr_app_id", c.OCR.AppID)

	put("ai_analysis_base_url", c.Analysis.BaseURL)
	put("ai_analysis_api_key", c.Analysis.APIKey)
	put("ai_analysis_model", c.Analysis.ModelName)
	put("ai_analysis_app_id", c.Analysis.AppID)

	put("ai_ocr_prompt", c.OCRPrompt)
	put("ai_analysis_prompt", c.AnalysisPrompt)

	return updates, clears
}

// SanitizeAIConfig masks API keys before sending the config to a client
func SanitizeAIConfig(c *models.AIConfig) *models.AIConfig {
	sanitized := *c
	sanitized.OCR.APIKey = maskAPIKey(c.OCR.APIKey)
	sanitized.Analysis.APIKey = maskAPIKey(c.Analysis.APIKey)
	return &sanitized
}

// maskAPIKey replaces an API key with asterisks of the same length
func maskAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	return strings.Repeat("*", len(apiKey))
}

func isMasked(value string) bool {
	return value == strings.Repeat("*", len(value))
}
