package config

import (
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/jmfigueroa/planilla/internal/export"
	"github.com/jmfigueroa/planilla/internal/infer"
)

// DatabasePath returns the configured SQLite path, defaulting to the
// standard data directory.
func DatabasePath() string {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/planilla/planilla.db"
	}
	return ExpandPath(dbPath)
}

// LoadInferenceConfig builds the structure-inference provider configuration.
// The API key comes from config or the PLANILLA_INFERENCE_API_KEY /
// ANTHROPIC_API_KEY environment variables.
func LoadInferenceConfig() infer.Config {
	cfg := infer.Config{
		Provider:    viper.GetString("inference.provider"),
		APIKey:      viper.GetString("inference.api_key"),
		Model:       viper.GetString("inference.model"),
		Temperature: viper.GetFloat64("inference.temperature"),
		MaxTokens:   viper.GetInt("inference.max_tokens"),
		TargetYear:  viper.GetInt("inference.target_year"),
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("PLANILLA_INFERENCE_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.TargetYear == 0 {
		cfg.TargetYear = time.Now().Year()
	}

	return cfg
}

// LoadExportConfig loads Google Sheets export configuration. Precedence:
// viper settings, then GOOGLE_SHEETS_* environment variables, then defaults.
func LoadExportConfig() (*export.Config, error) {
	cfg := export.DefaultConfig()

	if v := viper.GetString("sheets.service_account_path"); v != "" {
		cfg.ServiceAccountPath = ExpandPath(v)
	}
	if v := viper.GetString("sheets.client_id"); v != "" {
		cfg.ClientID = v
	}
	if v := viper.GetString("sheets.client_secret"); v != "" {
		cfg.ClientSecret = v
	}
	if v := viper.GetString("sheets.refresh_token"); v != "" {
		cfg.RefreshToken = v
	}
	if v := viper.GetString("sheets.spreadsheet_id"); v != "" {
		cfg.SpreadsheetID = v
	}
	if v := viper.GetString("sheets.spreadsheet_name"); v != "" {
		cfg.SpreadsheetName = v
	}

	if cfg.ServiceAccountPath == "" {
		if v := os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"); v != "" {
			cfg.ServiceAccountPath = ExpandPath(v)
		}
	}
	if cfg.ClientID == "" {
		cfg.ClientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}
	if cfg.RefreshToken == "" {
		cfg.RefreshToken = os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN")
	}
	if cfg.SpreadsheetID == "" {
		cfg.SpreadsheetID = os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")
	}
	if cfg.SpreadsheetName == "" {
		if v := os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"); v != "" {
			cfg.SpreadsheetName = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
