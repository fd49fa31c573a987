package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ziyun99/treasurehunt/internal/auth"
)

// Config encapsulates the runtime configuration for the treasure hunt service.
type Config struct {
	Port         string `validate:"required"`
	GCPProjectID string
	DataStore    string `validate:"required,oneof=firestore memory"`
	Auth         AuthConfig
	Firestore    FirestoreConfig
	Hunt         HuntConfig
	AdminUIDs    []string
}

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode     auth.Mode
	JWKSURL  string
	Audience string
	Issuer   string
}

// FirestoreConfig tailors Firestore client behavior.
type FirestoreConfig struct {
	Database     string
	EmulatorHost string
}

// HuntConfig carries the campaign parameters.
type HuntConfig struct {
	// StartDate is the campaign day on which landmark 0 becomes unlockable,
	// interpreted at midnight in Location.
	StartDate time.Time
	Location  *time.Location
}

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	cfg := Config{
		Port:         Getenv("PORT", "8080"),
		GCPProjectID: Getenv("GCP_PROJECT_ID", ""),
		DataStore:    Getenv("DATASTORE", "firestore"),
		Auth: AuthConfig{
			Mode:     auth.Mode(strings.ToLower(Getenv("AUTH_MODE", string(auth.ModeNoop)))),
			JWKSURL:  Getenv("FIREBASE_JWKS_URL", ""),
			Audience: Getenv("FIREBASE_AUDIENCE", ""),
			Issuer:   Getenv("FIREBASE_ISSUER", ""),
		},
		Firestore: FirestoreConfig{
			Database:     Getenv("FIRESTORE_DATABASE", "(default)"),
			EmulatorHost: Getenv("FIRESTORE_EMULATOR_HOST", ""),
		},
		AdminUIDs: splitList(Getenv("ADMIN_UIDS", "")),
	}

	loc, err := time.LoadLocation(Getenv("HUNT_TIMEZONE", "Asia/Taipei"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid HUNT_TIMEZONE: %w", err)
	}
	start, err := time.ParseInLocation("2006-01-02", Getenv("HUNT_START_DATE", "2025-04-20"), loc)
	if err != nil {
		return Config{}, fmt.Errorf("invalid HUNT_START_DATE: %w", err)
	}
	cfg.Hunt = HuntConfig{StartDate: start, Location: loc}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, err
	}
	if err := validateAuth(cfg.Auth); err != nil {
		return Config{}, err
	}
	if cfg.DataStore == "firestore" && cfg.GCPProjectID == "" {
		return Config{}, fmt.Errorf("GCP_PROJECT_ID is required when DATASTORE=firestore")
	}

	return cfg, nil
}

func validateAuth(cfg AuthConfig) error {
	switch cfg.Mode {
	case auth.ModeFirebase:
		if cfg.JWKSURL == "" {
			return fmt.Errorf("FIREBASE_JWKS_URL is required when AUTH_MODE=firebase")
		}
	case auth.ModeNoop:
		// no-op
	default:
		return fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
	return nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
