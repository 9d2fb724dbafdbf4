// Package config resolves settings from the environment. Values from a .env
// file are picked up once the root command has loaded it with godotenv.
package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/imagenet-fetch/internal/assets"
	"github.com/lehigh-university-libraries/imagenet-fetch/internal/imagenet"
)

// Environment variable names.
const (
	EnvHost         = "IMAGENET_HOST"
	EnvAssetRoot    = "IMAGENET_ASSET_ROOT"
	EnvLabels       = "IMAGENET_LABELS"
	EnvOutputDir    = "IMAGENET_OUTPUT_DIR"
	EnvSkipExisting = "IMAGENET_SKIP_EXISTING"
)

// Default values
const (
	DefaultLabels       = "synset.txt"
	DefaultOutputDir    = "."
	DefaultSkipExisting = true
)

// Settings are the defaults the download commands start from.
type Settings struct {
	Host         string
	AssetRoot    string
	LabelsFile   string
	OutputDir    string
	SkipExisting bool
}

// LoadDotEnv loads the given .env files (or ./.env) into the environment.
// A missing file is not an error.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		slog.Debug("Unable to load .env", "error", err)
	}
}

// FromEnv reads Settings from the environment, falling back to defaults.
func FromEnv() Settings {
	s := Settings{
		Host:         getenv(EnvHost, imagenet.DefaultHost),
		AssetRoot:    getenv(EnvAssetRoot, assets.DefaultRoot),
		LabelsFile:   getenv(EnvLabels, DefaultLabels),
		OutputDir:    getenv(EnvOutputDir, DefaultOutputDir),
		SkipExisting: DefaultSkipExisting,
	}
	if v := os.Getenv(EnvSkipExisting); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("Ignoring invalid boolean", "var", EnvSkipExisting, "value", v)
		} else {
			s.SkipExisting = skip
		}
	}
	return s
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
