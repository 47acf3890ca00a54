// Package extractor builds the configured audio extractor.
package extractor

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/jmoreiras/rockwave/internal/app/resolver"
	"github.com/jmoreiras/rockwave/internal/infra/config"
	"github.com/jmoreiras/rockwave/internal/infra/ytdlp"
)

// YtdlpSettings represents the settings map for the yt-dlp extractor.
type YtdlpSettings struct {
	BinaryPath     string `mapstructure:"binary_path" default:"yt-dlp"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" default:"30" validate:"gte=1,lte=300"`
	MaxRetries     int    `mapstructure:"max_retries" default:"3" validate:"gte=1,lte=10"`
}

// NewFromConfig creates the extractor named by the configuration.
func NewFromConfig(cfg *config.Config) (resolver.Extractor, error) {
	switch cfg.Extractor.Type {
	case "ytdlp":
		settings, err := decodeYtdlpSettings(cfg.Extractor.Settings)
		if err != nil {
			return nil, errors.Wrap(err, "invalid ytdlp settings")
		}
		zlog.Info().Msgf("extractor: using yt-dlp at %s (timeout %ds, retries %d)",
			settings.BinaryPath, settings.TimeoutSeconds, settings.MaxRetries)
		return ytdlp.New(ytdlp.Config{
			BinaryPath:  settings.BinaryPath,
			Timeout:     time.Duration(settings.TimeoutSeconds) * time.Second,
			MaxRetries:  settings.MaxRetries,
			FallbackTTL: cfg.FallbackTTL(),
		})

	default:
		return nil, errors.Newf("unsupported extractor type: %s", cfg.Extractor.Type)
	}
}

// decodeYtdlpSettings decodes the free-form settings map into typed
// settings, applying defaults and validation.
func decodeYtdlpSettings(settings map[string]any) (*YtdlpSettings, error) {
	var s YtdlpSettings

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &s,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(&s); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	return &s, nil
}
