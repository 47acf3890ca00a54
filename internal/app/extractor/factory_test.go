package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoreiras/rockwave/internal/infra/config"
)

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ExtractorConfig
		wantErr bool
	}{
		{
			name: "ytdlp with defaults",
			cfg:  config.ExtractorConfig{Type: "ytdlp"},
		},
		{
			name: "ytdlp with settings",
			cfg: config.ExtractorConfig{
				Type: "ytdlp",
				Settings: map[string]any{
					"binary_path":     "/usr/local/bin/yt-dlp",
					"timeout_seconds": 60,
					"max_retries":     5,
				},
			},
		},
		{
			name:    "unknown type",
			cfg:     config.ExtractorConfig{Type: "magic"},
			wantErr: true,
		},
		{
			name: "timeout out of range",
			cfg: config.ExtractorConfig{
				Type:     "ytdlp",
				Settings: map[string]any{"timeout_seconds": 9999},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Extractor: tt.cfg,
				Resolver:  config.ResolverConfig{RefreshMarginMinutes: 20, FallbackTTLMinutes: 120},
			}

			ext, err := NewFromConfig(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, ext)
		})
	}
}

func TestDecodeYtdlpSettings_Defaults(t *testing.T) {
	s, err := decodeYtdlpSettings(nil)
	require.NoError(t, err)

	assert.Equal(t, "yt-dlp", s.BinaryPath)
	assert.Equal(t, 30, s.TimeoutSeconds)
	assert.Equal(t, 3, s.MaxRetries)
}
