// Package ytdlp wraps the yt-dlp extractor binary.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"os/exec"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/jmoreiras/rockwave/internal/app/resolver"
)

const defaultDuration = 3 * time.Minute

// Config represents yt-dlp client configuration.
type Config struct {
	BinaryPath  string        // Path to the yt-dlp binary
	Timeout     time.Duration // Per-attempt timeout
	MaxRetries  int           // Attempts before giving up
	FallbackTTL time.Duration // Assumed URL lifetime when the CDN URL carries no expiry
}

// Client invokes yt-dlp to turn a video link into a playable audio URL
// plus metadata. It implements resolver.Extractor.
type Client struct {
	binary      string
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
	fallbackTTL time.Duration
}

// videoInfo is the subset of yt-dlp's -J output we consume.
type videoInfo struct {
	URL       string  `json:"url"`
	Title     string  `json:"title"`
	Uploader  string  `json:"uploader"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
	Formats   []struct {
		URL    string `json:"url"`
		ACodec string `json:"acodec"`
	} `json:"formats"`
}

// New creates a new yt-dlp client.
func New(cfg Config) (*Client, error) {
	if cfg.BinaryPath == "" {
		return nil, errors.New("yt-dlp binary path is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.FallbackTTL <= 0 {
		cfg.FallbackTTL = 2 * time.Hour
	}

	return &Client{
		binary:      cfg.BinaryPath,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  time.Second,
		fallbackTTL: cfg.FallbackTTL,
	}, nil
}

// Extract resolves a source link into an audio URL and metadata. Attempts
// are retried with exponential backoff; each attempt runs under its own
// timeout so a wedged extractor never blocks the caller indefinitely.
func (c *Client) Extract(ctx context.Context, sourceURL string) (*resolver.Extraction, error) {
	if sourceURL == "" {
		return nil, errors.New("source URL is required")
	}
	if _, err := url.ParseRequestURI(sourceURL); err != nil {
		return nil, errors.Wrap(err, "unparseable source URL")
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			zlog.Debug().Msgf("ytdlp: retrying %s in %v (attempt %d/%d)", sourceURL, delay, attempt+1, c.maxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		ext, err := c.extractOnce(ctx, sourceURL)
		if err != nil {
			lastErr = err
			zlog.Warn().Msgf("ytdlp: extraction failed for %s (attempt %d/%d): %v", sourceURL, attempt+1, c.maxRetries, err)
			continue
		}
		return ext, nil
	}

	return nil, errors.Wrapf(lastErr, "extraction failed after %d attempts", c.maxRetries)
}

func (c *Client) extractOnce(ctx context.Context, sourceURL string) (*resolver.Extraction, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(attemptCtx, c.binary,
		"-J",
		"--no-warnings",
		"--format", "bestaudio/best",
		sourceURL,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if attemptCtx.Err() != nil {
			return nil, errors.Wrap(attemptCtx.Err(), "yt-dlp timed out")
		}
		return nil, errors.Wrapf(err, "yt-dlp failed: %s", stderr.String())
	}

	var info videoInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, errors.Wrap(err, "failed to parse yt-dlp output")
	}

	audioURL := info.URL
	if audioURL == "" {
		// Fall back to the last format with an audio codec, matching
		// yt-dlp's own ordering of worst to best.
		for _, f := range info.Formats {
			if f.ACodec != "" && f.ACodec != "none" && f.URL != "" {
				audioURL = f.URL
			}
		}
	}
	if audioURL == "" {
		return nil, errors.New("no audio format found")
	}

	duration := time.Duration(info.Duration * float64(time.Second))
	if duration <= 0 {
		duration = defaultDuration
	}

	return &resolver.Extraction{
		AudioURL:  audioURL,
		Title:     info.Title,
		Artist:    info.Uploader,
		Duration:  duration,
		Thumbnail: info.Thumbnail,
		ExpiresAt: c.expiryOf(audioURL),
	}, nil
}

// expiryOf derives the URL's expiry timestamp. Googlevideo CDN URLs carry
// it as an `expire` unix-seconds query parameter; anything else gets the
// configured fallback TTL.
func (c *Client) expiryOf(audioURL string) time.Time {
	u, err := url.Parse(audioURL)
	if err == nil {
		if raw := u.Query().Get("expire"); raw != "" {
			if sec, err := strconv.ParseInt(raw, 10, 64); err == nil && sec > 0 {
				return time.Unix(sec, 0)
			}
		}
	}
	return time.Now().Add(c.fallbackTTL)
}
