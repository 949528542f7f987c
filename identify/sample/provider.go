package sample

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for the sample provider.
type Config struct {
	FFmpegPath  string
	FFprobePath string

	// Clip length in seconds
	ClipSeconds int
}

// Provider extracts short clips from audio files via ffmpeg.
type Provider struct {
	config  *Config
	tempDir string
}

// NewProvider creates a new sample provider.
func NewProvider(config *Config) (*Provider, error) {
	if config.FFmpegPath == "" {
		config.FFmpegPath = "ffmpeg"
	}
	if config.FFprobePath == "" {
		config.FFprobePath = "ffprobe"
	}

	tempDir := filepath.Join(os.TempDir(), "musicid")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &Provider{
		config:  config,
		tempDir: tempDir,
	}, nil
}

// Cut extracts a clip starting at offset seconds into a temporary WAV file and
// returns its path. The caller removes the file when done. A clip shorter than
// ClipSeconds is returned as-is when the source runs out before the window
// closes.
func (p *Provider) Cut(ctx context.Context, path string, offset int) (string, error) {
	clipPath := filepath.Join(p.tempDir, fmt.Sprintf("clip_%d_%d.wav", offset, time.Now().UnixNano()))

	args := []string{
		"-nostdin",
		"-v", "error",
		"-ss", strconv.Itoa(offset),
		"-i", path,
		"-t", strconv.Itoa(p.config.ClipSeconds),
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		clipPath,
	}

	cmd := exec.CommandContext(ctx, p.config.FFmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(clipPath)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &TranscodeError{
			Message:  fmt.Sprintf("ffmpeg failed for %s at %ds: %s", path, offset, strings.TrimSpace(string(output))),
			Original: err,
		}
	}

	info, err := os.Stat(clipPath)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(clipPath)
		return "", &TranscodeError{
			Message: fmt.Sprintf("ffmpeg produced no audio data for %s at %ds", path, offset),
		}
	}

	return clipPath, nil
}

// Cleanup removes leftover clip files from the provider's temp directory.
func (p *Provider) Cleanup() {
	entries, err := os.ReadDir(p.tempDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "clip_") {
			_ = os.Remove(filepath.Join(p.tempDir, entry.Name()))
		}
	}
}
