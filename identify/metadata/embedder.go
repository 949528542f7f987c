package metadata

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Embedder writes recovered metadata into audio files.
type Embedder struct{}

// NewEmbedder creates a new metadata embedder.
func NewEmbedder() *Embedder {
	return &Embedder{}
}

// Embed writes the masked fields of info into the file's tag container.
// Unsupported formats log a warning and return nil.
func (e *Embedder) Embed(ctx context.Context, filePath string, info *TrackInfo, mask FieldMask) error {
	log.Printf("INFO: metadata_embed_start file=%s title=%s artist=%s", filePath, info.Title, info.Artist)

	if err := ctx.Err(); err != nil {
		return &MetadataError{
			Message:  fmt.Sprintf("Context cancelled: %v", err),
			Original: err,
		}
	}

	if mask.Empty() {
		log.Printf("INFO: metadata_embed_nothing_to_write file=%s", filePath)
		return nil
	}

	if _, err := os.Stat(filePath); err != nil {
		log.Printf("ERROR: metadata_embed_failed file=%s error=file_not_found: %v", filePath, err)
		return &MetadataError{
			Message:  fmt.Sprintf("File not found: %s", filePath),
			Original: err,
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))

	var err error
	switch ext {
	case "mp3":
		err = e.embedMP3(ctx, filePath, info, mask)
	case "flac":
		err = e.embedFLAC(ctx, filePath, info, mask)
	case "m4a":
		err = e.embedM4A(ctx, filePath, info, mask)
	case "ogg", "opus":
		err = e.embedVorbis(ctx, filePath, info, mask)
	default:
		// Unsupported container - log warning but don't error
		log.Printf("WARN: metadata_embed_unsupported_format file=%s format=%s", filePath, ext)
		return nil
	}

	if err != nil {
		log.Printf("ERROR: metadata_embed_failed file=%s title=%s error=%v", filePath, info.Title, err)
		return err
	}

	log.Printf("INFO: metadata_embed_complete file=%s title=%s artist=%s", filePath, info.Title, info.Artist)
	return nil
}

// downloadCoverArt downloads cover art from URL to a temporary file.
func (e *Embedder) downloadCoverArt(ctx context.Context, coverURL string) (string, error) {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}
	req, err := http.NewRequestWithContext(ctx, "GET", coverURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download cover art: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download cover art: status %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp("", "musicid_cover_*.img")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		_ = os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to write cover art: %w", err)
	}

	return tmpFile.Name(), nil
}

// fetchCoverData downloads cover art into memory and sniffs its MIME type.
func (e *Embedder) fetchCoverData(ctx context.Context, coverURL string) ([]byte, string, error) {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}
	req, err := http.NewRequestWithContext(ctx, "GET", coverURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download cover art: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download cover art: status %d", resp.StatusCode)
	}

	coverData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read cover art: %w", err)
	}

	return coverData, sniffImageMIME(coverData), nil
}

// sniffImageMIME distinguishes PNG from the JPEG default.
func sniffImageMIME(data []byte) string {
	if len(data) > 4 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	return "image/jpeg"
}
