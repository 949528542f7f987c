package metadata

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// embedM4A writes metadata into an M4A file using a mutagen subprocess.
// Mutagen supports M4A/MP4 natively via MP4 tags.
func (e *Embedder) embedM4A(ctx context.Context, filePath string, info *TrackInfo, mask FieldMask) error {
	var coverPath string
	if info.CoverURL != "" {
		var err error
		coverPath, err = e.downloadCoverArt(ctx, info.CoverURL)
		if err != nil {
			log.Printf("WARN: cover_art_download_failed file=%s cover_url=%s error=%v", filePath, info.CoverURL, err)
			// Continue without cover art
		}
		defer func() {
			if coverPath != "" {
				os.Remove(coverPath)
			}
		}()
	}

	script := `#!/usr/bin/env python3
import sys
from mutagen.mp4 import MP4

try:
    audio = MP4(sys.argv[1])
`
	if mask.Title {
		script += fmt.Sprintf("    audio['\\xa9nam'] = [%q]  # Title\n", info.Title)
	}
	if mask.Artist {
		script += fmt.Sprintf("    audio['\\xa9ART'] = [%q]  # Artist\n", info.Artist)
	}
	if mask.Album && info.Album != "" {
		script += fmt.Sprintf("    audio['\\xa9alb'] = [%q]  # Album\n", info.Album)
	}
	if info.AlbumArtist != "" {
		script += fmt.Sprintf("    audio['aART'] = [%q]  # Album artist\n", info.AlbumArtist)
	}
	if info.TrackNumber > 0 {
		script += fmt.Sprintf("    audio['trkn'] = [(%d, 0)]  # Track number\n", info.TrackNumber)
	}
	if info.Year > 0 {
		script += fmt.Sprintf("    audio['\\xa9day'] = [%q]  # Date\n", fmt.Sprintf("%d", info.Year))
	}
	if coverPath != "" {
		script += fmt.Sprintf(`
    # Add cover art
    with open(%q, 'rb') as f:
        audio['covr'] = [f.read()]
`, coverPath)
	}
	script += `
    audio.save()
    sys.exit(0)
except Exception as e:
    print(f"Error: {e}", file=sys.stderr)
    sys.exit(1)
`

	return e.runMutagen(ctx, filePath, script, "M4A")
}

// runMutagen writes the script to a temp file next to the target and runs it
// with the file path as its argument.
func (e *Embedder) runMutagen(ctx context.Context, filePath, script, format string) error {
	tmpDir := filepath.Dir(filePath)
	tmpScript := filepath.Join(tmpDir, fmt.Sprintf(".musicid_metadata_%d.py", time.Now().UnixNano()))
	defer os.Remove(tmpScript)

	if err := os.WriteFile(tmpScript, []byte(script), 0755); err != nil {
		return &MetadataError{
			Message:  fmt.Sprintf("Failed to create mutagen script: %s", filePath),
			Original: err,
		}
	}

	cmd := exec.CommandContext(ctx, "python3", tmpScript, filePath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return &MetadataError{
				Message:  fmt.Sprintf("Context cancelled during %s metadata embedding: %v", format, ctx.Err()),
				Original: ctx.Err(),
			}
		}
		return &MetadataError{
			Message:  fmt.Sprintf("Failed to embed %s metadata: %s", format, string(output)),
			Original: err,
		}
	}

	return nil
}
