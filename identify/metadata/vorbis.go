package metadata

import (
	"context"
	"fmt"
	"log"
	"os"
)

// embedVorbis writes metadata into OGG/Opus files using a mutagen
// subprocess. OGG/Opus use Vorbis comments similar to FLAC.
func (e *Embedder) embedVorbis(ctx context.Context, filePath string, info *TrackInfo, mask FieldMask) error {
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
from mutagen.oggvorbis import OggVorbis
from mutagen.oggopus import OggOpus

try:
    # Try OggVorbis first (for .ogg files)
    try:
        audio = OggVorbis(sys.argv[1])
    except Exception:
        audio = OggOpus(sys.argv[1])
`
	if mask.Title {
		script += fmt.Sprintf("    audio['TITLE'] = [%q]\n", info.Title)
	}
	if mask.Artist {
		script += fmt.Sprintf("    audio['ARTIST'] = [%q]\n", info.Artist)
	}
	if mask.Album && info.Album != "" {
		script += fmt.Sprintf("    audio['ALBUM'] = [%q]\n", info.Album)
	}
	if info.AlbumArtist != "" {
		script += fmt.Sprintf("    audio['ALBUMARTIST'] = [%q]\n", info.AlbumArtist)
	}
	if info.TrackNumber > 0 {
		script += fmt.Sprintf("    audio['TRACKNUMBER'] = [%q]\n", fmt.Sprintf("%d", info.TrackNumber))
	}
	if info.Year > 0 {
		script += fmt.Sprintf("    audio['DATE'] = [%q]\n", fmt.Sprintf("%d", info.Year))
	}
	script += `
    audio.save()
    sys.exit(0)
except Exception as e:
    print(f"Error: {e}", file=sys.stderr)
    sys.exit(1)
`

	return e.runMutagen(ctx, filePath, script, "OGG/Opus")
}
