package metadata

import (
	"context"
	"fmt"
	"log"

	"github.com/bogem/id3v2/v2"
)

// embedMP3 writes metadata into an MP3's ID3v2 tag.
func (e *Embedder) embedMP3(ctx context.Context, filePath string, info *TrackInfo, mask FieldMask) error {
	if err := ctx.Err(); err != nil {
		return &MetadataError{
			Message:  fmt.Sprintf("Context cancelled: %v", err),
			Original: err,
		}
	}

	// Open or create ID3 tag
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		// If file doesn't have an ID3 tag, create a new one
		tag, err = id3v2.Open(filePath, id3v2.Options{Parse: false})
		if err != nil {
			return &MetadataError{
				Message:  fmt.Sprintf("Failed to open MP3 file: %s", filePath),
				Original: err,
			}
		}
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	if mask.Title {
		tag.SetTitle(info.Title)
	}
	if mask.Artist {
		tag.SetArtist(info.Artist)
	}
	if mask.Album && info.Album != "" {
		tag.SetAlbum(info.Album)
	}

	if info.AlbumArtist != "" {
		tag.AddTextFrame(tag.CommonID("TPE2"), id3v2.EncodingUTF8, info.AlbumArtist)
	}
	if info.TrackNumber > 0 {
		tag.AddTextFrame(tag.CommonID("TRCK"), id3v2.EncodingUTF8, fmt.Sprintf("%d", info.TrackNumber))
	}
	if info.Year > 0 {
		tag.AddTextFrame(tag.CommonID("TYER"), id3v2.EncodingUTF8, fmt.Sprintf("%d", info.Year))
	}
	if info.SpotifyURL != "" {
		tag.AddTextFrame(tag.CommonID("WOAS"), id3v2.EncodingUTF8, info.SpotifyURL)
	}

	if info.CoverURL != "" {
		if err := e.embedCoverMP3(ctx, tag, info.CoverURL); err != nil {
			log.Printf("WARN: cover_art_download_failed file=%s cover_url=%s error=%v", filePath, info.CoverURL, err)
		}
	}

	if err := tag.Save(); err != nil {
		log.Printf("ERROR: metadata_save_failed file=%s error=%v", filePath, err)
		return &MetadataError{
			Message:  "Failed to save MP3 metadata",
			Original: err,
		}
	}

	return nil
}

// embedCoverMP3 embeds cover art in an MP3 file.
func (e *Embedder) embedCoverMP3(ctx context.Context, tag *id3v2.Tag, coverURL string) error {
	coverData, mimeType, err := e.fetchCoverData(ctx, coverURL)
	if err != nil {
		return err
	}

	// Remove existing cover art
	tag.DeleteFrames(tag.CommonID("APIC"))

	pic := id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    mimeType,
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     coverData,
	}
	tag.AddAttachedPicture(pic)

	return nil
}
