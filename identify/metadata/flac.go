package metadata

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

// embedFLAC writes metadata into a FLAC's Vorbis comment block. Fields
// outside the mask are copied over from the existing block.
func (e *Embedder) embedFLAC(ctx context.Context, filePath string, info *TrackInfo, mask FieldMask) error {
	if err := ctx.Err(); err != nil {
		return &MetadataError{
			Message:  fmt.Sprintf("Context cancelled: %v", err),
			Original: err,
		}
	}

	f, err := flac.ParseFile(filePath)
	if err != nil {
		return &MetadataError{
			Message:  fmt.Sprintf("Failed to parse FLAC file: %s", filePath),
			Original: err,
		}
	}

	cmtIdx := -1
	var existing *flacvorbis.MetaDataBlockVorbisComment
	for idx, block := range f.Meta {
		if block.Type == flac.VorbisComment {
			cmtIdx = idx
			existing, err = flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				existing = nil
			}
			break
		}
	}

	cmt := flacvorbis.New()

	// Carry over comments for fields we are not rewriting
	replaced := replacedFields(info, mask)
	if existing != nil {
		for _, comment := range existing.Comments {
			parts := strings.SplitN(comment, "=", 2)
			if len(parts) != 2 {
				continue
			}
			if _, drop := replaced[strings.ToUpper(parts[0])]; !drop {
				_ = cmt.Add(parts[0], parts[1])
			}
		}
	}

	if mask.Title {
		_ = cmt.Add(flacvorbis.FIELD_TITLE, info.Title)
	}
	if mask.Artist {
		_ = cmt.Add(flacvorbis.FIELD_ARTIST, info.Artist)
	}
	if mask.Album && info.Album != "" {
		_ = cmt.Add(flacvorbis.FIELD_ALBUM, info.Album)
	}
	if info.AlbumArtist != "" {
		_ = cmt.Add("ALBUMARTIST", info.AlbumArtist)
	}
	if info.TrackNumber > 0 {
		_ = cmt.Add(flacvorbis.FIELD_TRACKNUMBER, strconv.Itoa(info.TrackNumber))
	}
	if info.Year > 0 {
		_ = cmt.Add(flacvorbis.FIELD_DATE, strconv.Itoa(info.Year))
	}

	cmtBlock := cmt.Marshal()
	if cmtIdx < 0 {
		f.Meta = append(f.Meta, &cmtBlock)
	} else {
		f.Meta[cmtIdx] = &cmtBlock
	}

	if info.CoverURL != "" {
		if err := e.embedCoverFLAC(ctx, f, info.CoverURL); err != nil {
			log.Printf("WARN: cover_art_download_failed file=%s cover_url=%s error=%v", filePath, info.CoverURL, err)
		}
	}

	if err := f.Save(filePath); err != nil {
		log.Printf("ERROR: metadata_save_failed file=%s error=%v", filePath, err)
		return &MetadataError{
			Message:  "Failed to save FLAC metadata",
			Original: err,
		}
	}

	return nil
}

// replacedFields lists the comment field names the masked write supersedes.
// Track number and date ride along whenever the lookup recovered them.
func replacedFields(info *TrackInfo, mask FieldMask) map[string]struct{} {
	replaced := make(map[string]struct{})
	if mask.Title {
		replaced[flacvorbis.FIELD_TITLE] = struct{}{}
	}
	if mask.Artist {
		replaced[flacvorbis.FIELD_ARTIST] = struct{}{}
	}
	if mask.Album && info.Album != "" {
		replaced[flacvorbis.FIELD_ALBUM] = struct{}{}
	}
	if info.AlbumArtist != "" {
		replaced["ALBUMARTIST"] = struct{}{}
	}
	if info.TrackNumber > 0 {
		replaced[flacvorbis.FIELD_TRACKNUMBER] = struct{}{}
	}
	if info.Year > 0 {
		replaced[flacvorbis.FIELD_DATE] = struct{}{}
	}
	return replaced
}

// embedCoverFLAC replaces the picture block with downloaded cover art.
func (e *Embedder) embedCoverFLAC(ctx context.Context, f *flac.File, coverURL string) error {
	coverData, mimeType, err := e.fetchCoverData(ctx, coverURL)
	if err != nil {
		return err
	}

	picture, err := flacpicture.NewFromImageData(
		flacpicture.PictureTypeFrontCover,
		"Cover",
		coverData,
		mimeType,
	)
	if err != nil {
		return fmt.Errorf("failed to create picture block: %w", err)
	}

	pictureBlock := picture.Marshal()

	for i := len(f.Meta) - 1; i >= 0; i-- {
		if f.Meta[i].Type == flac.Picture {
			f.Meta = append(f.Meta[:i], f.Meta[i+1:]...)
		}
	}

	f.Meta = append(f.Meta, &pictureBlock)

	return nil
}
