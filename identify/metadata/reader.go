package metadata

import (
	"os"

	"github.com/dhowden/tag"
)

// Existing holds the tag fields already present in a file.
type Existing struct {
	Title  string
	Artist string
	Album  string
}

// ReadTags reads the current tags from an audio file. A file without a tag
// container returns empty fields, not an error.
func ReadTags(path string) (*Existing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MetadataError{
			Message:  "Failed to open file for tag read",
			Original: err,
		}
	}
	defer func() { _ = f.Close() }()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// No tag container yet is a normal state for unidentified files
		return &Existing{}, nil
	}

	return &Existing{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
	}, nil
}
