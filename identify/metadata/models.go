package metadata

// TrackInfo represents recovered track metadata.
type TrackInfo struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	TrackNumber int
	Year        int
	CoverURL    string
	SpotifyURL  string
}

// FieldMask selects which tag fields get written. Fields outside the mask
// are left untouched in the file.
type FieldMask struct {
	Title  bool
	Artist bool
	Album  bool
}

// Empty reports whether no fields are selected.
func (m FieldMask) Empty() bool {
	return !m.Title && !m.Artist && !m.Album
}
