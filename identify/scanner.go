package identify

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// supportedExtensions are the audio containers worth fingerprinting. Formats
// without a writable tag container still identify; the embedder warns on
// them at write time.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
	".ape":  true,
}

// IsSupported reports whether a path has a recognized audio extension.
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Scan expands the given paths into a sorted list of audio files.
// Directories are walked recursively; explicit file arguments must exist and
// have a supported extension.
func Scan(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}

		if !info.IsDir() {
			if !IsSupported(path) {
				return nil, fmt.Errorf("unsupported file type: %s", path)
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !IsSupported(p) {
				return nil
			}
			if !seen[p] {
				seen[p] = true
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", path, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
