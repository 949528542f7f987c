package acoustid

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Fingerprint holds the output of an fpcalc run over one clip.
type Fingerprint struct {
	Duration    float64 `json:"duration"`
	Fingerprint string  `json:"fingerprint"`
}

// Chromaprint wraps the chromaprint fpcalc binary. All fingerprint math lives
// inside the binary; this wrapper only runs it and parses its JSON output.
type Chromaprint struct {
	binary string
}

// NewChromaprint creates a wrapper around the given fpcalc binary.
func NewChromaprint(binary string) *Chromaprint {
	if binary == "" {
		binary = "fpcalc"
	}
	return &Chromaprint{binary: binary}
}

// IsAvailable reports whether the fpcalc binary can be resolved.
func (c *Chromaprint) IsAvailable() bool {
	_, err := exec.LookPath(c.binary)
	return err == nil
}

// Generate computes the fingerprint of the audio file at path.
func (c *Chromaprint) Generate(ctx context.Context, path string) (*Fingerprint, error) {
	cmd := exec.CommandContext(ctx, c.binary, "-json", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FingerprintError{
			Message:  fmt.Sprintf("fpcalc failed for %s: %s", path, strings.TrimSpace(string(output))),
			Original: err,
		}
	}

	fp, err := parseFingerprintOutput(output)
	if err != nil {
		return nil, &FingerprintError{
			Message:  fmt.Sprintf("Bad fpcalc output for %s", path),
			Original: err,
		}
	}

	return fp, nil
}

// parseFingerprintOutput decodes fpcalc -json output.
func parseFingerprintOutput(output []byte) (*Fingerprint, error) {
	var fp Fingerprint
	if err := json.Unmarshal(output, &fp); err != nil {
		return nil, err
	}
	if fp.Fingerprint == "" {
		return nil, fmt.Errorf("empty fingerprint")
	}
	if fp.Duration <= 0 {
		return nil, fmt.Errorf("missing duration")
	}
	return &fp, nil
}
