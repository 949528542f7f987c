package sample

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// probeResult represents the parsed output from an ffprobe inspection.
type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

// probeStream describes a single stream in the media container.
type probeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// probeFormat captures container-level metadata extracted by ffprobe.
type probeFormat struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Probe executes ffprobe against the provided path and returns the container
// duration in seconds. A zero duration with nil error means the container did
// not report one.
func (p *Provider) Probe(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.config.FFprobePath,
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-of", "json",
		"--", path,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, &ProbeError{
			Message:  fmt.Sprintf("ffprobe failed for %s: %s", path, strings.TrimSpace(string(output))),
			Original: err,
		}
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, &ProbeError{
			Message:  fmt.Sprintf("Failed to parse ffprobe output for %s", path),
			Original: err,
		}
	}

	if d := parseSeconds(result.Format.Duration); d > 0 {
		return d, nil
	}

	// Containers without a format duration sometimes report it per stream
	for _, stream := range result.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			if d := parseSeconds(stream.Duration); d > 0 {
				return d, nil
			}
		}
	}

	return 0, nil
}

func parseSeconds(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || parsed < 0 {
		return 0
	}
	return parsed
}
