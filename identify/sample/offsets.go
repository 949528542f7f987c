package sample

// fallbackOffsets is used when the file duration cannot be probed.
var fallbackOffsets = []int{0, 30, 60, 90, 120, 150, 180, 210, 240, 270}

// PlanOffsets returns up to count start offsets (seconds) for clip extraction.
// Offsets are spread evenly between 10% and 90% of the track so that lead-in
// and fade-out silence is avoided. A single attempt samples the 30% point.
// When duration is unknown or shorter than one clip, fixed fallbacks apply.
func PlanOffsets(duration float64, clipSeconds, count int) []int {
	if count < 1 {
		count = 1
	}

	if duration <= 0 {
		return fallbackOffsets[:min(count, len(fallbackOffsets))]
	}

	if duration <= float64(clipSeconds) {
		// Track shorter than one clip: a single pass from the start
		return []int{0}
	}

	if count == 1 {
		return []int{int(duration * 0.3)}
	}

	const padding = 0.1
	effective := duration * (1 - 2*padding)
	interval := effective / float64(count-1)

	offsets := make([]int, 0, count)
	last := -1
	for i := 0; i < count; i++ {
		off := int(duration*padding + float64(i)*interval)
		// Clamp so the clip window stays inside the track
		if maxStart := int(duration) - clipSeconds; off > maxStart {
			off = maxStart
		}
		if off < 0 {
			off = 0
		}
		if off == last {
			continue
		}
		offsets = append(offsets, off)
		last = off
	}
	return offsets
}
