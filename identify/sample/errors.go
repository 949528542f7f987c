package sample

import "fmt"

// ProbeError represents a failure to inspect an audio file.
type ProbeError struct {
	Message  string
	Original error
}

func (e *ProbeError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("Probe error: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("Probe error: %s", e.Message)
}

func (e *ProbeError) Unwrap() error {
	return e.Original
}

// TranscodeError represents a failure to extract a clip from an audio file.
type TranscodeError struct {
	Message  string
	Original error
}

func (e *TranscodeError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("Transcode error: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("Transcode error: %s", e.Message)
}

func (e *TranscodeError) Unwrap() error {
	return e.Original
}
