package enrich

import "fmt"

// EnrichError represents a metadata enrichment error.
type EnrichError struct {
	Message  string
	Original error
}

func (e *EnrichError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("Enrich error: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("Enrich error: %s", e.Message)
}

func (e *EnrichError) Unwrap() error {
	return e.Original
}
