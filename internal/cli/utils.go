// Package cli provides output formatting for the kotae command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/kotae/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat maps a --output flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteChatResponse writes a chat answer and its sources to w.
func WriteChatResponse(w io.Writer, resp *models.ChatResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "%s\n", resp.Response)
	if resp.Fallback {
		fmt.Fprintln(w, "\n(fallback response: LLM backend unavailable)")
	}
	if len(resp.Sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for i, src := range resp.Sources {
			fmt.Fprintf(w, "  [%d] (%.4f) %s\n", i+1, src.Score, Truncate(src.Content, 120))
		}
	}
	return nil
}

// WriteSearchResults writes search hits to w.
func WriteSearchResults(w io.Writer, resp *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", resp.Total, resp.QueryTime)
	for i, result := range resp.Results {
		fmt.Fprintf(w, "[%d] Score: %.4f | ID: %s\n", i+1, result.Score, result.Document.ID)
		fmt.Fprintf(w, "%s\n\n", Truncate(result.Document.Content, 200))
	}
	return nil
}

// WriteStats writes store statistics to w.
func WriteStats(w io.Writer, stats *models.Stats, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, stats)
	}
	fmt.Fprintf(w, "status:               %s\n", stats.Status)
	fmt.Fprintf(w, "documents:            %d\n", stats.Documents)
	fmt.Fprintf(w, "embedding_model:      %s\n", stats.EmbeddingModel)
	fmt.Fprintf(w, "embedding_dimensions: %d\n", stats.EmbeddingDimensions)
	if stats.Location != "" {
		fmt.Fprintf(w, "location:             %s\n", stats.Location)
	}
	if stats.Error != "" {
		fmt.Fprintf(w, "error:                %s\n", stats.Error)
	}
	return nil
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
