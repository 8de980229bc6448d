// Package cli provides output formatting for regvec commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/hyperjump/regvec/internal/loader"
	"github.com/hyperjump/regvec/internal/models"
	"github.com/hyperjump/regvec/internal/vectorstore"
	"github.com/hyperjump/regvec/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, json)", s)
	}
}

// WriteHit writes a query hit to w. A nil hit writes nothing in text mode and null in JSON mode.
func WriteHit(w io.Writer, hit *models.Hit, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, hit)
	}
	if hit == nil {
		return nil
	}
	fmt.Fprintf(w, "id: %d\n", hit.ID)
	fmt.Fprintf(w, "score: %.4f\n", hit.Score)
	fmt.Fprintf(w, "text: %s\n", hit.Text)
	keys := make([]string, 0, len(hit.Payload))
	for k := range hit.Payload {
		if k != vectorstore.PayloadText {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", k, hit.Payload[k])
	}
	return nil
}

// WriteCollections writes collection names with point counts.
func WriteCollections(w io.Writer, infos []models.CollectionInfo, format OutputFormat) error {
	if format == OutputJSON {
		if infos == nil {
			infos = []models.CollectionInfo{}
		}
		return writeJSON(w, infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(w, "No collections.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPOINTS")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\n", info.Name, info.Points)
	}
	return tw.Flush()
}

// WriteLoadResult writes a one-line summary of a completed load, or the full result as JSON.
func WriteLoadResult(w io.Writer, res *loader.LoadResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "Loaded %d chunks from %s into %s\n", res.Chunks, utils.Truncate(res.Source, 120), res.Collection)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
