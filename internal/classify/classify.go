// Package classify decides whether a raw completion is a chart payload or
// plain text.
package classify

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/Allen20077/8berries/internal/domain"
)

// candidate mirrors the chart wire shape with pointer slices so a literal
// JSON null (or an absent field) is distinguishable from an empty array.
type candidate struct {
	ChartType string     `json:"chartType"`
	Title     string     `json:"title"`
	Labels    *[]string  `json:"labels"`
	Data      *[]float64 `json:"data"`
}

// Classify interprets raw model output as either a chart or plain text.
// The whole trimmed string must decode as a single JSON object carrying a
// known chart kind and equal-length, non-null label/value arrays; any decode
// or validation failure falls back to a Text reply holding the original raw
// string. Classify never returns an error: decoding failure is the expected
// path for ordinary prose replies.
func Classify(raw string) domain.Reply {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return domain.TextReply(raw)
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	var c candidate
	if err := dec.Decode(&c); err != nil {
		return domain.TextReply(raw)
	}
	// Trailing content after the object means the reply was prose that
	// merely started with JSON.
	if _, err := dec.Token(); err != io.EOF {
		return domain.TextReply(raw)
	}

	kind := domain.ChartKind(c.ChartType)
	if !kind.Valid() || c.Labels == nil || c.Data == nil || len(*c.Labels) != len(*c.Data) {
		return domain.TextReply(raw)
	}

	return domain.ChartReply(domain.ChartPayload{
		ChartType: kind,
		Title:     c.Title,
		Labels:    *c.Labels,
		Data:      *c.Data,
	})
}
