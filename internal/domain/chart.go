package domain

import "encoding/json"

// ChartKind is the fixed set of chart shapes the frontend can render.
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
	ChartPie  ChartKind = "pie"
)

// Valid reports whether k is one of the renderable chart kinds.
func (k ChartKind) Valid() bool {
	switch k {
	case ChartBar, ChartLine, ChartPie:
		return true
	}
	return false
}

// ChartPayload is a structured assistant reply describing one chart.
// Labels and Data are parallel sequences; both may be empty (an empty chart
// renders as "no data") but must be the same length.
type ChartPayload struct {
	ChartType ChartKind `json:"chartType"`
	Title     string    `json:"title"`
	Labels    []string  `json:"labels"`
	Data      []float64 `json:"data"`
}

// Reply is the classified outcome of one exchange: either plain text or a
// validated chart.
type Reply struct {
	Kind  string
	Text  string
	Chart *ChartPayload
}

// TextReply wraps raw text in a Reply.
func TextReply(text string) Reply {
	return Reply{Kind: KindText, Text: text}
}

// ChartReply wraps a validated chart payload in a Reply.
func ChartReply(chart ChartPayload) Reply {
	return Reply{Kind: KindChart, Chart: &chart}
}

// MarshalJSON renders a text reply as a bare JSON string and a chart reply
// as the chart object, matching what the frontend expects in "reply".
func (r Reply) MarshalJSON() ([]byte, error) {
	if r.Kind == KindChart && r.Chart != nil {
		return json.Marshal(r.Chart)
	}
	return json.Marshal(r.Text)
}
