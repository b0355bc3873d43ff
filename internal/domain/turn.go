package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role identifies who produced a turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn kinds.
const (
	KindText  = "text"
	KindChart = "chart"
)

// Turn is a single persisted message within a session. Turns are append-only:
// once written they are never mutated, and they replay in creation order.
type Turn struct {
	SessionID string
	Role      string
	Kind      string
	Text      string
	Chart     *ChartPayload
	CreatedAt time.Time
}

// TextTurn builds a text turn.
func TextTurn(role, text string) Turn {
	return Turn{Role: role, Kind: KindText, Text: text}
}

// ChartTurn builds an assistant chart turn.
func ChartTurn(chart ChartPayload) Turn {
	return Turn{Role: RoleAssistant, Kind: KindChart, Chart: &chart}
}

// turnWire is the serialized turn record: the content field carries either
// the raw text or the chart object depending on kind. This shape is the wire
// contract for history replay.
type turnWire struct {
	SessionID string          `json:"sessionId"`
	Role      string          `json:"role"`
	Kind      string          `json:"kind"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"createdAt"`
}

// MarshalJSON renders the turn in its wire shape.
func (t Turn) MarshalJSON() ([]byte, error) {
	var content json.RawMessage
	var err error
	switch t.Kind {
	case KindChart:
		if t.Chart == nil {
			return nil, fmt.Errorf("chart turn without payload")
		}
		content, err = json.Marshal(t.Chart)
	default:
		content, err = json.Marshal(t.Text)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(turnWire{
		SessionID: t.SessionID,
		Role:      t.Role,
		Kind:      t.Kind,
		Content:   content,
		CreatedAt: t.CreatedAt,
	})
}

// UnmarshalJSON parses the wire shape back into a Turn.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var w turnWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.SessionID = w.SessionID
	t.Role = w.Role
	t.Kind = w.Kind
	t.CreatedAt = w.CreatedAt
	if w.Kind == KindChart {
		var chart ChartPayload
		if err := json.Unmarshal(w.Content, &chart); err != nil {
			return err
		}
		t.Chart = &chart
		return nil
	}
	return json.Unmarshal(w.Content, &t.Text)
}
