package api

import (
	"encoding/json"
	"fmt"
)

// EventType discriminates records on the ensemble channel.
type EventType string

const (
	EventStatus    EventType = "status"
	EventGenerator EventType = "generator"
	EventEvaluator EventType = "evaluator"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// Status values carried by generator and evaluator events.
const (
	StatusStreaming = "streaming"
	StatusComplete  = "complete"
)

// Event is one record of the multiplexed ensemble channel. Which fields are
// set depends on Type:
//
//   - status: Message
//   - generator: Model, Status, Output, optionally DurationMs and Usage
//   - evaluator: Status, Chunk or Accumulated
//   - done: Result, Usage, Timing
//   - error: Model (when one source failed), Message
type Event struct {
	Type        EventType `json:"type"`
	Message     string    `json:"message,omitempty"`
	Model       string    `json:"model,omitempty"`
	Status      string    `json:"status,omitempty"`
	Output      string    `json:"output,omitempty"`
	Chunk       string    `json:"chunk,omitempty"`
	Accumulated *string   `json:"accumulated,omitempty"`
	DurationMs  *int64    `json:"durationMs,omitempty"`
	Result      string    `json:"result,omitempty"`
	Usage       *Usage    `json:"usage,omitempty"`
	Timing      *Timing   `json:"timing,omitempty"`
}

// TokenUsage counts model tokens for one source.
type TokenUsage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
}

// Usage reports token usage per source and for the evaluator. On generator
// events only Sources[Model] is meaningful.
type Usage struct {
	Sources   map[string]TokenUsage `json:"sources,omitempty"`
	Evaluator *TokenUsage           `json:"evaluator,omitempty"`
}

// Timing is the service-reported timing carried by a done event.
type Timing struct {
	PerSourceMs map[string]int64 `json:"perSourceMs,omitempty"`
	MergeMs     int64            `json:"mergeMs,omitempty"`
	TotalMs     int64            `json:"totalMs,omitempty"`
}

// ParseEvent decodes one event record. A record without a type is an error.
func ParseEvent(data []byte) (*Event, error) {
	ev := &Event{}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, err
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("event without type: %.80s", data)
	}
	return ev, nil
}
