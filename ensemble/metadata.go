package ensemble

import (
	"maps"

	"github.com/signadot/uistream/api"
)

// SourceState is the progress of one source or of the merge.
type SourceState string

const (
	Pending   SourceState = "pending"
	Streaming SourceState = "streaming"
	Complete  SourceState = "complete"
)

// SourceMeta describes one generation source.
type SourceMeta struct {
	State      SourceState     `json:"state"`
	DurationMs int64           `json:"durationMs,omitempty"`
	Usage      *api.TokenUsage `json:"usage,omitempty"`
}

// Metadata is the aggregate progress of a run. Each value published to
// watchers is an independent copy.
type Metadata struct {
	RunID   string                `json:"runId"`
	Status  string                `json:"status,omitempty"`
	Sources map[string]SourceMeta `json:"sources"`
	Merge   SourceState           `json:"merge"`
	MergeMs int64                 `json:"mergeMs,omitempty"`
	TotalMs int64                 `json:"totalMs,omitempty"`
	Usage   *api.Usage            `json:"usage,omitempty"`
	Done    bool                  `json:"done"`
}

func (m *Metadata) clone() *Metadata {
	out := *m
	out.Sources = maps.Clone(m.Sources)
	return &out
}
