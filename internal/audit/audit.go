package audit

import (
	"context"
	"time"
)

// Entry describes one committed mutation. Before and After are plain
// value snapshots; Before is taken at load time so it never aliases the
// instance the mutation modifies.
type Entry struct {
	Entity   string    `json:"entity"`
	EntityID string    `json:"entity_id"`
	Op       string    `json:"op"`
	Before   any       `json:"before,omitempty"`
	After    any       `json:"after,omitempty"`
	At       time.Time `json:"at"`
}

// Recorder is called by stores after every successful write.
// Recording is best effort and must never fail the mutation.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

type Nop struct{}

func (Nop) Record(context.Context, Entry) {}
