// Package storage persists snapshots, tail tables and exports in an object
// bucket, and keeps a local JSONL audit trail of reconciliation decisions.
package storage

import (
	"context"
	"time"

	"alphaScope/internal/model"
)

// SnapshotStore reads the previous snapshot and publishes new outputs.
type SnapshotStore interface {
	LoadPrior(ctx context.Context) (model.PriorSnapshot, error)
	PublishSnapshot(ctx context.Context, snapshot model.Snapshot, day time.Time) error
	PublishTails(ctx context.Context, tails model.TailTable) error
	Close() error
}

// ObjectWriter uploads arbitrary JSON documents.
type ObjectWriter interface {
	PutJSON(ctx context.Context, key string, value any, cacheControl string) error
}

// DecisionSink records reconciliation decisions.
type DecisionSink interface {
	PutDecisions(decisions []model.Decision) error
}
