package model

// Snapshot is one run's published output.
type Snapshot struct {
	Meta SnapshotMeta      `json:"meta"`
	Data []CanonicalRecord `json:"data"`
}

// SnapshotMeta describes a snapshot.
type SnapshotMeta struct {
	UpdatedAt string `json:"u"`
	Total     int    `json:"t"`
	Label     string `json:"c"`
}

// PriorSnapshot is the read-only view of the previous run's records keyed by id.
type PriorSnapshot struct {
	records map[string]CanonicalRecord
}

// NewPriorSnapshot indexes records by id. Records without an id are ignored;
// when ids repeat the last one wins.
func NewPriorSnapshot(records []CanonicalRecord) PriorSnapshot {
	index := make(map[string]CanonicalRecord, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		index[rec.ID] = rec
	}
	return PriorSnapshot{records: index}
}

// Lookup returns the prior record for id.
func (p PriorSnapshot) Lookup(id string) (CanonicalRecord, bool) {
	rec, ok := p.records[id]
	return rec, ok
}

// Status returns the last published status for id, or StatusUnknown.
func (p PriorSnapshot) Status(id string) LifecycleStatus {
	return p.records[id].Status
}

// Chart returns the last published chart for id.
func (p PriorSnapshot) Chart(id string) []ChartPoint {
	return p.records[id].Chart
}

// Len returns the number of indexed records.
func (p PriorSnapshot) Len() int {
	return len(p.records)
}
