package model

// MinutesPerDay is the length of every tail.
const MinutesPerDay = 1440

// TailTable holds the per-minute reverse cumulative volume of each token for one day.
type TailTable struct {
	Total map[string][]float64 `json:"total"`
	Limit map[string][]float64 `json:"limit"`
}

// NewTailTable returns an empty table.
func NewTailTable() TailTable {
	return TailTable{
		Total: make(map[string][]float64),
		Limit: make(map[string][]float64),
	}
}
