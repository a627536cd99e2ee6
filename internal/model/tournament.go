package model

import "fmt"

// Tournament is one row of the tournaments table. Data holds the free-form
// JSON payload; the typed columns may be empty when the value only lives there.
type Tournament struct {
	ID          int64
	Name        string
	Contract    string
	Status      string
	IsFinalized bool
	EndAt       string
	End         string
	EndTime     string
	Data        map[string]any
}

// AlphaID returns the alpha token id the tournament tracks.
func (t Tournament) AlphaID() string {
	return t.DataString("alphaId")
}

// StatusLabel returns ai_prediction.status_label.
func (t Tournament) StatusLabel() string {
	pred, ok := t.Data["ai_prediction"].(map[string]any)
	if !ok {
		return ""
	}
	label, _ := pred["status_label"].(string)
	return label
}

// Column returns the row column value when set, falling back to the payload key.
func (t Tournament) Column(column, key string) string {
	if column != "" {
		return column
	}
	return t.DataString(key)
}

// DataString returns a payload field as a string.
func (t Tournament) DataString(key string) string {
	switch v := t.Data[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// DataBool returns a payload field as a bool.
func (t Tournament) DataBool(key string) bool {
	v, _ := t.Data[key].(bool)
	return v
}

// BaseVolume is the exported base volume of one active tournament.
type BaseVolume struct {
	BaseTotalVol float64       `json:"base_total_vol"`
	BaseLimitVol float64       `json:"base_limit_vol"`
	HistoryTotal []DailyVolume `json:"history_total"`
	HistoryLimit []DailyVolume `json:"history_limit"`
	StartTS      int64         `json:"start_ts"`
}

// DailyVolume is the volume of one UTC day.
type DailyVolume struct {
	Date string  `json:"date"`
	Vol  float64 `json:"vol"`
}
