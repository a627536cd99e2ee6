package model

// Decision records how one token's status was resolved during a run.
type Decision struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	PriorStatus LifecycleStatus `json:"prior_status"`
	Tentative   LifecycleStatus `json:"tentative_status"`
	Final       LifecycleStatus `json:"final_status"`
	LimitCheck  bool            `json:"limit_check"`
	Fetched     bool            `json:"fetched"`
	Error       string          `json:"error,omitempty"`
	DecidedAt   string          `json:"decided_at"`
}
