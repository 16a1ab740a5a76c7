package models

type Scan struct {
	ID  int64  `json:"id"`  // Primary key
	UID string `json:"uid"` // FK to cards(uid)
	TS  string `json:"ts"`  // Local time, "YYYY-MM-DD HH:MM:SS"
}

// GateDecision is the outcome of presenting a card at the gate.
type GateDecision struct {
	UID        string `json:"uid"`
	Scan       *Scan  `json:"scan,omitempty"`
	NewCard    bool   `json:"new_card"`
	TodayCount int    `json:"today_count"`
	Limit      int    `json:"limit"`
	Allowed    bool   `json:"allowed"`
	Debounced  bool   `json:"debounced"`
}
