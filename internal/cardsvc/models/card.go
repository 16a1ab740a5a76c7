package models

// Card is an RFID badge known to the gate.
type Card struct {
	UID       string `json:"uid"`        // Primary key, as read from the reader
	CreatedAt string `json:"created_at"` // Local time, "YYYY-MM-DD HH:MM:SS"
}
