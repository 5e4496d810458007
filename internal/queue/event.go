// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the log-writing consumer.
package queue

// SeatingSavedQueue is the durable queue carrying SeatingSavedEvent.
const SeatingSavedQueue = "seating.saved"

// SeatingSavedEvent is published after an arrangement is appended to a
// classroom's history.  It carries enough for consumers to log or notify
// without reading the snapshot back from the database.
type SeatingSavedEvent struct {
    RecordID   uint64 `json:"record_id"`
    ClassID    uint64 `json:"class_id"`
    UserID     uint64 `json:"user_id"`
    RecordName string `json:"record_name"`
    Rows       int    `json:"rows"`
    Cols       int    `json:"cols"`
    Occupied   int    `json:"occupied"`
    SavedAt    string `json:"saved_at"` // RFC3339, UTC
}
