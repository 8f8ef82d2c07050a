package model

import "time"

// AnalysisRecord mirrors the 'analyses' table. The AI payloads are
// opaque JSON blobs produced by the external model; this service only
// stores and returns them.
type AnalysisRecord struct {
	ID          uint64
	PatientID   uint64
	PatientData string // JSON snapshot of the patient at analysis time
	FinalReport string // JSON report returned by the AI layer
	CreatedBy   *uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
