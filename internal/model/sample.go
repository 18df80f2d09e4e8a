package model

import "time"

// SampleStatus is the closed set of workflow states for a sample.
type SampleStatus string

const (
	SampleReceived   SampleStatus = "RECEIVED"
	SampleInAnalysis SampleStatus = "IN_ANALYSIS"
	SampleFinished   SampleStatus = "FINISHED"
	SampleCancelled  SampleStatus = "CANCELLED"
)

// Valid reports whether s is a known sample status.
func (s SampleStatus) Valid() bool {
	switch s {
	case SampleReceived, SampleInAnalysis, SampleFinished, SampleCancelled:
		return true
	}
	return false
}

// Sample mirrors the `samples` table: one physical specimen received for
// analysis, always owned by a client.
//
// Fields:
//  ID          – primary key identifier.
//  ClientID    – owning client.
//  Code        – laboratory code printed on the label (unique).
//  Description – free-text description of the specimen.
//  Matrix      – sample matrix (water, soil, effluent, ...).
//  CollectedAt – when the specimen was collected in the field.
//  ReceivedAt  – when the laboratory received it.
//  Status      – workflow state.
//  CreatedBy   – user that registered the sample.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Sample struct {
	ID          uint64
	ClientID    uint64
	Code        string
	Description string
	Matrix      string
	CollectedAt time.Time
	ReceivedAt  time.Time
	Status      SampleStatus
	CreatedBy   uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
