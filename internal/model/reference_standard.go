package model

import "time"

// ReferenceStandard mirrors the `reference_standards` table: a regulatory
// or normative document (e.g. a potability ordinance) whose rules samples
// are evaluated against.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – short name of the standard (unique).
//  Authority – issuing body.
//  IsActive  – soft-delete flag.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type ReferenceStandard struct {
	ID        uint64
	Name      string
	Authority string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StandardRule mirrors the `standard_rules` table: one limit that a
// reference standard imposes on a parameter. Rules are only ever replaced
// as a whole set, atomically, so readers never observe a standard with a
// partially written rule list.
//
// Fields:
//  ID         – primary key identifier.
//  StandardID – owning reference standard.
//  Parameter  – parameter name the limit applies to.
//  MaxValue   – maximum admissible value.
//  Unit       – unit of MaxValue.
type StandardRule struct {
	ID         uint64
	StandardID uint64
	Parameter  string
	MaxValue   float64
	Unit       string
}
