package model

import "time"

// ParameterMethod mirrors the `parameter_methods` table: one analytical
// method for measuring a parameter (e.g. "pH — SMWW 4500-H+ B").
//
// Fields:
//  ID        – primary key identifier.
//  Name      – parameter name plus method reference (unique).
//  Technique – analytical technique (potentiometry, ICP-MS, ...).
//  Unit      – reporting unit (mg/L, NTU, ...).
//  LOQ       – limit of quantification in the reporting unit.
//  IsActive  – soft-delete flag.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type ParameterMethod struct {
	ID        uint64
	Name      string
	Technique string
	Unit      string
	LOQ       float64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
