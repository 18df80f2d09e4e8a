package model

import "time"

// Client mirrors the `clients` table: the organizations and individuals
// that submit samples to the laboratory.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the client.
//  Document  – fiscal/registration document number (unique).
//  Email     – contact email.
//  Phone     – contact phone, optional.
//  IsActive  – soft-delete flag.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Client struct {
	ID        uint64
	Name      string
	Document  string
	Email     string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
