package model

import "time"

// Session models a row in the `sessions` table. One row is created per
// successful login. The raw access token is never stored; only its SHA-256
// hex digest, which doubles as the lookup key on logout.
//
// A row is authoritative only until ExpiresAt, independently of the token's
// own embedded expiry; both are checked by their respective consumers.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  TokenHash – SHA-256 hex digest of the issued token (unique).
//  IP        – client address at login time.
//  UserAgent – client user-agent string at login time.
//  ExpiresAt – absolute expiry (issue time + token TTL).
//  CreatedAt – timestamp of creation.
type Session struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	IP        string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}
