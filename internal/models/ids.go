package models

// AccountID identifies an authentication account. It is deliberately a
// distinct type from ProfileID: the two have been mixed up across layers
// before, and the compiler is the cheapest place to catch that.
type AccountID int64

// ProfileID identifies a family profile (one person who can be the active
// persona of a session).
type ProfileID int64

// AlumniRecordID identifies an imported alumni source record.
type AlumniRecordID int64
