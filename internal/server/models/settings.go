package models

import "time"

// Settings is the singleton configuration row.
type Settings struct {
	SignupPassphraseDigest string
	MaxProfessors          int
	MaxClassesPerProfessor int
	UpdatedAt              time.Time
}
