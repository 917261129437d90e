// Package models defines server-side data models persisted in the database.
package models

import "time"

// Class is owned by exactly one professor.
type Class struct {
	ID          int64
	Name        string
	ProfessorID int64
	CreatedAt   time.Time
	Chapters    []*Chapter
}

// Chapter numbers are unique within a class; 1 and 2 are permanent.
type Chapter struct {
	ID        int64
	ClassID   int64
	Number    int
	Title     string
	CreatedAt time.Time
	Documents []*DocumentSummary
}

// FirstDeletableChapter is the lowest chapter number that may be removed.
const FirstDeletableChapter = 3

// Deletable reports whether the chapter may be removed.
func (c *Chapter) Deletable() bool {
	return c.Number >= FirstDeletableChapter
}
