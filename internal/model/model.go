// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"time"
)

// ReviewRecord is the canonical form of one movie review, independent of
// which source it was ingested from.
type ReviewRecord struct {
	ID        string
	Title     string
	Year      int
	Rating    *float64
	Timestamp time.Time
	Link      string
	Body      string
	Spoiler   bool
}

// Key returns the (title, year) pair that identifies a record for
// deduplication purposes.
func (r ReviewRecord) Key() string {
	return fmt.Sprintf("%s (%d)", r.Title, r.Year)
}

// WeeklyDigest groups the records of one publish bucket. It is rebuilt on
// every publish run and never persisted.
type WeeklyDigest struct {
	ISOYear     int
	ISOWeek     int
	WindowStart time.Time
	WindowEnd   time.Time
	Records     []ReviewRecord
}

// PostStatus is the publication status sent to the remote store.
type PostStatus string

// Supported post statuses.
const (
	StatusPublish PostStatus = "publish"
	StatusDraft   PostStatus = "draft"
)

// RemoteDocument is one rendered publish unit. Its remote identity is
// resolved transiently via title search at publish time and never cached
// locally.
type RemoteDocument struct {
	Title      string
	Body       string
	Date       time.Time
	Categories []int
	Tags       []int
	Status     PostStatus
}

// Rating returns a pointer to v, for building optional ratings in place.
func Rating(v float64) *float64 {
	return &v
}
