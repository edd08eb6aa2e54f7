// Package model defines the core data structures for lnbanner.
package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Validation errors.
var (
	ErrEmptyTitle = errors.New("title cannot be empty")
)

// Record is a single notification waiting to be, or being, presented as a banner.
//
// Records are compared by reference: two records carrying the same fields are
// still distinct notifications. The center copies a record when it is enqueued
// and never mutates the copy afterwards.
type Record struct {
	ID            string    `json:"id" yaml:"id"`
	ApplicationID string    `json:"app_id" yaml:"app_id"`
	Title         string    `json:"title" yaml:"title"`
	Detail        string    `json:"detail,omitempty" yaml:"detail,omitempty"`
	IconPath      string    `json:"icon,omitempty" yaml:"icon,omitempty"`
	EnqueuedAt    time.Time `json:"enqueued_at" yaml:"enqueued_at"`
}

// NewRecord creates a new Record with a generated ULID.
// The application identifier and enqueue time are assigned when the record is presented.
func NewRecord(title, detail, iconPath string) (*Record, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}

	return &Record{
		ID:       id.String(),
		Title:    title,
		Detail:   detail,
		IconPath: iconPath,
	}, nil
}

// Validate checks that the record has all required fields.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Clone returns a copy of the record.
func (r *Record) Clone() *Record {
	clone := *r
	return &clone
}

// DetailTruncated returns the detail text collapsed to a single line and
// truncated to maxLen runes, with "..." appended when shortened.
func (r *Record) DetailTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	detail := []rune(strings.Join(strings.Fields(r.Detail), " "))
	if len(detail) <= maxLen {
		return string(detail)
	}
	if maxLen <= 3 {
		return string(detail[:maxLen])
	}
	return string(detail[:maxLen-3]) + "..."
}

// TextLength returns the number of runes a reader has to get through to read the banner.
func (r *Record) TextLength() int {
	return len([]rune(r.Title)) + len([]rune(r.Detail))
}
