package model

import "time"

// Document is the metadata record for one stored file.
// This is a pure domain model with no database-specific dependencies or tags.
// StorageKey is assigned once at creation and never changes afterwards.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	StorageKey  string    `json:"storage_key"`
	Categories  []string  `json:"categories"`
	Tags        []string  `json:"tags"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DocumentUpdate carries a partial metadata update.
// A nil field is left untouched; a non-nil pointer to an empty value clears the field.
type DocumentUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Categories  *[]string `json:"categories,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u DocumentUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Categories == nil && u.Tags == nil
}

// Apply copies every set field onto d.
func (u DocumentUpdate) Apply(d *Document) {
	if u.Title != nil {
		d.Title = *u.Title
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Categories != nil {
		d.Categories = append([]string{}, (*u.Categories)...)
	}
	if u.Tags != nil {
		d.Tags = append([]string{}, (*u.Tags)...)
	}
}
