package model

import "time"

// Share is a time-limited public link to one document.
// Shares are never updated in place; ExpiresAt is always UTC.
type Share struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	OwnerID    string    `json:"owner_id"`
	LongURL    string    `json:"long_url"`
	ShortURL   string    `json:"short_url"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Expired reports whether the share is dead at instant now.
// A share expiring exactly at now is already dead.
func (s *Share) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
