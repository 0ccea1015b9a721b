package model

import "time"

// Default presentation values for catalog entries.
const (
	DefaultCategoryIcon = "📄"
	DefaultTagColor     = "#808080"
)

// Category is a named grouping documents can reference by name.
// Documents hold category names, not ids, so removing a category leaves documents untouched.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tag is a free-form label with a display color.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
