package history

import "time"

// Saved is the query a user kept for later, with the time it was saved.
type Saved struct {
	Query   string    `json:"query"`
	SavedAt time.Time `json:"saved_at"`
}
