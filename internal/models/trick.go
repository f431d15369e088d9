package models

import "time"

// Trick is a short post (the platform's Twitter-like content kind). Files may
// be attached to a trick; votes target it through the trick vote family.
type Trick struct {
	ID               int       `json:"id"`
	Slug             string    `json:"slug"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	ShortDescription *string   `json:"shortDescription,omitempty"`
	Author           int       `json:"author"`
	Tags             []string  `json:"tags,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}
