package models

import "time"

// File represents a stored asset record. Exactly one of Buff, DiskPath and
// Link is set: small uploads keep their bytes inline, trick attachments live
// on disk under the public root, and wallpapers are recorded as a public link.
type File struct {
	ID        int       `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Mime      string    `json:"mime"`
	Buff      []byte    `json:"-"`
	DiskPath  string    `json:"-"`
	Link      string    `json:"link,omitempty"`
	TrickID   *int      `json:"trickId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FileInfo is the public shape returned by upload endpoints.
type FileInfo struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Mime      string    `json:"mime"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Info returns the public view of the file record
func (f *File) Info() FileInfo {
	return FileInfo{
		Slug:      f.Slug,
		Title:     f.Title,
		Mime:      f.Mime,
		Link:      f.Link,
		CreatedAt: f.CreatedAt,
	}
}

// Wallpaper is a listing entry for wallpaper files, blob excluded.
type Wallpaper struct {
	ID        int       `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Mime      string    `json:"mime"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"createdAt"`
	Upvotes   int       `json:"upvotes"`
	Downvotes int       `json:"downvotes"`
}
