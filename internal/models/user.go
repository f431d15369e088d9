package models

// User represents the authenticated identity resolved by the auth middleware.
// Worm accounts are service/bot authors: they may publish content and upload
// files but are barred from voting.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never serialize password hash
	Worm         bool   `json:"worm"`
}
