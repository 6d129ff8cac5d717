package domain

import "time"

// Contact is a person who has submitted at least one ticket, identified
// uniquely by email. Contacts are created lazily on first submission and
// never updated or deleted afterwards.
type Contact struct {
	ID        int64
	FullName  string
	Email     string
	CreatedAt time.Time
}
