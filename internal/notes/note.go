package notes

import "time"

// Note is a user-owned document. AttachmentKey points at an object in
// blob storage when the note has a file attached.
type Note struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	UserID        string    `bson:"userId" json:"userId"`
	Title         string    `bson:"title" json:"title"`
	Content       string    `bson:"content" json:"content"`
	AttachmentKey string    `bson:"attachmentKey,omitempty" json:"attachmentKey,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Page is one page of a user's notes, newest first.
type Page struct {
	Data        []*Note `json:"data"`
	Total       int64   `json:"total"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
}
