package domain

import "time"

// File links an owning user to an externally hosted object. The PublicID
// inside Details is the handle the media host knows the object by and is
// unique across all files.
type File struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user"`
	Details   FileDetails `json:"fileDetails"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FileDetails is the descriptor returned by the media host at upload time.
// Only Name is mutable after creation.
type FileDetails struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	PublicID   string    `json:"publicId"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedOn"`
}
