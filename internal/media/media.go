// Package media defines the port to the external media host. Binary content
// lives there; this service only keeps descriptors.
package media

import (
	"context"
	"io"
)

// Asset is a received file payload on its way to the media host.
type Asset struct {
	Name        string
	Content     io.Reader
	Size        int64
	ContentType string
}

// Object describes a hosted asset as the media host knows it. PublicID is
// the stable handle used for later deletion.
type Object struct {
	PublicID     string
	URL          string
	Format       string
	Bytes        int64
	OriginalName string
}

// Host uploads and deletes binary content on the external media service.
type Host interface {
	Upload(ctx context.Context, a Asset) (Object, error)

	// Delete removes the object; the boolean reports whether the host
	// acknowledged the deletion.
	Delete(ctx context.Context, publicID string) (bool, error)
}
