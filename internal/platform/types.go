package platform

import (
	"context"
	"errors"
)

var (
	// ErrRemote marks a failed call to one of the remote collaborators.
	// The item being processed is abandoned for the current cycle only.
	ErrRemote = errors.New("remote call failed")

	// ErrMissingField marks a fetched item lacking a field the reviewer needs.
	ErrMissingField = errors.New("missing field")
)

// ItemState is the lifecycle state of a pull request
type ItemState string

const (
	StateOpen   ItemState = "open"
	StateClosed ItemState = "closed"
)

// ChangeRecord is a single commit of a pull request
type ChangeRecord struct {
	Message string
}

// Item is a point-in-time view of a pull request
type Item struct {
	Number       int
	State        ItemState
	CommentCount int
	// SizeLabel is the "Size: ..." label, empty when the platform has not assigned one yet.
	SizeLabel string
	Body      string
	Changes   []ChangeRecord
}

// MarkerKind names one of the two flags of the attempt counter
type MarkerKind string

const (
	MarkerPrimary   MarkerKind = "primary"
	MarkerSecondary MarkerKind = "secondary"
)

// Marker is an annotation attached to an item. ID is needed to delete it.
type Marker struct {
	ID    int64
	Kind  MarkerKind
	Owner string
}

// Comment is a published review comment
type Comment struct {
	ID   int64
	Body string
}

// CandidateSource lists the numbers of open items, newest first.
type CandidateSource interface {
	ListOpenItems(ctx context.Context, limit int) ([]int, error)
}

// ItemSource fetches item details.
type ItemSource interface {
	GetItem(ctx context.Context, number int) (*Item, error)
}

// MarkerAPI manages markers on an item.
// ListMarkers returns only markers of a known kind; other annotations are dropped.
type MarkerAPI interface {
	ListMarkers(ctx context.Context, number int) ([]Marker, error)
	CreateMarker(ctx context.Context, number int, kind MarkerKind) (int64, error)
	DeleteMarker(ctx context.Context, number int, markerID int64) error
}

// CommentAPI publishes comments on an item.
type CommentAPI interface {
	CreateComment(ctx context.Context, number int, body string) (*Comment, error)
}

// Platform bundles every collaborator the reviewer talks to.
type Platform interface {
	CandidateSource
	ItemSource
	MarkerAPI
	CommentAPI
}
