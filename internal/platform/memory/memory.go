// Package memory is an in-memory Platform used by tests and local dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cexll/prbot/internal/platform"
)

// Platform keeps items, markers and comments in process memory.
// Hooks, when set, run before the corresponding operation and may fail it.
type Platform struct {
	mu       sync.Mutex
	identity string
	items    map[int]*platform.Item
	markers  map[int][]platform.Marker
	comments map[int][]platform.Comment
	nextID   int64

	ListHook          func() error
	GetItemHook       func(number int) error
	CreateMarkerHook  func(number int, kind platform.MarkerKind) error
	DeleteMarkerHook  func(number int, markerID int64) error
	CreateCommentHook func(number int, body string) error

	// Call counters
	ListCalls          int
	GetItemCalls       int
	ListMarkerCalls    int
	CreateMarkerCalls  int
	DeleteMarkerCalls  int
	CreateCommentCalls int
}

// New creates an empty platform whose markers are created as identity.
func New(identity string) *Platform {
	return &Platform{
		identity: identity,
		items:    make(map[int]*platform.Item),
		markers:  make(map[int][]platform.Marker),
		comments: make(map[int][]platform.Comment),
		nextID:   1000,
	}
}

// AddItem stores a copy of item.
func (p *Platform) AddItem(item platform.Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := item
	cp.Changes = append([]platform.ChangeRecord(nil), item.Changes...)
	p.items[item.Number] = &cp
}

// AddMarker attaches a marker owned by owner, bypassing hooks and counters.
func (p *Platform) AddMarker(number int, kind platform.MarkerKind, owner string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.markers[number] = append(p.markers[number], platform.Marker{ID: p.nextID, Kind: kind, Owner: owner})
	return p.nextID
}

// Markers returns a snapshot of the markers on an item.
func (p *Platform) Markers(number int) []platform.Marker {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]platform.Marker(nil), p.markers[number]...)
}

// Comments returns a snapshot of the comments on an item.
func (p *Platform) Comments(number int) []platform.Comment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]platform.Comment(nil), p.comments[number]...)
}

// ListOpenItems returns open items, highest number first.
func (p *Platform) ListOpenItems(ctx context.Context, limit int) ([]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ListCalls++
	if p.ListHook != nil {
		if err := p.ListHook(); err != nil {
			return nil, fmt.Errorf("%w: list items: %v", platform.ErrRemote, err)
		}
	}

	numbers := make([]int, 0, len(p.items))
	for n, item := range p.items {
		if item.State == platform.StateOpen {
			numbers = append(numbers, n)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(numbers)))
	if limit > 0 && len(numbers) > limit {
		numbers = numbers[:limit]
	}
	return numbers, nil
}

// GetItem returns a copy of the item with its current comment count.
func (p *Platform) GetItem(ctx context.Context, number int) (*platform.Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.GetItemCalls++
	if p.GetItemHook != nil {
		if err := p.GetItemHook(number); err != nil {
			return nil, fmt.Errorf("%w: get item #%d: %v", platform.ErrRemote, number, err)
		}
	}

	item, ok := p.items[number]
	if !ok {
		return nil, fmt.Errorf("%w: item #%d not found", platform.ErrRemote, number)
	}
	cp := *item
	cp.Changes = append([]platform.ChangeRecord(nil), item.Changes...)
	cp.CommentCount += len(p.comments[number])
	return &cp, nil
}

// ListMarkers returns the markers on an item.
func (p *Platform) ListMarkers(ctx context.Context, number int) ([]platform.Marker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ListMarkerCalls++
	return append([]platform.Marker(nil), p.markers[number]...), nil
}

// CreateMarker attaches a marker owned by the platform identity.
func (p *Platform) CreateMarker(ctx context.Context, number int, kind platform.MarkerKind) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CreateMarkerCalls++
	if p.CreateMarkerHook != nil {
		if err := p.CreateMarkerHook(number, kind); err != nil {
			return 0, fmt.Errorf("%w: create %s marker on #%d: %v", platform.ErrRemote, kind, number, err)
		}
	}
	p.nextID++
	p.markers[number] = append(p.markers[number], platform.Marker{ID: p.nextID, Kind: kind, Owner: p.identity})
	return p.nextID, nil
}

// DeleteMarker removes a marker by ID.
func (p *Platform) DeleteMarker(ctx context.Context, number int, markerID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DeleteMarkerCalls++
	if p.DeleteMarkerHook != nil {
		if err := p.DeleteMarkerHook(number, markerID); err != nil {
			return fmt.Errorf("%w: delete marker %d on #%d: %v", platform.ErrRemote, markerID, number, err)
		}
	}
	kept := p.markers[number][:0]
	found := false
	for _, m := range p.markers[number] {
		if m.ID == markerID {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return fmt.Errorf("%w: marker %d not found on #%d", platform.ErrRemote, markerID, number)
	}
	p.markers[number] = kept
	return nil
}

// CreateComment appends a comment to an item.
func (p *Platform) CreateComment(ctx context.Context, number int, body string) (*platform.Comment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CreateCommentCalls++
	if p.CreateCommentHook != nil {
		if err := p.CreateCommentHook(number, body); err != nil {
			return nil, fmt.Errorf("%w: create comment on #%d: %v", platform.ErrRemote, number, err)
		}
	}
	p.nextID++
	c := platform.Comment{ID: p.nextID, Body: body}
	p.comments[number] = append(p.comments[number], c)
	return &c, nil
}

var _ platform.Platform = (*Platform)(nil)
