package attempt

import (
	"context"
	"fmt"
	"strings"

	"github.com/cexll/prbot/internal/platform"
	"go.uber.org/zap"
)

// Decision is the result of Evaluate.
type Decision struct {
	// Proceed is false when the attempts were already exhausted.
	Proceed bool
	Before  State
	After   State
}

// Tracker reads and advances the attempt counter of an item.
// Only markers owned by Identity are trusted.
type Tracker struct {
	markers  platform.MarkerAPI
	identity string
	logger   *zap.Logger
}

// NewTracker creates a tracker over the marker API.
func NewTracker(markers platform.MarkerAPI, identity string, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		markers:  markers,
		identity: identity,
		logger:   logger,
	}
}

// Identity returns the login whose markers are trusted.
func (t *Tracker) Identity() string { return t.identity }

// observed holds the owned markers found on an item.
type observed struct {
	primary   []platform.Marker
	secondary []platform.Marker
}

func (o observed) state() State {
	return Decode(len(o.primary) > 0, len(o.secondary) > 0)
}

func (o observed) all() []platform.Marker {
	return append(append([]platform.Marker(nil), o.primary...), o.secondary...)
}

func (t *Tracker) observe(ctx context.Context, number int) (observed, error) {
	markers, err := t.markers.ListMarkers(ctx, number)
	if err != nil {
		return observed{}, fmt.Errorf("list markers on #%d: %w", number, err)
	}

	var o observed
	for _, m := range markers {
		if !strings.EqualFold(m.Owner, t.identity) {
			continue
		}
		switch m.Kind {
		case platform.MarkerPrimary:
			o.primary = append(o.primary, m)
		case platform.MarkerSecondary:
			o.secondary = append(o.secondary, m)
		}
	}
	return o, nil
}

// State returns the current counter state without changing it.
func (t *Tracker) State(ctx context.Context, number int) (State, error) {
	o, err := t.observe(ctx, number)
	if err != nil {
		return S0, err
	}
	return o.state(), nil
}

// Evaluate consumes one attempt for the item. It must be called before the
// generation call so an interrupted run is still counted.
// An exhausted item returns Proceed=false without touching any marker.
func (t *Tracker) Evaluate(ctx context.Context, number int) (Decision, error) {
	o, err := t.observe(ctx, number)
	if err != nil {
		return Decision{}, err
	}

	before := o.state()
	if before.Exhausted() {
		t.logger.Info("Attempts exhausted", zap.Int("pr", number), zap.Stringer("state", before))
		return Decision{Proceed: false, Before: before, After: before}, nil
	}

	after, ops, err := Bump(before)
	if err != nil {
		return Decision{}, err
	}

	for _, op := range ops {
		if err := t.apply(ctx, number, op, o); err != nil {
			return Decision{}, err
		}
	}

	t.logger.Info("Attempt counted",
		zap.Int("pr", number),
		zap.Stringer("from", before),
		zap.Stringer("to", after),
	)
	return Decision{Proceed: true, Before: before, After: after}, nil
}

func (t *Tracker) apply(ctx context.Context, number int, op Op, o observed) error {
	switch op.Action {
	case Create:
		if _, err := t.markers.CreateMarker(ctx, number, op.Kind); err != nil {
			return fmt.Errorf("create %s marker on #%d: %w", op.Kind, number, err)
		}
	case Delete:
		existing := o.primary
		if op.Kind == platform.MarkerSecondary {
			existing = o.secondary
		}
		for _, m := range existing {
			if err := t.markers.DeleteMarker(ctx, number, m.ID); err != nil {
				return fmt.Errorf("delete %s marker on #%d: %w", op.Kind, number, err)
			}
		}
	}
	return nil
}

// Clear deletes every owned marker, returning the item to S0.
func (t *Tracker) Clear(ctx context.Context, number int) error {
	o, err := t.observe(ctx, number)
	if err != nil {
		return err
	}
	for _, m := range o.all() {
		if err := t.markers.DeleteMarker(ctx, number, m.ID); err != nil {
			return fmt.Errorf("clear %s marker on #%d: %w", m.Kind, number, err)
		}
	}
	t.logger.Debug("Markers cleared", zap.Int("pr", number), zap.Stringer("was", o.state()))
	return nil
}
