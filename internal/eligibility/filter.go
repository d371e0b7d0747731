package eligibility

import (
	"github.com/cexll/prbot/internal/platform"
)

// Reason explains why an item was skipped
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonNotOpen      Reason = "not-open"
	ReasonHasComments  Reason = "has-comments"
	ReasonSizeUnknown  Reason = "size-unknown"
	ReasonSizeExcluded Reason = "size-excluded"
)

// DefaultExcludedSizes lists size labels too small to be worth a review.
var DefaultExcludedSizes = []string{"Size: XS"}

// Filter decides whether an item is reviewed in this cycle
type Filter struct {
	excluded map[string]struct{}
}

// NewFilter creates a filter skipping the given size labels.
func NewFilter(excludedSizes []string) *Filter {
	f := &Filter{excluded: make(map[string]struct{}, len(excludedSizes))}
	for _, s := range excludedSizes {
		f.excluded[s] = struct{}{}
	}
	return f
}

// Check runs the rules in order and stops at the first failure.
// Any existing comment rejects the item: a published review is never repeated.
func (f *Filter) Check(item *platform.Item) (bool, Reason) {
	switch {
	case item.State != platform.StateOpen:
		return false, ReasonNotOpen
	case item.CommentCount > 0:
		return false, ReasonHasComments
	case item.SizeLabel == "":
		return false, ReasonSizeUnknown
	}
	if _, ok := f.excluded[item.SizeLabel]; ok {
		return false, ReasonSizeExcluded
	}
	return true, ReasonNone
}
