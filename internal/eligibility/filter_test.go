package eligibility

import (
	"testing"

	"github.com/cexll/prbot/internal/platform"
)

func openItem() *platform.Item {
	return &platform.Item{
		Number:    42,
		State:     platform.StateOpen,
		SizeLabel: "Size: M",
		Body:      "## Summary\nfoo",
	}
}

func TestFilter_Check(t *testing.T) {
	f := NewFilter(DefaultExcludedSizes)

	tests := []struct {
		name   string
		mutate func(*platform.Item)
		want   Reason
	}{
		{name: "eligible", mutate: func(*platform.Item) {}, want: ReasonNone},
		{name: "closed", mutate: func(i *platform.Item) { i.State = platform.StateClosed }, want: ReasonNotOpen},
		{name: "unknown state", mutate: func(i *platform.Item) { i.State = "merged" }, want: ReasonNotOpen},
		{name: "has comments", mutate: func(i *platform.Item) { i.CommentCount = 1 }, want: ReasonHasComments},
		{name: "no size label", mutate: func(i *platform.Item) { i.SizeLabel = "" }, want: ReasonSizeUnknown},
		{name: "extra small", mutate: func(i *platform.Item) { i.SizeLabel = "Size: XS" }, want: ReasonSizeExcluded},
		{name: "small is fine", mutate: func(i *platform.Item) { i.SizeLabel = "Size: S" }, want: ReasonNone},
		{
			name: "closed wins over comments",
			mutate: func(i *platform.Item) {
				i.State = platform.StateClosed
				i.CommentCount = 3
			},
			want: ReasonNotOpen,
		},
		{
			name: "comments win over size",
			mutate: func(i *platform.Item) {
				i.CommentCount = 2
				i.SizeLabel = ""
			},
			want: ReasonHasComments,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := openItem()
			tt.mutate(item)
			ok, reason := f.Check(item)
			if reason != tt.want {
				t.Errorf("Check() reason = %q, want %q", reason, tt.want)
			}
			if ok != (tt.want == ReasonNone) {
				t.Errorf("Check() ok = %v, want %v", ok, tt.want == ReasonNone)
			}
		})
	}
}

func TestFilter_CommentsAlwaysExclude(t *testing.T) {
	f := NewFilter(nil)
	states := []platform.ItemState{platform.StateOpen, platform.StateClosed, ""}
	sizes := []string{"", "Size: XS", "Size: M", "Size: XL"}

	for _, st := range states {
		for _, size := range sizes {
			for _, n := range []int{1, 2, 50} {
				item := &platform.Item{State: st, SizeLabel: size, CommentCount: n}
				if ok, _ := f.Check(item); ok {
					t.Fatalf("item with %d comments (state=%q size=%q) passed the filter", n, st, size)
				}
			}
		}
	}
}

func TestFilter_DoesNotMutate(t *testing.T) {
	f := NewFilter(DefaultExcludedSizes)
	item := openItem()
	before := *item
	f.Check(item)
	if item.Number != before.Number || item.SizeLabel != before.SizeLabel || item.Body != before.Body {
		t.Fatal("Check mutated the item")
	}
}
