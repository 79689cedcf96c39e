package domain

import (
	"fmt"
	"slices"
	"strings"
)

// ListOrdering controls how the reply collection is projected for observers.
// It never changes storage order.
type ListOrdering int

const (
	// TopToBottom shows the newest reply first.
	TopToBottom ListOrdering = iota
	// BottomToTop shows the oldest reply first.
	BottomToTop
)

func ParseListOrdering(raw string) (ListOrdering, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "top_to_bottom", "":
		return TopToBottom, nil
	case "bottom_to_top":
		return BottomToTop, nil
	default:
		return TopToBottom, fmt.Errorf("unsupported list ordering: %q", raw)
	}
}

func (o ListOrdering) String() string {
	if o == BottomToTop {
		return "bottom_to_top"
	}

	return "top_to_bottom"
}

// Compare orders two messages for the projected sequence.
func (o ListOrdering) Compare(a, b Message) int {
	if o == BottomToTop {
		return CompareCreated(a, b)
	}

	return CompareCreated(b, a)
}

// Project returns a sorted copy of messages in this ordering.
func (o ListOrdering) Project(messages []Message) []Message {
	out := slices.Clone(messages)
	slices.SortStableFunc(out, o.Compare)

	return out
}
