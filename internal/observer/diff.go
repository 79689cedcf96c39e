package observer

import (
	"github.com/skobkin/msgsync/internal/domain"
)

func diffEntity(prev domain.Message, hadPrev bool, next domain.Message, hasNext bool) (domain.EntityChange[domain.Message], bool) {
	switch {
	case !hadPrev && hasNext:
		return domain.CreateChange(next), true
	case hadPrev && !hasNext:
		return domain.RemoveChange(prev), true
	case hadPrev && hasNext && !prev.Equal(next):
		return domain.UpdateChange(prev, next), true
	default:
		return domain.EntityChange[domain.Message]{}, false
	}
}

// diffList turns two projected snapshots into row changes: removes (old indices,
// descending), inserts (new indices), moves, then in-place updates (new indices).
// Items keeping their relative order are not reported as moved.
func diffList(old, next []domain.Message) []domain.ListChange[domain.Message] {
	oldIndex := indexByID(old)
	newIndex := indexByID(next)

	var changes []domain.ListChange[domain.Message]
	for i := len(old) - 1; i >= 0; i-- {
		if _, ok := newIndex[old[i].ID]; !ok {
			changes = append(changes, domain.RemoveAt(old[i], domain.Row(i)))
		}
	}
	for i, m := range next {
		if _, ok := oldIndex[m.ID]; !ok {
			changes = append(changes, domain.InsertAt(m, domain.Row(i)))
		}
	}

	// Common items in new order, each tagged with its rank among common items in old order.
	oldRank := make(map[domain.MessageID]int)
	for _, m := range old {
		if _, ok := newIndex[m.ID]; ok {
			oldRank[m.ID] = len(oldRank)
		}
	}
	common := make([]domain.Message, 0, len(oldRank))
	ranks := make([]int, 0, len(oldRank))
	for _, m := range next {
		if rank, ok := oldRank[m.ID]; ok {
			common = append(common, m)
			ranks = append(ranks, rank)
		}
	}
	stable := longestIncreasing(ranks)

	var updates []domain.ListChange[domain.Message]
	for i, m := range common {
		from := oldIndex[m.ID]
		to := newIndex[m.ID]
		if !stable[i] {
			changes = append(changes, domain.MoveFrom(m, domain.Row(from), domain.Row(to)))
			continue
		}
		if !old[from].Equal(m) {
			updates = append(updates, domain.UpdateAt(m, domain.Row(to)))
		}
	}

	return append(changes, updates...)
}

func indexByID(items []domain.Message) map[domain.MessageID]int {
	out := make(map[domain.MessageID]int, len(items))
	for i, m := range items {
		out[m.ID] = i
	}

	return out
}

// longestIncreasing marks the members of one longest strictly increasing subsequence.
func longestIncreasing(seq []int) []bool {
	marks := make([]bool, len(seq))
	if len(seq) == 0 {
		return marks
	}

	tails := make([]int, 0, len(seq)) // indices into seq
	prev := make([]int, len(seq))
	for i, v := range seq {
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if seq[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo > 0 {
			prev[i] = tails[lo-1]
		} else {
			prev[i] = -1
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}

	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		marks[i] = true
	}

	return marks
}
