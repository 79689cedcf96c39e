package observer

import (
	"testing"
	"time"

	"github.com/skobkin/msgsync/internal/domain"
)

func reply(id string, atMs int64, text string) domain.Message {
	return domain.Message{ID: domain.MessageID(id), ParentID: "p1", Text: text, CreatedAt: time.UnixMilli(atMs)}
}

func TestDiffEntity(t *testing.T) {
	old := domain.Message{ID: "m1", Text: "old"}
	next := domain.Message{ID: "m1", Text: "new"}

	if _, changed := diffEntity(old, true, old.Clone(), true); changed {
		t.Fatalf("expected identical snapshot to produce no change")
	}
	if change, _ := diffEntity(domain.Message{}, false, next, true); change.Kind != domain.EntityCreate {
		t.Fatalf("expected create, got %v", change.Kind)
	}
	if change, _ := diffEntity(old, true, domain.Message{}, false); change.Kind != domain.EntityRemove || change.Item.Text != "old" {
		t.Fatalf("expected remove of old snapshot, got %+v", change)
	}
	change, changed := diffEntity(old, true, next, true)
	if !changed || change.Kind != domain.EntityUpdate {
		t.Fatalf("expected update, got %+v", change)
	}
	if change.Previous.Text != "old" || change.Item.Text != "new" {
		t.Fatalf("expected old->new, got %q->%q", change.Previous.Text, change.Item.Text)
	}
	if _, changed := diffEntity(domain.Message{}, false, domain.Message{}, false); changed {
		t.Fatalf("expected absent->absent to produce no change")
	}
}

func TestDiffList_InsertsUseProjectedIndex(t *testing.T) {
	r1 := reply("r1", 1000, "a")
	r2 := reply("r2", 2000, "b")
	r3 := reply("r3", 3000, "c")

	old := domain.TopToBottom.Project([]domain.Message{r1})
	next := domain.TopToBottom.Project([]domain.Message{r1, r2, r3})
	changes := diffList(old, next)

	if len(changes) != 2 {
		t.Fatalf("expected 2 inserts, got %d: %+v", len(changes), changes)
	}
	if changes[0].Kind != domain.ListInsert || changes[0].Item.ID != "r3" || changes[0].Index.Row != 0 {
		t.Fatalf("expected r3 inserted at 0, got %+v", changes[0])
	}
	if changes[1].Kind != domain.ListInsert || changes[1].Item.ID != "r2" || changes[1].Index.Row != 1 {
		t.Fatalf("expected r2 inserted at 1, got %+v", changes[1])
	}
}

func TestDiffList_SuppressesUnchangedDuplicates(t *testing.T) {
	items := []domain.Message{reply("r1", 1000, "a"), reply("r2", 2000, "b")}
	if changes := diffList(items, []domain.Message{items[0].Clone(), items[1].Clone()}); len(changes) != 0 {
		t.Fatalf("expected no changes, got %+v", changes)
	}
}

func TestDiffList_RemoveUpdateAndMove(t *testing.T) {
	r1 := reply("r1", 1000, "a")
	r2 := reply("r2", 2000, "b")
	r3 := reply("r3", 3000, "c")
	r4 := reply("r4", 5000, "d")
	old := domain.BottomToTop.Project([]domain.Message{r1, r2, r3, r4})

	edited := r2
	edited.Text = "b2"
	moved := r1
	moved.CreatedAt = time.UnixMilli(4000)
	next := domain.BottomToTop.Project([]domain.Message{moved, edited, r3})

	changes := diffList(old, next)
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %d: %+v", len(changes), changes)
	}
	if changes[0].Kind != domain.ListRemove || changes[0].Item.ID != "r4" || changes[0].Index.Row != 3 {
		t.Fatalf("expected r4 removed at 3, got %+v", changes[0])
	}
	if changes[1].Kind != domain.ListMove || changes[1].Item.ID != "r1" || changes[1].From.Row != 0 || changes[1].To.Row != 2 {
		t.Fatalf("expected r1 moved 0->2, got %+v", changes[1])
	}
	if changes[2].Kind != domain.ListUpdate || changes[2].Item.Text != "b2" || changes[2].Index.Row != 0 {
		t.Fatalf("expected r2 updated at 0, got %+v", changes[2])
	}
}

func TestLongestIncreasing(t *testing.T) {
	marks := longestIncreasing([]int{2, 0, 1, 3})
	want := []bool{false, true, true, true}
	for i := range want {
		if marks[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, marks)
		}
	}
}
