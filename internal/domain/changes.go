package domain

import "fmt"

type EntityChangeKind int

const (
	EntityCreate EntityChangeKind = iota + 1
	EntityUpdate
	EntityRemove
)

func (k EntityChangeKind) String() string {
	switch k {
	case EntityCreate:
		return "create"
	case EntityUpdate:
		return "update"
	case EntityRemove:
		return "remove"
	default:
		return fmt.Sprintf("entity_change(%d)", int(k))
	}
}

// EntityChange describes a single entity mutation. Previous is only set for updates.
type EntityChange[T any] struct {
	Kind     EntityChangeKind
	Item     T
	Previous T
}

func CreateChange[T any](item T) EntityChange[T] {
	return EntityChange[T]{Kind: EntityCreate, Item: item}
}

func UpdateChange[T any](previous, item T) EntityChange[T] {
	return EntityChange[T]{Kind: EntityUpdate, Item: item, Previous: previous}
}

func RemoveChange[T any](item T) EntityChange[T] {
	return EntityChange[T]{Kind: EntityRemove, Item: item}
}

// FieldChange is an entity change projected onto one field.
// For creates and removes Old and New hold the same value.
type FieldChange[V any] struct {
	Kind EntityChangeKind
	Old  V
	New  V
}

func ProjectField[T, V any](change EntityChange[T], field func(T) V) FieldChange[V] {
	current := field(change.Item)
	if change.Kind != EntityUpdate {
		return FieldChange[V]{Kind: change.Kind, Old: current, New: current}
	}

	return FieldChange[V]{Kind: change.Kind, Old: field(change.Previous), New: current}
}

// IndexPath addresses a row in a sectioned list. Only section 0 is used for now.
type IndexPath struct {
	Section int
	Row     int
}

func Row(row int) IndexPath {
	return IndexPath{Row: row}
}

type ListChangeKind int

const (
	ListInsert ListChangeKind = iota + 1
	ListUpdate
	ListMove
	ListRemove
)

func (k ListChangeKind) String() string {
	switch k {
	case ListInsert:
		return "insert"
	case ListUpdate:
		return "update"
	case ListMove:
		return "move"
	case ListRemove:
		return "remove"
	default:
		return fmt.Sprintf("list_change(%d)", int(k))
	}
}

// ListChange describes one row mutation. Index is used by insert, update and remove;
// moves use From and To.
type ListChange[T any] struct {
	Kind  ListChangeKind
	Item  T
	Index IndexPath
	From  IndexPath
	To    IndexPath
}

func InsertAt[T any](item T, index IndexPath) ListChange[T] {
	return ListChange[T]{Kind: ListInsert, Item: item, Index: index}
}

func UpdateAt[T any](item T, index IndexPath) ListChange[T] {
	return ListChange[T]{Kind: ListUpdate, Item: item, Index: index}
}

func MoveFrom[T any](item T, from, to IndexPath) ListChange[T] {
	return ListChange[T]{Kind: ListMove, Item: item, From: from, To: to}
}

func RemoveAt[T any](item T, index IndexPath) ListChange[T] {
	return ListChange[T]{Kind: ListRemove, Item: item, Index: index}
}
