package domain

import "fmt"

const DefaultRepliesPageSize = 25

type PaginationKind int

const (
	PageNone PaginationKind = iota
	PageGreaterThan
	PageLessThan
)

// PaginationParameter anchors a page relative to a cursor message.
type PaginationParameter struct {
	Kind   PaginationKind
	Cursor MessageID
}

func GreaterThan(id MessageID) PaginationParameter {
	return PaginationParameter{Kind: PageGreaterThan, Cursor: id}
}

func LessThan(id MessageID) PaginationParameter {
	return PaginationParameter{Kind: PageLessThan, Cursor: id}
}

func (p PaginationParameter) String() string {
	switch p.Kind {
	case PageGreaterThan:
		return fmt.Sprintf("id_gt=%s", p.Cursor)
	case PageLessThan:
		return fmt.Sprintf("id_lt=%s", p.Cursor)
	default:
		return "none"
	}
}

type Pagination struct {
	PageSize  int
	Parameter PaginationParameter
}

// Normalized replaces a non-positive page size with the default one.
func (p Pagination) Normalized() Pagination {
	if p.PageSize <= 0 {
		p.PageSize = DefaultRepliesPageSize
	}

	return p
}
