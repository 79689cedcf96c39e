package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

type Message struct {
	ID            MessageID
	AuthorID      UserID
	ChannelID     ChannelID
	ParentID      MessageID
	Text          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     time.Time
	ShowInChannel bool
	ReplyCount    int
	Flagged       bool
	ExtraData     json.RawMessage
}

// IsReply reports whether the message belongs to a thread.
func (m Message) IsReply() bool {
	return !m.ParentID.IsZero()
}

func (m Message) IsDeleted() bool {
	return !m.DeletedAt.IsZero()
}

// Equal compares every stored field. Timestamps are compared by instant.
func (m Message) Equal(other Message) bool {
	return m.ID == other.ID &&
		m.AuthorID == other.AuthorID &&
		m.ChannelID == other.ChannelID &&
		m.ParentID == other.ParentID &&
		m.Text == other.Text &&
		m.CreatedAt.Equal(other.CreatedAt) &&
		m.UpdatedAt.Equal(other.UpdatedAt) &&
		m.DeletedAt.Equal(other.DeletedAt) &&
		m.ShowInChannel == other.ShowInChannel &&
		m.ReplyCount == other.ReplyCount &&
		m.Flagged == other.Flagged &&
		bytes.Equal(m.ExtraData, other.ExtraData)
}

// Clone returns a copy that does not share the extra data buffer.
func (m Message) Clone() Message {
	if m.ExtraData != nil {
		m.ExtraData = append(json.RawMessage(nil), m.ExtraData...)
	}

	return m
}

// CompareCreated orders messages by creation time, then id.
func CompareCreated(a, b Message) int {
	switch {
	case a.CreatedAt.Before(b.CreatedAt):
		return -1
	case a.CreatedAt.After(b.CreatedAt):
		return 1
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}
