package domain

import (
	"fmt"
	"strings"
)

// ChannelID addresses a channel by its type namespace and id, e.g. "messaging:general".
type ChannelID struct {
	Type string
	ID   string
}

func NewChannelID(channelType, id string) ChannelID {
	return ChannelID{Type: strings.TrimSpace(channelType), ID: strings.TrimSpace(id)}
}

func ParseChannelID(raw string) (ChannelID, error) {
	channelType, id, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return ChannelID{}, fmt.Errorf("channel id %q: missing type separator", raw)
	}
	cid := NewChannelID(channelType, id)
	if cid.Type == "" || cid.ID == "" {
		return ChannelID{}, fmt.Errorf("channel id %q: type and id must be non-empty", raw)
	}

	return cid, nil
}

func (c ChannelID) IsZero() bool {
	return c.Type == "" && c.ID == ""
}

func (c ChannelID) String() string {
	if c.IsZero() {
		return ""
	}

	return c.Type + ":" + c.ID
}

type UserID string

func (u UserID) IsZero() bool { return strings.TrimSpace(string(u)) == "" }

func (u UserID) String() string { return string(u) }

type MessageID string

func (m MessageID) IsZero() bool { return strings.TrimSpace(string(m)) == "" }

func (m MessageID) String() string { return string(m) }
