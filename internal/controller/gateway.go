package controller

import (
	"context"
	"encoding/json"

	"github.com/skobkin/msgsync/internal/domain"
)

// Gateway performs remote operations. When a call returns without error the
// local store already reflects its result.
type Gateway interface {
	GetMessage(ctx context.Context, cid domain.ChannelID, id domain.MessageID) error
	DeleteMessage(ctx context.Context, cid domain.ChannelID, id domain.MessageID) error
	EditMessage(ctx context.Context, cid domain.ChannelID, id domain.MessageID, text string) error
	FlagMessage(ctx context.Context, cid domain.ChannelID, id domain.MessageID, flag bool) error
	CreateReply(ctx context.Context, cid domain.ChannelID, parentID domain.MessageID, text string, showInChannel bool, extraData json.RawMessage) (domain.MessageID, error)
	LoadReplies(ctx context.Context, cid domain.ChannelID, parentID domain.MessageID, page domain.Pagination) error
}
