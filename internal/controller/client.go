// Package controller implements per-message controllers that keep a message and
// its replies in sync between the local store and a remote gateway.
package controller

import (
	"context"
	"log/slog"

	"github.com/skobkin/msgsync/internal/bus"
	"github.com/skobkin/msgsync/internal/dispatch"
	"github.com/skobkin/msgsync/internal/domain"
	"github.com/skobkin/msgsync/internal/metrics"
	"github.com/skobkin/msgsync/internal/observer"
)

type ClientOptions struct {
	Gateway Gateway
	Store   observer.Reader
	Bus     bus.MessageBus
	// Executor runs every delegate notification and completion. When nil the
	// client starts its own dispatch.Queue.
	Executor        dispatch.Executor
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
	RepliesPageSize int
	ListOrdering    domain.ListOrdering
}

// Client owns the shared collaborators of message controllers and the
// registry of in-flight operations.
type Client struct {
	ctx      context.Context
	gateway  Gateway
	store    observer.Reader
	bus      bus.MessageBus
	executor dispatch.Executor
	logger   *slog.Logger
	metrics  *metrics.Metrics
	pageSize int
	ordering domain.ListOrdering
	pending  *operationRegistry
}

func NewClient(ctx context.Context, opts ClientOptions) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	executor := opts.Executor
	if executor == nil {
		q := dispatch.NewQueue(logger.With("component", "dispatch"), 0)
		q.Start(ctx)
		executor = q
	}
	pageSize := opts.RepliesPageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultRepliesPageSize
	}

	return &Client{
		ctx:      ctx,
		gateway:  opts.Gateway,
		store:    opts.Store,
		bus:      opts.Bus,
		executor: executor,
		logger:   logger,
		metrics:  opts.Metrics,
		pageSize: pageSize,
		ordering: opts.ListOrdering,
		pending:  newOperationRegistry(),
	}
}

// MessageController returns a new controller for one message. Nothing is read
// or fetched until the controller is first used.
func (c *Client) MessageController(cid domain.ChannelID, id domain.MessageID) *MessageController {
	return newMessageController(c, cid, id)
}

// PendingOperations reports how many mutating operations are waiting for the gateway.
func (c *Client) PendingOperations() int {
	return c.pending.len()
}
