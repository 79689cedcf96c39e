package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skobkin/msgsync/internal/app"
	"github.com/skobkin/msgsync/internal/controller"
	"github.com/skobkin/msgsync/internal/domain"
)

const (
	operationTimeout = 30 * time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("run msgsync", "error", err)
		os.Exit(1)
	}
}

type options struct {
	dataDir   string
	channel   string
	message   string
	reply     string
	extra     string
	ordering  string
	pageSize  int
	clear     bool
	listenFor time.Duration
}

func parseOptions(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet(app.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.dataDir, "data-dir", "", "data directory (default: user config dir)")
	fs.StringVar(&opts.channel, "channel", "", "channel id as type:id")
	fs.StringVar(&opts.message, "message", "", "message id to observe")
	fs.StringVar(&opts.reply, "reply", "", "post a reply with this text")
	fs.StringVar(&opts.extra, "reply-extra", "", "extra JSON data attached to the reply")
	fs.StringVar(&opts.ordering, "ordering", "", "replies ordering: top_to_bottom or bottom_to_top")
	fs.IntVar(&opts.pageSize, "page-size", 0, "replies page size (default: config)")
	fs.BoolVar(&opts.clear, "clear", false, "clear the local message cache before syncing")
	fs.DurationVar(&opts.listenFor, "listen-for", 0, "keep printing changes for this long, e.g. 30s")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.channel == "" || opts.message == "" {
		return options{}, errors.New("both -channel and -message are required")
	}

	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return err
	}
	cid, err := domain.ParseChannelID(opts.channel)
	if err != nil {
		return err
	}

	rt, err := app.Initialize(ctx, app.Options{DataDir: opts.dataDir, Console: stderr})
	if err != nil {
		return fmt.Errorf("initialize runtime: %w", err)
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			slog.Warn("close runtime", "error", closeErr)
		}
	}()
	logger := rt.LogManager.Logger("cli")
	logger.Info("starting msgsync", "version", app.BuildVersionWithDate(), "channel_id", cid.String(), "message_id", opts.message)

	if opts.clear {
		if err := rt.ClearDatabase(ctx); err != nil {
			return fmt.Errorf("clear database: %w", err)
		}
	}

	stopMetrics := serveMetrics(rt, logger)
	defer stopMetrics()

	mc := rt.Client.MessageController(cid, domain.MessageID(opts.message))
	defer mc.Close()
	if opts.ordering != "" {
		ordering, err := domain.ParseListOrdering(opts.ordering)
		if err != nil {
			return err
		}
		mc.SetListOrdering(ordering)
	}
	mc.SetDelegate(&printDelegate{out: stdout})

	if err := await(ctx, func(done func(error)) { mc.Synchronize(done) }); err != nil {
		return fmt.Errorf("synchronize: %w", err)
	}
	if err := await(ctx, func(done func(error)) { mc.LoadPreviousReplies("", opts.pageSize, done) }); err != nil {
		return fmt.Errorf("load replies: %w", err)
	}

	if opts.reply != "" {
		var newID domain.MessageID
		err := await(ctx, func(done func(error)) {
			if err := mc.CreateNewReply(opts.reply, false, json.RawMessage(opts.extra), func(id domain.MessageID, err error) {
				newID = id
				done(err)
			}); err != nil {
				done(err)
			}
		})
		if err != nil {
			return fmt.Errorf("create reply: %w", err)
		}
		_, _ = fmt.Fprintf(stdout, "reply created: %s\n", newID)
	}

	printSnapshot(stdout, mc)

	if opts.listenFor > 0 {
		logger.Info("listen mode", "duration", opts.listenFor)
		select {
		case <-ctx.Done():
		case <-time.After(opts.listenFor):
		}
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return rt.Wait(waitCtx)
}

// await starts an operation and blocks until its completion reports back.
func await(ctx context.Context, start func(done func(error))) error {
	ch := make(chan error, 1)
	start(func(err error) { ch <- err })

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func serveMetrics(rt *app.Runtime, logger *slog.Logger) func() {
	cfg := rt.CurrentConfig().Metrics
	if !cfg.Enabled {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", rt.MetricsHandler())
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

type printDelegate struct {
	out io.Writer
}

func (d *printDelegate) StateChanged(state domain.ControllerState) {
	_, _ = fmt.Fprintf(d.out, "state: %s\n", state)
}

func (d *printDelegate) MessageChanged(change domain.EntityChange[domain.Message]) {
	text := domain.ProjectField(change, func(m domain.Message) string { return m.Text })
	if change.Kind == domain.EntityUpdate && text.Old != text.New {
		_, _ = fmt.Fprintf(d.out, "message %s: %s %q -> %q\n", change.Item.ID, change.Kind, text.Old, text.New)
		return
	}
	_, _ = fmt.Fprintf(d.out, "message %s: %s\n", change.Item.ID, change.Kind)
}

func (d *printDelegate) RepliesChanged(changes []domain.ListChange[domain.Message]) {
	for _, change := range changes {
		switch change.Kind {
		case domain.ListMove:
			_, _ = fmt.Fprintf(d.out, "reply %s: move %d -> %d\n", change.Item.ID, change.From.Row, change.To.Row)
		default:
			_, _ = fmt.Fprintf(d.out, "reply %s: %s at %d\n", change.Item.ID, change.Kind, change.Index.Row)
		}
	}
}

var _ controller.Delegate = (*printDelegate)(nil)

func printSnapshot(out io.Writer, mc *controller.MessageController) {
	msg, ok := mc.Message()
	if !ok {
		_, _ = fmt.Fprintln(out, "message: not cached")
		return
	}
	_, _ = fmt.Fprintf(out, "message %s by %s: %q (replies: %d)\n", msg.ID, msg.AuthorID, msg.Text, msg.ReplyCount)
	for i, r := range mc.Replies() {
		_, _ = fmt.Fprintf(out, "  [%d] %s %s: %q\n", i, r.CreatedAt.Format(time.RFC3339), r.AuthorID, r.Text)
	}
}
