package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"sync"

	"mediabot/internal/classifier"
	"mediabot/internal/models"
	"mediabot/internal/service"
	"mediabot/internal/session"
)

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, msg models.OutMessage) (models.MessageRef, error)
	EditText(ctx context.Context, ref models.MessageRef, msg models.OutMessage) error
	SendFile(ctx context.Context, chatID int64, file models.OutFile) error
	AnswerButton(ctx context.Context, callbackID, text string) error
}

type Engine interface {
	RunBatch(ctx context.Context, user models.UserID, kind models.RunKind, urls []string, q models.Quality, d service.Deliverer, progress service.ProgressFunc) models.BulkOutcome
	FetchOne(ctx context.Context, user models.UserID, req models.DownloadRequest, d service.Deliverer) (*models.DownloadResult, error)
	ListChannel(ctx context.Context, rawURL string, count int) ([]models.ChannelEntry, error)
	ClampCount(count int) int
	Acquire(ctx context.Context, onWait func()) (func(), error)
}

// RunHistory reads a user's journaled runs.
type RunHistory interface {
	UserTotals(ctx context.Context, user models.UserID) (models.Totals, error)
	Recent(ctx context.Context, user models.UserID, limit int) ([]models.BatchRun, error)
}

type Dispatcher struct {
	messenger    Messenger
	engine       Engine
	sessions     *session.Store
	refs         *session.Refs
	classifier   *classifier.Classifier
	history      RunHistory
	defaultCount int
	log          *slog.Logger

	turns *turns
	wg    sync.WaitGroup
}

type Options struct {
	Messenger    Messenger
	Engine       Engine
	Sessions     *session.Store
	Refs         *session.Refs
	Classifier   *classifier.Classifier
	History      RunHistory
	DefaultCount int
	Log          *slog.Logger
}

func New(o Options) *Dispatcher {
	if o.DefaultCount <= 0 {
		o.DefaultCount = 5
	}

	return &Dispatcher{
		messenger:    o.Messenger,
		engine:       o.Engine,
		sessions:     o.Sessions,
		refs:         o.Refs,
		classifier:   o.Classifier,
		history:      o.History,
		defaultCount: o.DefaultCount,
		log:          o.Log.With(slog.String("component", "dispatcher")),
		turns:        newTurns(),
	}
}

// Dispatch handles ev on its own goroutine. The user's place in line is taken before
// returning, so events of one user are handled in the order Dispatch saw them.
func (d *Dispatcher) Dispatch(ctx context.Context, ev models.Event) {
	t := d.turns.Reserve(ev.UserID)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer t.release()

		t.wait()
		d.handle(ctx, ev)
	}()
}

// Wait blocks until every dispatched event has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Handle processes one event synchronously, after any event of the same user already queued.
func (d *Dispatcher) Handle(ctx context.Context, ev models.Event) {
	t := d.turns.Reserve(ev.UserID)
	defer t.release()

	t.wait()
	d.handle(ctx, ev)
}

func (d *Dispatcher) handle(ctx context.Context, ev models.Event) {
	log := d.log.With(slog.Int64("user_id", int64(ev.UserID)), slog.String("event", ev.Kind.String()))

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling event",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			d.reportFailure(ctx, ev)
		}
	}()

	if err := d.route(ctx, ev); err != nil {
		log.Error("failed to handle event", slog.String("error", err.Error()))
		d.reportFailure(ctx, ev)
	}
}

func (d *Dispatcher) reportFailure(ctx context.Context, ev models.Event) {
	if _, err := d.messenger.SendText(ctx, ev.ChatID, models.OutMessage{Text: msgGenericError}); err != nil {
		d.log.Warn("failed to send error notice", slog.String("error", err.Error()))
	}
}

func (d *Dispatcher) route(ctx context.Context, ev models.Event) error {
	switch ev.Kind {
	case models.EventCommand:
		return d.onCommand(ctx, ev)
	case models.EventText:
		return d.onText(ctx, ev)
	case models.EventButton:
		return d.onButton(ctx, ev)
	}

	return fmt.Errorf("unknown event kind %d", ev.Kind)
}

func (d *Dispatcher) onCommand(ctx context.Context, ev models.Event) error {
	switch ev.Command {
	case "start":
		return d.reply(ctx, ev, d.welcome(ev))
	case "help":
		return d.reply(ctx, ev, helpMessage(d.sessions.Capacity()))
	case "bulk":
		d.sessions.BeginBulk(ev.UserID)
		return d.reply(ctx, ev, bulkStartedMessage(d.sessions.Capacity()))
	case "done":
		return d.onDone(ctx, ev)
	case "cancel":
		d.sessions.Cancel(ev.UserID)
		return d.reply(ctx, ev, models.OutMessage{Text: msgCancelled})
	case "channel":
		return d.onChannel(ctx, ev)
	case "settings":
		return d.reply(ctx, ev, settingsMessage(d.sessions.Quality(ev.UserID)))
	case "status":
		return d.onStatus(ctx, ev)
	}

	return d.reply(ctx, ev, models.OutMessage{Text: msgUsage})
}

func (d *Dispatcher) onText(ctx context.Context, ev models.Event) error {
	urls := classifier.FindURLs(ev.Text)

	if d.sessions.IsCollecting(ev.UserID) {
		if len(urls) == 0 {
			return d.reply(ctx, ev, models.OutMessage{Text: msgNoValidURLs})
		}

		res, err := d.sessions.AddURLs(ev.UserID, urls)
		if err != nil {
			return err
		}
		if errors.Is(res.Err(), models.ErrCapacityExceeded) {
			d.log.Info("bulk session full",
				slog.Int64("user_id", int64(ev.UserID)),
				slog.Int("rejected", res.OverCapacity),
			)
		}
		if res.Accepted == 0 && res.OverCapacity == 0 {
			return d.reply(ctx, ev, unsupportedMessage(d.classifier.Platforms()))
		}

		return d.reply(ctx, ev, bulkAddedMessage(res, d.sessions.Capacity()))
	}

	if len(urls) == 0 {
		return d.reply(ctx, ev, models.OutMessage{Text: msgUsage})
	}

	url := urls[0]
	if !d.classifier.Supported(url) {
		return d.reply(ctx, ev, unsupportedMessage(d.classifier.Platforms()))
	}

	ref := d.refs.Mint(ev.UserID, url)

	return d.reply(ctx, ev, qualityPromptMessage(url, ref))
}

func (d *Dispatcher) onDone(ctx context.Context, ev models.Event) error {
	if !d.sessions.IsCollecting(ev.UserID) {
		return d.reply(ctx, ev, models.OutMessage{Text: msgNotCollecting})
	}

	urls := d.sessions.DrainBulk(ev.UserID)
	if len(urls) == 0 {
		return d.reply(ctx, ev, models.OutMessage{Text: msgNothingToDo})
	}

	return d.runBatch(ctx, ev, models.RunBulk, urls, models.MessageRef{})
}

func (d *Dispatcher) onChannel(ctx context.Context, ev models.Event) error {
	if len(ev.Args) == 0 {
		return d.reply(ctx, ev, channelUsageMessage())
	}

	url := ev.Args[0]
	count := d.defaultCount
	if len(ev.Args) > 1 {
		n, err := strconv.Atoi(ev.Args[1])
		if err != nil || n < 1 {
			return d.reply(ctx, ev, channelUsageMessage())
		}
		count = n
	}
	count = d.engine.ClampCount(count)

	if !d.classifier.Supported(url) {
		return d.reply(ctx, ev, unsupportedMessage(d.classifier.Platforms()))
	}

	if err := d.reply(ctx, ev, models.OutMessage{Text: fmt.Sprintf("🔄 Fetching %d videos from channel...", count)}); err != nil {
		return err
	}

	entries, err := d.engine.ListChannel(ctx, url, count)
	if err != nil || len(entries) == 0 {
		if err != nil {
			d.log.Warn("channel listing failed", slog.String("url", url), slog.String("error", err.Error()))
		}
		return d.reply(ctx, ev, models.OutMessage{Text: msgChannelFailed})
	}

	d.sessions.SetListing(ev.UserID, entries)

	return d.reply(ctx, ev, channelListMessage(entries))
}

func (d *Dispatcher) onStatus(ctx context.Context, ev models.Event) error {
	var (
		totals *models.Totals
		recent []models.BatchRun
	)

	if d.history != nil {
		t, err := d.history.UserTotals(ctx, ev.UserID)
		if err != nil {
			d.log.Warn("failed to read journal totals", slog.String("error", err.Error()))
		} else {
			totals = &t
		}

		recent, err = d.history.Recent(ctx, ev.UserID, recentRunsLimit)
		if err != nil {
			d.log.Warn("failed to read recent runs", slog.String("error", err.Error()))
		}
	}

	return d.reply(ctx, ev, statusMessage(d.sessions.Session(ev.UserID), d.sessions.Capacity(), totals, recent))
}

func (d *Dispatcher) onButton(ctx context.Context, ev models.Event) error {
	if err := d.messenger.AnswerButton(ctx, ev.CallbackID, ""); err != nil {
		d.log.Debug("failed to answer button", slog.String("error", err.Error()))
	}

	tok, err := ParseToken(ev.CallbackData)
	if err != nil {
		return err
	}

	origin := models.MessageRef{ChatID: ev.ChatID, MessageID: ev.MessageID}

	switch tok.Action {
	case ActionDownloadQuality:
		return d.onQualityChoice(ctx, ev, origin, tok)

	case ActionChannelItem:
		return d.onChannelItem(ctx, ev, origin, tok.ID)

	case ActionChannelAll:
		entries, ok := d.sessions.Listing(ev.UserID)
		if !ok {
			return d.edit(ctx, origin, models.OutMessage{Text: msgChannelGone})
		}
		d.sessions.DropListing(ev.UserID)

		urls := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.URL != "" {
				urls = append(urls, e.URL)
			}
		}
		if len(urls) == 0 {
			return d.edit(ctx, origin, models.OutMessage{Text: msgNothingToDo})
		}

		if err := d.edit(ctx, origin, models.OutMessage{Text: msgAllChannel}); err != nil {
			return err
		}

		return d.runBatch(ctx, ev, models.RunChannel, urls, origin)

	case ActionChannelCancel:
		d.sessions.DropListing(ev.UserID)
		return d.edit(ctx, origin, models.OutMessage{Text: msgChannelCancel})

	case ActionQualityPref:
		d.sessions.SetQuality(ev.UserID, tok.Quality)
		return d.edit(ctx, origin, qualitySetMessage(tok.Quality))

	case ActionHelpSection:
		return d.edit(ctx, origin, helpSectionMessage(tok.Section))

	case ActionBackToMain:
		if err := d.edit(ctx, origin, models.OutMessage{Text: msgBackToMain}); err != nil {
			return err
		}
		return d.reply(ctx, ev, d.welcome(ev))
	}

	return fmt.Errorf("%w: %q", ErrBadToken, ev.CallbackData)
}

func (d *Dispatcher) onQualityChoice(ctx context.Context, ev models.Event, origin models.MessageRef, tok Token) error {
	url, err := d.refs.Resolve(ev.UserID, tok.Ref)
	if err != nil {
		return d.edit(ctx, origin, models.OutMessage{Text: msgRefExpired})
	}

	if err := d.edit(ctx, origin, models.OutMessage{Text: "⏬ Downloading with " + tok.Quality.Label() + "..."}); err != nil {
		return err
	}

	return d.fetchOne(ctx, ev, models.DownloadRequest{URL: url, Quality: tok.Quality})
}

func (d *Dispatcher) onChannelItem(ctx context.Context, ev models.Event, origin models.MessageRef, id string) error {
	entries, ok := d.sessions.Listing(ev.UserID)
	if !ok {
		return d.edit(ctx, origin, models.OutMessage{Text: msgChannelGone})
	}

	for _, e := range entries {
		if e.ID != id || e.URL == "" {
			continue
		}

		if err := d.edit(ctx, origin, models.OutMessage{Text: "⏬ Downloading video " + e.Title + "..."}); err != nil {
			return err
		}

		return d.fetchOne(ctx, ev, models.DownloadRequest{URL: e.URL, Quality: d.sessions.Quality(ev.UserID)})
	}

	return d.edit(ctx, origin, models.OutMessage{Text: msgChannelGone})
}

func (d *Dispatcher) fetchOne(ctx context.Context, ev models.Event, req models.DownloadRequest) error {
	release, err := d.engine.Acquire(ctx, d.queuedNotice(ctx, ev))
	if err != nil {
		return err
	}
	defer release()

	_, err = d.engine.FetchOne(ctx, ev.UserID, req, d.deliverer(ev, true))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrArtifactMissing):
		return d.reply(ctx, ev, models.OutMessage{Text: msgFileMissing})
	case errors.Is(err, models.ErrExtractionFailed):
		return d.reply(ctx, ev, models.OutMessage{Text: msgDownloadFailed})
	default:
		return d.reply(ctx, ev, models.OutMessage{Text: msgSendFailed})
	}
}

// runBatch renders progress into status. A zero status posts a new message.
func (d *Dispatcher) runBatch(ctx context.Context, ev models.Event, kind models.RunKind, urls []string, status models.MessageRef) error {
	release, err := d.engine.Acquire(ctx, d.queuedNotice(ctx, ev))
	if err != nil {
		return err
	}
	defer release()

	if status.MessageID == 0 {
		status, err = d.messenger.SendText(ctx, ev.ChatID, models.OutMessage{
			Text: fmt.Sprintf("📚 Starting download of %d videos...", len(urls)),
		})
		if err != nil {
			return err
		}
	}

	progress := func(p service.ProgressEvent) {
		var err error

		switch p.Kind {
		case service.ItemStarted:
			err = d.edit(ctx, status, models.OutMessage{Text: progressText(p.Index, p.Total, p.URL)})
		case service.ItemFailed:
			err = d.reply(ctx, ev, models.OutMessage{Text: "❌ Failed: " + p.URL})
		}

		if err != nil {
			d.log.Warn("failed to report progress", slog.Int("index", p.Index), slog.String("error", err.Error()))
		}
	}

	out := d.engine.RunBatch(ctx, ev.UserID, kind, urls, d.sessions.Quality(ev.UserID), d.deliverer(ev, false), progress)

	return d.edit(ctx, status, summaryMessage(out))
}

func (d *Dispatcher) queuedNotice(ctx context.Context, ev models.Event) func() {
	return func() {
		if err := d.reply(ctx, ev, models.OutMessage{Text: msgQueued}); err != nil {
			d.log.Warn("failed to send queued notice", slog.String("error", err.Error()))
		}
	}
}

func (d *Dispatcher) welcome(ev models.Event) models.OutMessage {
	return welcomeMessage(ev.FirstName, d.classifier.Platforms(), d.sessions.Capacity())
}

func (d *Dispatcher) reply(ctx context.Context, ev models.Event, msg models.OutMessage) error {
	_, err := d.messenger.SendText(ctx, ev.ChatID, msg)

	return err
}

func (d *Dispatcher) edit(ctx context.Context, ref models.MessageRef, msg models.OutMessage) error {
	return d.messenger.EditText(ctx, ref, msg)
}

func (d *Dispatcher) deliverer(ev models.Event, single bool) *chatDeliverer {
	return &chatDeliverer{messenger: d.messenger, chatID: ev.ChatID, userName: ev.UserName, single: single}
}
