package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"mediabot/internal/config"
	"mediabot/internal/models"
)

type Extractor interface {
	Fetch(ctx context.Context, req models.DownloadRequest) (*models.DownloadResult, error)
	ListChannel(ctx context.Context, rawURL string, maxItems int) ([]models.ChannelEntry, error)
}

// Deliverer hands a finished artifact to the user.
type Deliverer interface {
	DeliverFile(ctx context.Context, res *models.DownloadResult) error
	DeliverOversize(ctx context.Context, res *models.DownloadResult) error
}

type Recorder interface {
	Record(ctx context.Context, run models.BatchRun) error
}

type ProgressKind int

const (
	ItemStarted ProgressKind = iota
	ItemFailed
	ItemSucceeded
)

type ProgressEvent struct {
	Kind   ProgressKind
	Index  int // 1-based
	Total  int
	URL    string
	Result *models.DownloadResult
	Err    error
}

type ProgressFunc func(ProgressEvent)

type Service struct {
	extractor     Extractor
	recorder      Recorder
	log           *slog.Logger
	deliveryLimit int64
	maxBulk       int
	delay         time.Duration
	sleep         func(ctx context.Context, d time.Duration)

	slots   chan struct{}
	running atomic.Int32
}

func NewService(cfg *config.Config, ext Extractor, rec Recorder, log *slog.Logger) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}

	return &Service{
		extractor:     ext,
		recorder:      rec,
		log:           log.With(slog.String("component", "engine")),
		deliveryLimit: cfg.Limits.MaxDeliverySizeBytes(),
		maxBulk:       cfg.Limits.MaxBulkItems,
		delay:         cfg.Download.BatchDelay,
		sleep:         sleepCtx,
		slots:         make(chan struct{}, cfg.Limits.MaxActiveBatches),
	}
}

// Acquire takes a batch slot, blocking while MaxActiveBatches are running.
// onWait, when set, is called once before blocking.
func (s *Service) Acquire(ctx context.Context, onWait func()) (release func(), err error) {
	release = func() {
		s.running.Add(-1)
		<-s.slots
	}

	select {
	case s.slots <- struct{}{}:
		s.running.Add(1)
		return release, nil
	default:
	}

	if onWait != nil {
		onWait()
	}

	select {
	case s.slots <- struct{}{}:
		s.running.Add(1)
		return release, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) Running() int {
	return int(s.running.Load())
}

func (s *Service) MaxBulk() int {
	return s.maxBulk
}

// RunBatch processes urls one at a time. Item failures are counted, never returned.
func (s *Service) RunBatch(
	ctx context.Context,
	user models.UserID,
	kind models.RunKind,
	urls []string,
	quality models.Quality,
	d Deliverer,
	progress ProgressFunc,
) models.BulkOutcome {
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	outcome := models.BulkOutcome{Total: len(urls)}
	if len(urls) == 0 {
		return outcome
	}

	started := time.Now()
	log := s.log.With(slog.Int64("user_id", int64(user)), slog.String("kind", string(kind)))
	log.Info("batch started", slog.Int("total", len(urls)), slog.String("quality", string(quality)))

	for i, url := range urls {
		ev := ProgressEvent{Index: i + 1, Total: len(urls), URL: url}

		ev.Kind = ItemStarted
		progress(ev)

		res, err := s.processItem(ctx, models.DownloadRequest{URL: url, Quality: quality}, d)
		if err != nil {
			outcome.Failed++

			log.Warn("item failed", slog.Int("index", i+1), slog.String("url", url), slog.String("error", err.Error()))

			ev.Kind, ev.Err = ItemFailed, err
			progress(ev)
		} else {
			outcome.Succeeded++

			ev.Kind, ev.Result = ItemSucceeded, res
			progress(ev)
		}

		if i < len(urls)-1 {
			s.pause(ctx)
		}
	}

	log.Info("batch finished",
		slog.Int("succeeded", outcome.Succeeded),
		slog.Int("failed", outcome.Failed),
	)

	s.record(ctx, user, kind, outcome, started)

	return outcome
}

// FetchOne downloads and delivers a single request.
func (s *Service) FetchOne(ctx context.Context, user models.UserID, req models.DownloadRequest, d Deliverer) (*models.DownloadResult, error) {
	started := time.Now()

	res, err := s.processItem(ctx, req, d)

	outcome := models.BulkOutcome{Total: 1, Succeeded: 1}
	if err != nil {
		outcome = models.BulkOutcome{Total: 1, Failed: 1}
		s.log.Warn("single download failed",
			slog.Int64("user_id", int64(user)),
			slog.String("url", req.URL),
			slog.String("error", err.Error()),
		)
	}

	s.record(ctx, user, models.RunSingle, outcome, started)

	return res, err
}

// ListChannel clamps count to the bulk limit and lists without downloading.
func (s *Service) ListChannel(ctx context.Context, rawURL string, count int) ([]models.ChannelEntry, error) {
	return s.extractor.ListChannel(ctx, rawURL, s.ClampCount(count))
}

func (s *Service) ClampCount(count int) int {
	if count > s.maxBulk {
		return s.maxBulk
	}
	if count < 1 {
		return 1
	}

	return count
}

func (s *Service) pause(ctx context.Context) {
	if s.delay <= 0 {
		return
	}

	s.sleep(ctx, s.delay)
}

// sleepCtx returns early when ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (s *Service) record(ctx context.Context, user models.UserID, kind models.RunKind, outcome models.BulkOutcome, started time.Time) {
	run := models.BatchRun{
		UserID:     user,
		Kind:       kind,
		Outcome:    outcome,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}

	if err := s.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
		s.log.Error("failed to record run", slog.String("error", err.Error()))
	}
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, models.BatchRun) error { return nil }
