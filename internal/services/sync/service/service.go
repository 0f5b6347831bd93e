// Package service drives the extraction run: it partitions the configured
// date range into windows per (stream, index), fetches and normalizes each
// window, hands records to the sink, and advances the bookmark after every
// completed window
package service

import (
	"context"
	"sync"

	"algoliatap/internal/core/normalize"
	"algoliatap/internal/core/streams"
	"algoliatap/internal/core/window"
	perr "algoliatap/internal/platform/errors"
	"algoliatap/internal/platform/logger"
	"algoliatap/internal/platform/timeutil"
	"algoliatap/internal/services/sync/domain"
)

// Service implements the sync run
type Service struct {
	Client domain.RequesterPort
	Sink   domain.SinkPort
	Marks  *Checkpoints
	Cfg    domain.Config

	today func() timeutil.Date
}

// New constructs the sync service
func New(client domain.RequesterPort, sink domain.SinkPort, state domain.StatePort, cfg domain.Config) *Service {
	if client == nil {
		panic("sync.Service requires a non nil requester")
	}
	if sink == nil {
		panic("sync.Service requires a non nil sink")
	}
	if state == nil {
		panic("sync.Service requires a non nil state store")
	}
	return &Service{
		Client: client,
		Sink:   sink,
		Marks:  &Checkpoints{State: state, Rewind: cfg.Rewind},
		Cfg:    cfg,
		today:  timeutil.Today,
	}
}

// Run processes every (stream, index) partition. Partitions are independent:
// a partition that exhausts its retry budget is reported in the summary but
// does not stop the others. Credential and config failures abort the whole
// run and come back as the error.
func (s *Service) Run(ctx context.Context) (domain.Summary, error) {
	_, end, err := s.Cfg.Bounds(s.today())
	if err != nil {
		return domain.Summary{}, err
	}
	descs, err := s.Cfg.Descriptors()
	if err != nil {
		return domain.Summary{}, err
	}

	parts := make([]domain.Partition, 0, len(descs)*len(s.Cfg.Indices))
	for _, d := range descs {
		for _, idx := range s.Cfg.Indices {
			parts = append(parts, domain.Partition{Stream: d, Index: idx})
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := max(s.Cfg.Workers, 1)
	work := make(chan domain.Partition)
	results := make([]domain.PartitionResult, 0, len(parts))

	var (
		mu    sync.Mutex
		fatal error
		wg    sync.WaitGroup
	)

	worker := func() {
		defer wg.Done()
		for p := range work {
			res := s.runPartition(runCtx, p, end)
			mu.Lock()
			results = append(results, res)
			if res.Err != nil && isFatal(res.Err) && fatal == nil {
				fatal = res.Err
				cancel()
			}
			mu.Unlock()
		}
	}

	wg.Add(w)
	for i := 0; i < w; i++ {
		go worker()
	}

feed:
	for _, p := range parts {
		select {
		case <-runCtx.Done():
			break feed
		case work <- p:
		}
	}
	close(work)
	wg.Wait()

	sum := domain.Summary{Partitions: results}
	for _, r := range results {
		sum.Records += r.Records
	}
	if fatal != nil {
		return sum, fatal
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

// runPartition syncs one (stream, index) pair window by window.
// Cancellation is honored between windows only; a window either completes
// and checkpoints or leaves the bookmark untouched.
func (s *Service) runPartition(ctx context.Context, p domain.Partition, end timeutil.Date) domain.PartitionResult {
	res := domain.PartitionResult{Stream: p.Stream.Name, Index: p.Index}
	ctx = logger.WithPartition(ctx, p.Stream.Name, p.Index)
	log := logger.C(ctx)

	start, _, err := s.Cfg.Bounds(s.today())
	if err != nil {
		res.Err = err
		return res
	}
	eff, err := s.Marks.EffectiveStart(ctx, p.Stream.Name, p.Index, start)
	if err != nil {
		res.Err = err
		return res
	}

	wins := window.Partition(eff, end, window.ClampSize(s.Cfg.WindowDays))
	if len(wins) == 0 {
		log.Debug().Str("effective_start", eff.String()).Msg("partition already up to date")
		return res
	}
	log.Info().
		Str("effective_start", eff.String()).
		Str("end", end.String()).
		Int("windows", len(wins)).
		Msg("partition starting")

	for _, w := range wins {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		res.Windows++

		n, err := s.runWindow(ctx, p, w)
		if err != nil {
			if perr.IsCode(err, perr.ErrorCodeSchemaMismatch) {
				// a bad payload stops the partition at this window; the
				// bookmark stays at the last clean window so the next run
				// retries it
				log.Error().Err(err).Str("window", w.String()).Msg("window payload mismatch")
				res.Failed++
			}
			res.Err = perr.WithOp(err, "window "+w.String())
			return res
		}
		res.Records += n

		if err := s.Marks.Advance(ctx, p.Stream.Name, p.Index, w.End); err != nil {
			res.Err = perr.WithOp(err, "advance "+w.End.String())
			return res
		}
		log.Debug().Str("window", w.String()).Int("records", n).Msg("window checkpointed")
	}

	log.Info().Int("windows", res.Windows).Int("records", res.Records).Int("failed", res.Failed).Msg("partition done")
	return res
}

// runWindow fetches one window, paging when the stream paginates, and hands
// every page's records to the sink. The bookmark is not touched here.
func (s *Service) runWindow(ctx context.Context, p domain.Partition, w window.Window) (int, error) {
	q := streams.Query{
		Index:          p.Index,
		Window:         w,
		Tags:           s.Cfg.Tags,
		ClickAnalytics: s.Cfg.IncludeClickAnalytics(),
	}

	total := 0
	for {
		body, err := s.Client.Get(ctx, p.Stream.Path, streams.BuildParams(p.Stream, q))
		if err != nil {
			return total, err
		}
		recs, err := normalize.Records(p.Stream, p.Index, w, body)
		if err != nil {
			return total, err
		}
		if len(recs) > 0 {
			if err := s.Sink.Write(ctx, p.Stream.Name, recs); err != nil {
				return total, err
			}
			total += len(recs)
		}

		if !p.Stream.Paginated || len(recs) < p.Stream.Limit {
			return total, nil
		}
		q.Offset += p.Stream.Limit
	}
}

// isFatal reports errors that must abort the entire run, not just a partition
func isFatal(err error) bool {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeUnauthorized, perr.ErrorCodeConfig:
		return true
	}
	return false
}
