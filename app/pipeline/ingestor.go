package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hann12-34/discovr-ingest/app/clock"
	"github.com/hann12-34/discovr-ingest/app/datetext"
	"github.com/hann12-34/discovr-ingest/app/dedup"
	"github.com/hann12-34/discovr-ingest/app/event"
	"github.com/hann12-34/discovr-ingest/app/locality"
	"github.com/hann12-34/discovr-ingest/app/metrics"
	"github.com/hann12-34/discovr-ingest/app/sanitize"
)

type Ingestor struct {
	sanitizer    *sanitize.Sanitizer
	filterer     *sanitize.Filterer
	resolver     *locality.Resolver
	deduplicator *dedup.Deduplicator
	configs      ConfigProvider
	runs         RunRecorder
	metrics      *metrics.Metrics
	window       datetext.Window
	sampleSize   int
	workers      int
	now          func() time.Time
}

// NewIngestor wires the stages together. configs, runs and m may be nil.
func NewIngestor(store dedup.Store, resolver *locality.Resolver, configs ConfigProvider, runs RunRecorder, m *metrics.Metrics, opts Options) *Ingestor {
	if opts.Now == nil {
		opts.Now = clock.Now
	}
	if opts.Window == (datetext.Window{}) {
		opts.Window = datetext.DefaultWindow()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	return &Ingestor{
		sanitizer:    sanitize.NewSanitizer(opts.MinTitleLength, opts.MaxTitleLength),
		filterer:     sanitize.NewFilterer(),
		resolver:     resolver,
		deduplicator: dedup.NewDeduplicator(store, opts.Now),
		configs:      configs,
		runs:         runs,
		metrics:      m,
		window:       opts.Window,
		sampleSize:   opts.RejectSampleSize,
		workers:      opts.Workers,
		now:          opts.Now,
	}
}

// Ingest processes one batch that did not come from a file or the API.
func (i *Ingestor) Ingest(ctx context.Context, sourceID string, candidates []event.CandidateRecord) (*Result, error) {
	return i.IngestFrom(ctx, sourceID, OriginInline, candidates)
}

// IngestFrom processes one batch. Record level problems end up in
// Result.Rejected; the returned error is reserved for cancellation and run
// bookkeeping failures. On cancellation the partial result is returned with
// the error and whatever was already written stays written.
func (i *Ingestor) IngestFrom(ctx context.Context, sourceID, origin string, candidates []event.CandidateRecord) (*Result, error) {
	startTime := time.Now()
	now := i.now()

	result := &Result{}
	result.Summary.Total = len(candidates)

	if i.runs != nil {
		runID, err := i.runs.StartRun(ctx, sourceID, origin, now)
		if err != nil {
			return nil, fmt.Errorf("failed to start run: %w", err)
		}
		result.RunID = runID
	}

	prof := i.profileFor(sourceID)

	staged, runErr := i.prepareAll(ctx, sourceID, prof, candidates, now)
	if runErr == nil {
		runErr = i.write(ctx, fold(staged), result)
	}

	status := metrics.BatchStatusCompleted
	if runErr != nil {
		status = metrics.BatchStatusCancelled
	}
	i.metrics.ObserveBatch(sourceID, result.Summary, status, time.Since(startTime))

	if err := i.finishRun(result, sourceID, runErr); err != nil {
		return result, err
	}

	slog.Info("Batch ingested",
		"source", sourceID,
		"origin", origin,
		"total", result.Summary.Total,
		"accepted", result.Summary.Accepted,
		"inserted", result.Summary.InsertedNew,
		"merged", result.Summary.MergedDuplicate,
		"rejected", len(result.Rejected),
		"duration", time.Since(startTime))

	return result, runErr
}

type profile struct {
	cityHint string
	order    datetext.Order
	filters  []sanitize.Rule
}

func (i *Ingestor) profileFor(sourceID string) profile {
	if i.configs == nil {
		return profile{}
	}
	config, err := i.configs.GetConfig(sourceID)
	if err != nil || config == nil {
		return profile{}
	}
	return profile{
		cityHint: config.Settings.CityHint,
		order:    config.Order(),
		filters:  config.Filters,
	}
}

// staged is one record after the pure stages: either a keyed event or a
// rejection.
type staged struct {
	record    event.CandidateRecord
	event     *event.CanonicalEvent
	rejection *event.Rejection
	leader    *staged // set when the record was folded into an earlier one
	outcome   *dedup.Outcome
}

func (i *Ingestor) prepareAll(ctx context.Context, sourceID string, prof profile, candidates []event.CandidateRecord, now time.Time) ([]*staged, error) {
	out := make([]*staged, len(candidates))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)

	for idx := range candidates {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			out[idx] = i.prepare(sourceID, prof, candidates[idx], now)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch cancelled before writing: %w", err)
	}
	return out, nil
}

// prepare runs the stages that need no storage. It never fails; problems
// become rejections.
func (i *Ingestor) prepare(sourceID string, prof profile, candidate event.CandidateRecord, now time.Time) *staged {
	if strings.TrimSpace(candidate.SourceID) == "" {
		candidate.SourceID = sourceID
	}
	s := &staged{record: candidate}

	cleaned := clean(candidate)

	if d := i.sanitizer.ClassifyTitle(cleaned.Title); !d.Keep {
		return s.reject(d.Reason, d.Detail)
	}
	if d := i.filterer.Run(cleaned, prof.filters); !d.Keep {
		return s.reject(d.Reason, d.Detail)
	}

	dateText := cleaned.DateText()
	if strings.TrimSpace(dateText) == "" {
		return s.reject(event.ReasonUnparseableDate, "no date text")
	}
	if d := i.sanitizer.ClassifyDate(dateText); !d.Keep {
		return s.reject(d.Reason, d.Detail)
	}

	dates, ok := datetext.NewParser(prof.order).Run(dateText, now)
	if !ok {
		return s.reject(event.ReasonUnparseableDate, fmt.Sprintf("cannot read date %q", dateText))
	}
	if !i.window.Contains(dates.Start, now) {
		return s.reject(event.ReasonDateOutOfWindow, fmt.Sprintf("start date %s outside plausibility window", dates.Start.Format("2006-01-02")))
	}

	hint := cleaned.CityHint
	if strings.TrimSpace(hint) == "" {
		hint = prof.cityHint
	}
	resolution, reason := i.resolver.Resolve(cleaned, hint)
	if reason != event.ReasonNone {
		return s.reject(reason, "no venue and no known city")
	}

	keys := dedup.ComputeKeys(cleaned.URL, cleaned.Title, resolution.Venue.Name, dates.Start)
	s.event = &event.CanonicalEvent{
		DedupKey:    keys.DedupKey,
		ContentKey:  keys.ContentKey,
		URLBase:     keys.URLBase,
		Title:       cleaned.Title,
		StartDate:   dates.Start,
		EndDate:     dates.End,
		Venue:       resolution.Venue,
		City:        resolution.City,
		URL:         strings.TrimSpace(cleaned.URL),
		Description: cleaned.Description,
		SourceID:    cleaned.SourceID,
	}
	return s
}

func (s *staged) reject(reason event.Reason, detail string) *staged {
	s.rejection = &event.Rejection{Record: s.record, Reason: reason, Detail: detail}
	return s
}

// clean strips markup from every free-text field a scraper fills in.
func clean(candidate event.CandidateRecord) event.CandidateRecord {
	candidate.Title = sanitize.CleanText(candidate.Title)
	candidate.Description = sanitize.CleanText(candidate.Description)
	candidate.Location = sanitize.CleanText(candidate.Location)
	candidate.Venue.Text = sanitize.CleanText(candidate.Venue.Text)
	candidate.Venue.Name = sanitize.CleanText(candidate.Venue.Name)
	candidate.Venue.Address = sanitize.CleanText(candidate.Venue.Address)
	candidate.Venue.City = sanitize.CleanText(candidate.Venue.City)
	if candidate.RawDateText != nil {
		text := sanitize.CleanText(*candidate.RawDateText)
		candidate.RawDateText = &text
	}
	return candidate
}

// fold collapses records that share an identity inside the batch onto the
// first one, filling its empty optional fields from the later ones. Content
// keys pair a record without a URL with any earlier record, and a record
// with a URL with an earlier one that has none, matching the store lookups.
func fold(records []*staged) []*staged {
	byDedupKey := make(map[string]*staged)
	byContentKey := make(map[string]*staged)
	urlLessByContentKey := make(map[string]*staged)

	for _, s := range records {
		if s.event == nil {
			continue
		}

		leader, ok := byDedupKey[s.event.DedupKey]
		if !ok {
			if s.event.URLBase == "" {
				leader, ok = byContentKey[s.event.ContentKey]
			} else {
				leader, ok = urlLessByContentKey[s.event.ContentKey]
			}
		}
		if ok {
			dedup.PatchFor(leader.event, s.event).Fill(leader.event)
			s.leader = leader
			continue
		}

		byDedupKey[s.event.DedupKey] = s
		if _, exists := byContentKey[s.event.ContentKey]; !exists {
			byContentKey[s.event.ContentKey] = s
		}
		if _, exists := urlLessByContentKey[s.event.ContentKey]; !exists && s.event.URLBase == "" {
			urlLessByContentKey[s.event.ContentKey] = s
		}
	}

	return records
}

// write hands leaders to the deduplicator in batch order and settles every
// record's accounting. It stops at the first record after ctx is done.
func (i *Ingestor) write(ctx context.Context, records []*staged, result *Result) error {
	for _, s := range records {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("batch cancelled: %w", err)
		}

		switch {
		case s.rejection != nil:
			i.rejectRecord(result, *s.rejection)

		case s.leader != nil:
			leader := s.leader
			if leader.rejection != nil {
				i.rejectRecord(result, event.Rejection{Record: s.record, Reason: leader.rejection.Reason, Detail: "folded into a record that was not stored: " + leader.rejection.Detail})
				continue
			}
			result.Summary.MergedDuplicate++
			i.acceptRecord(result, leader.outcome.Event)

		default:
			outcome, err := i.deduplicator.Apply(ctx, s.event)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return fmt.Errorf("batch cancelled: %w", err)
				}
				slog.Warn("Failed to store event", "source", s.event.SourceID, "dedup_key", s.event.DedupKey, "error", err)
				s.rejection = &event.Rejection{Record: s.record, Reason: event.ReasonPersistenceConflict, Detail: err.Error()}
				i.rejectRecord(result, *s.rejection)
				continue
			}

			s.outcome = &outcome
			switch outcome.Action {
			case dedup.ActionInsert:
				result.Summary.InsertedNew++
				i.acceptRecord(result, outcome.Event)
			case dedup.ActionMerge:
				result.Summary.MergedDuplicate++
				i.acceptRecord(result, outcome.Event)
			default:
				s.rejection = &event.Rejection{Record: s.record, Reason: event.ReasonPersistenceConflict, Detail: "lost write race for " + s.event.DedupKey}
				i.rejectRecord(result, *s.rejection)
			}
		}
	}

	return nil
}

func (i *Ingestor) acceptRecord(result *Result, ev *event.CanonicalEvent) {
	result.Summary.Accepted++
	result.Accepted = append(result.Accepted, ev)
}

func (i *Ingestor) rejectRecord(result *Result, rejection event.Rejection) {
	result.Summary.Count(rejection.Reason)
	result.Rejected = append(result.Rejected, rejection)
	slog.Debug("Record rejected", "source", rejection.Record.SourceID, "reason", rejection.Reason, "title", rejection.Record.Title, "detail", rejection.Detail)
}

// finishRun stores the summary and a sample of rejections. It uses a fresh
// context so a cancelled batch still gets its run closed.
func (i *Ingestor) finishRun(result *Result, sourceID string, runErr error) error {
	if i.runs == nil || result.RunID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	at := i.now()

	sample := result.Rejected
	if i.sampleSize >= 0 && len(sample) > i.sampleSize {
		sample = sample[:i.sampleSize]
	}
	if err := i.runs.AddRejections(ctx, result.RunID, sourceID, sample, at); err != nil {
		return fmt.Errorf("failed to store rejections: %w", err)
	}

	if err := i.runs.FinishRun(ctx, result.RunID, result.Summary, runErr, at); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	return nil
}
