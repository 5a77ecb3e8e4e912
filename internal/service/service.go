package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"mirror/webuntis/internal/cache"
	"mirror/webuntis/internal/compact"
	"mirror/webuntis/internal/config"
	"mirror/webuntis/internal/fetch"
	"mirror/webuntis/internal/metrics"
	"mirror/webuntis/internal/payload"
	"mirror/webuntis/internal/untis"
)

// Service answers FETCH_DATA requests.
type Service struct {
	provider     untis.Provider
	cache        cache.Store
	orchestrator *fetch.Orchestrator
	builder      *payload.Builder
	logger       fetch.Logger
	concurrency  int
	now          func() time.Time
}

// New wires a service. store may be nil to disable caching.
func New(provider untis.Provider, store cache.Store, builder *payload.Builder, logger fetch.Logger, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		provider:     provider,
		cache:        store,
		orchestrator: fetch.NewOrchestrator(provider, logger),
		builder:      builder,
		logger:       logger,
		concurrency:  concurrency,
		now:          time.Now,
	}
}

// FetchData normalizes module, fetches every student and returns one payload
// per student in config order, each addressed to requestID. Students whose
// credential group fails to authenticate get no payload.
func (s *Service) FetchData(ctx context.Context, requestID string, module config.Module) []payload.Payload {
	normalized, configWarnings := config.Normalize(module)
	for _, w := range configWarnings {
		s.logf("[WARN] config: %s", w)
	}

	slots := make([]*payload.Payload, len(normalized.Students))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, group := range config.Groups(normalized.Students) {
		group := group
		g.Go(func() error {
			s.processGroup(ctx, requestID, group, configWarnings, slots)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]payload.Payload, 0, len(slots))
	for _, p := range slots {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

type pending struct {
	student   config.Student
	position  int
	signature string
}

func (s *Service) processGroup(ctx context.Context, requestID string, group config.Group, configWarnings []string, slots []*payload.Payload) {
	var misses []pending
	for i, student := range group.Students {
		pos := group.Positions[i]
		sig := fetch.TryOrDefault(s.logger, fmt.Sprintf("cache signature student=%q", student.Title), "", func() (string, error) {
			return cache.Sign(student)
		})
		if p, ok := s.lookup(ctx, sig); ok {
			delivered := p.WithRequester(requestID, student, configWarnings)
			slots[pos] = &delivered
			continue
		}
		misses = append(misses, pending{student: student, position: pos, signature: sig})
	}
	if len(misses) == 0 {
		return
	}

	auth, err := fetch.TryOrThrow(s.logger, fmt.Sprintf("authenticate group server=%s school=%s", group.Credential.Server, group.Credential.School), func() (*untis.AuthContext, error) {
		return s.provider.Authenticate(ctx, group.Credential)
	})
	if err != nil {
		return
	}
	defer func() {
		if err := s.provider.Logout(context.WithoutCancel(ctx), auth); err != nil {
			s.logf("[WARN] logout server=%s: %v", auth.Server, err)
		}
	}()

	groupWarnings := fetch.NewWarnings()
	timegrid, _ := fetch.Wrap(func() ([]untis.RawItem, error) {
		return s.provider.Timegrid(ctx, auth)
	}, fetch.WrapOptions[[]untis.RawItem]{
		Logger: s.logger, Context: "fetch type=timegrid server=" + auth.Server, DataType: "timegrid",
		Default: []untis.RawItem{}, Warnings: groupWarnings,
	})
	rawHolidays, _ := fetch.Wrap(func() ([]untis.RawItem, error) {
		return s.provider.Holidays(ctx, auth)
	}, fetch.WrapOptions[[]untis.RawItem]{
		Logger: s.logger, Context: "fetch type=holidays server=" + auth.Server, DataType: "holidays",
		Default: []untis.RawItem{}, Warnings: groupWarnings,
	})
	holidays := compact.Compact(rawHolidays, compact.NewSchemas(false).Holiday)

	for _, miss := range misses {
		if ctx.Err() != nil {
			return
		}
		warnings := fetch.NewWarnings(groupWarnings.List()...)
		req := fetch.NewRequest(s.now(), miss.student, auth)
		res := s.orchestrator.Fetch(ctx, req, warnings)
		p := s.builder.Build(payload.Input{
			Request:   req,
			Result:    res,
			TimeUnits: timegrid,
			Holidays:  holidays,
			Warnings:  warnings,
		})
		if res.AllFailed(req) {
			s.logf("[WARN] not caching student=%q: every data type failed", miss.student.Title)
		} else {
			s.save(ctx, miss.signature, p)
		}
		delivered := p.WithRequester(requestID, miss.student, configWarnings)
		slots[miss.position] = &delivered
	}
}

func (s *Service) lookup(ctx context.Context, signature string) (payload.Payload, bool) {
	if s.cache == nil || signature == "" {
		return payload.Payload{}, false
	}
	p, err := s.cache.Get(ctx, signature)
	switch {
	case err == nil:
		metrics.ObserveCache(metrics.CacheHit)
		return p, true
	case errors.Is(err, cache.ErrMiss):
		metrics.ObserveCache(metrics.CacheMiss)
	default:
		metrics.ObserveCache(metrics.CacheError)
		s.logf("[WARN] cache get: %v", err)
	}
	return payload.Payload{}, false
}

func (s *Service) save(ctx context.Context, signature string, p payload.Payload) {
	if s.cache == nil || signature == "" {
		return
	}
	if err := s.cache.Set(ctx, signature, p); err != nil {
		s.logf("[WARN] cache set: %v", err)
	}
}

func (s *Service) logf(format string, args ...any) {
	fetch.Logf(s.logger, format, args...)
}
