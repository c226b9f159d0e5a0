package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/pnl-tracker/internal/accounting"
	"github.com/ndewijer/pnl-tracker/internal/api/request"
	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/exchange"
	"github.com/ndewijer/pnl-tracker/internal/model"
	"github.com/ndewijer/pnl-tracker/internal/repository"
)

// maxConcurrentFetches bounds the source fan-out.
const maxConcurrentFetches = 8

// SourceOptions configures a SourceService.
type SourceOptions struct {
	Wallet    exchange.BalanceReader // used by basechain connectors
	Guard     exchange.GuardOptions
	SyncLimit int

	// OnFailure, if set, is called with the name of every failed source.
	OnFailure func(source string)
}

type sourceEntry struct {
	info model.ConnectedSource
	conn exchange.Connector // nil when the connector could not be rebuilt
}

// SourceService manages connected exchanges and wallets: connecting,
// fetching balances and importing trades.
type SourceService struct {
	mu          sync.RWMutex
	entries     map[string]*sourceEntry
	sourceRepo  *repository.SourceRepository
	credentials *repository.CredentialRepository
	txService   *TransactionService
	opts        SourceOptions
	now         func() time.Time
}

// NewSourceService creates a new SourceService with the provided repository
// dependencies.
func NewSourceService(
	sourceRepo *repository.SourceRepository,
	credentials *repository.CredentialRepository,
	txService *TransactionService,
	opts SourceOptions,
) *SourceService {
	if opts.SyncLimit <= 0 {
		opts.SyncLimit = 100
	}
	return &SourceService{
		entries:     make(map[string]*sourceEntry),
		sourceRepo:  sourceRepo,
		credentials: credentials,
		txService:   txService,
		opts:        opts,
		now:         time.Now,
	}
}

// Restore rebuilds connectors for the persisted sources. A source whose
// credentials cannot be loaded stays listed with its error.
func (s *SourceService) Restore(ctx context.Context) error {
	sources, err := s.sourceRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveSources, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, info := range sources {
		entry := &sourceEntry{info: info}
		conn, err := s.build(ctx, info)
		if err != nil {
			log.Warn().Err(err).Str("source", info.Name).Msg("failed to restore source")
			entry.info.LastError = err.Error()
		} else {
			entry.conn = conn
		}
		s.entries[info.Name] = entry
	}
	return nil
}

func (s *SourceService) build(ctx context.Context, info model.ConnectedSource) (exchange.Connector, error) {
	var creds model.Credentials
	if exchange.Kind(info.Kind) != exchange.KindSimulated {
		var err error
		if creds, err = s.credentials.Load(ctx, info.Name); err != nil {
			return nil, err
		}
	}
	conn, err := exchange.New(exchange.Config{
		Name:        info.Name,
		Kind:        exchange.Kind(info.Kind),
		Credentials: creds,
		Wallet:      s.opts.Wallet,
	})
	if err != nil {
		return nil, err
	}
	return exchange.Guard(conn, s.opts.Guard), nil
}

// Attach registers a connector defined in configuration. Attached sources
// are not persisted and cannot be disconnected.
func (s *SourceService) Attach(conn exchange.Connector) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[conn.Name()] = &sourceEntry{
		info: model.ConnectedSource{
			Name:        conn.Name(),
			Kind:        string(conn.Kind()),
			ConnectedAt: s.now(),
			Configured:  true,
		},
		conn: exchange.Guard(conn, s.opts.Guard),
	}
}

// Connect validates credentials, stores them encrypted and registers the
// source.
func (s *SourceService) Connect(ctx context.Context, req request.ConnectSourceRequest) (model.ConnectedSource, error) {
	name := strings.TrimSpace(req.Name)

	s.mu.RLock()
	_, exists := s.entries[name]
	s.mu.RUnlock()
	if exists {
		return model.ConnectedSource{}, apperrors.ErrDuplicateSource
	}

	creds := model.Credentials{APIKey: req.APIKey, APISecret: req.APISecret, Address: req.Address}
	kind := exchange.Kind(req.Kind)
	conn, err := exchange.New(exchange.Config{Name: name, Kind: kind, Credentials: creds, Wallet: s.opts.Wallet})
	if err != nil {
		return model.ConnectedSource{}, err
	}
	conn = exchange.Guard(conn, s.opts.Guard)

	ok, err := conn.ValidateCredentials(ctx)
	if err != nil {
		return model.ConnectedSource{}, err
	}
	if !ok {
		return model.ConnectedSource{}, &apperrors.ConfigError{Source: name, Reason: "credentials rejected", Err: apperrors.ErrInvalidCredentials}
	}

	if kind != exchange.KindSimulated {
		if err := s.credentials.Save(ctx, name, creds); err != nil {
			return model.ConnectedSource{}, err
		}
	}

	info := model.ConnectedSource{Name: name, Kind: string(kind), ConnectedAt: s.now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[name]; exists {
		return model.ConnectedSource{}, apperrors.ErrDuplicateSource
	}
	s.entries[name] = &sourceEntry{info: info, conn: conn}
	if err := s.persistLocked(ctx); err != nil {
		delete(s.entries, name)
		return model.ConnectedSource{}, err
	}

	log.Info().Str("source", name).Str("kind", string(kind)).Msg("source connected")
	return info, nil
}

// Disconnect removes a source and its credentials. Imported transactions
// stay in the ledger.
func (s *SourceService) Disconnect(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[name]
	if !ok {
		return apperrors.ErrSourceNotFound
	}
	if entry.info.Configured {
		return apperrors.NewValidationError("name", "configured sources cannot be disconnected")
	}

	delete(s.entries, name)
	if err := s.persistLocked(ctx); err != nil {
		s.entries[name] = entry
		return err
	}
	if err := s.credentials.Delete(ctx, name); err != nil {
		log.Warn().Err(err).Str("source", name).Msg("failed to delete credentials")
	}

	log.Info().Str("source", name).Msg("source disconnected")
	return nil
}

// ListSources returns all sources sorted by name.
func (s *SourceService) ListSources() []model.ConnectedSource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ConnectedSource, 0, len(s.entries))
	for _, e := range s.entries {
		info := e.info
		if e.conn != nil {
			info.Breaker = exchange.State(e.conn)
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FetchBalances reads every source concurrently. A failing source is
// reported in its result and never blocks the others.
func (s *SourceService) FetchBalances(ctx context.Context) []accounting.SourceResult {
	entries := s.snapshot()
	results := make([]accounting.SourceResult, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, e := range entries {
		i, e := i, e
		results[i] = accounting.SourceResult{Name: e.info.Name, Kind: exchange.SourceKind(exchange.Kind(e.info.Kind))}
		g.Go(func() error {
			if e.conn == nil {
				results[i].Err = &apperrors.SourceFetchError{Source: e.info.Name, Op: "balances", Err: errors.New(e.info.LastError)}
				return nil
			}
			holdings, err := e.conn.GetBalances(gctx)
			results[i].Holdings = holdings
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		s.recordResult(r.Name, r.Err, nil)
	}
	return results
}

// Sync imports trades from the named sources, or from all sources when none
// are named. Failures are listed in the report; the returned error is set
// only when a named source does not exist or the ledger cannot be saved.
func (s *SourceService) Sync(ctx context.Context, names ...string) (model.SyncReport, error) {
	entries, err := s.selectEntries(names)
	if err != nil {
		return model.SyncReport{}, err
	}

	type fetched struct {
		txs []model.Transaction
		err error
	}
	results := make([]fetched, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			if e.conn == nil {
				results[i].err = &apperrors.SourceFetchError{Source: e.info.Name, Op: "transactions", Err: errors.New(e.info.LastError)}
				return nil
			}
			txs, err := e.conn.GetTransactions(gctx, s.opts.SyncLimit)
			results[i] = fetched{txs: txs, err: err}
			return nil
		})
	}
	_ = g.Wait()

	report := model.SyncReport{
		SyncID:   uuid.New().String(),
		Imported: make(map[string]int),
		Synced:   []string{},
		Failures: []model.SourceFailure{},
		SyncedAt: s.now(),
	}

	for i, e := range entries {
		name := e.info.Name
		if results[i].err != nil {
			report.Failures = append(report.Failures, model.SourceFailure{
				Source: name,
				Kind:   exchange.SourceKind(exchange.Kind(e.info.Kind)),
				Error:  results[i].err.Error(),
			})
			s.recordResult(name, results[i].err, nil)
			continue
		}

		n, err := s.txService.Import(ctx, name, results[i].txs)
		if err != nil {
			return report, fmt.Errorf("%w: %w", apperrors.ErrFailedToSync, err)
		}
		report.Imported[name] = n
		report.Synced = append(report.Synced, name)
		at := report.SyncedAt
		s.recordResult(name, nil, &at)
	}

	s.mu.Lock()
	if err := s.persistLocked(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to persist source sync state")
	}
	s.mu.Unlock()

	log.Info().
		Str("sync_id", report.SyncID).
		Strs("synced", report.Synced).
		Int("failures", len(report.Failures)).
		Msg("source sync finished")
	return report, nil
}

func (s *SourceService) selectEntries(names []string) ([]sourceEntry, error) {
	if len(names) == 0 {
		return s.snapshot(), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]sourceEntry, 0, len(names))
	for _, name := range names {
		e, ok := s.entries[name]
		if !ok {
			return nil, apperrors.ErrSourceNotFound
		}
		out = append(out, *e)
	}
	return out, nil
}

// snapshot copies the entries in name order.
func (s *SourceService) snapshot() []sourceEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]sourceEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].info.Name < out[j].info.Name })
	return out
}

func (s *SourceService) recordResult(name string, err error, syncedAt *time.Time) {
	if err != nil {
		log.Warn().Err(err).Str("source", name).Msg("source fetch failed")
		if s.opts.OnFailure != nil {
			s.opts.OnFailure(name)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return
	}
	if err != nil {
		e.info.LastError = err.Error()
	} else if e.conn != nil {
		e.info.LastError = ""
	}
	if syncedAt != nil {
		e.info.LastSyncAt = syncedAt
	}
}

// persistLocked saves the non-configured sources. Caller holds s.mu.
func (s *SourceService) persistLocked(ctx context.Context) error {
	sources := make([]model.ConnectedSource, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.info.Configured {
			sources = append(sources, e.info)
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return s.sourceRepo.Save(ctx, sources)
}
