package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/pnl-tracker/internal/api/request"
	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/ledger"
	"github.com/ndewijer/pnl-tracker/internal/model"
	"github.com/ndewijer/pnl-tracker/internal/repository"
)

// TransactionService owns the ledger. Every change is persisted before it
// becomes visible to readers.
type TransactionService struct {
	mu              sync.RWMutex
	ledger          *ledger.Ledger
	transactionRepo *repository.TransactionRepository
	location        *time.Location
	now             func() time.Time

	// OnChange, if set, is called after every successful ledger change.
	OnChange func()
}

// NewTransactionService restores the ledger from transactionRepo.
func NewTransactionService(
	ctx context.Context,
	transactionRepo *repository.TransactionRepository,
	location *time.Location,
) (*TransactionService, error) {
	transactions, err := transactionRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if location == nil {
		location = time.Local
	}
	return &TransactionService{
		ledger:          ledger.FromTransactions(transactions),
		transactionRepo: transactionRepo,
		location:        location,
		now:             time.Now,
	}, nil
}

// GetTransactions returns the ledger in insertion order. A non-empty symbol
// filters case-insensitively.
func (s *TransactionService) GetTransactions(symbol string) []model.Transaction {
	s.mu.RLock()
	all := s.ledger.All()
	s.mu.RUnlock()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return all
	}
	out := make([]model.Transaction, 0, len(all))
	for _, t := range all {
		if t.Symbol == symbol {
			out = append(out, t)
		}
	}
	return out
}

// GetTransaction returns a single transaction by ID.
func (s *TransactionService) GetTransaction(id string) (model.Transaction, error) {
	if strings.TrimSpace(id) == "" {
		return model.Transaction{}, apperrors.ErrEmptyID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.ledger.Get(id)
	if !ok {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	return t, nil
}

// CreateTransaction appends a transaction built from req.
func (s *TransactionService) CreateTransaction(ctx context.Context, req request.CreateTransactionRequest) (model.Transaction, error) {
	occurredAt := s.now()
	if strings.TrimSpace(req.OccurredAt) != "" {
		t, err := request.ParseTimestamp(req.OccurredAt, s.location)
		if err != nil {
			return model.Transaction{}, apperrors.NewValidationError("occurredAt", err.Error())
		}
		occurredAt = t
	}

	return s.Append(ctx, model.Transaction{
		ID:         strings.TrimSpace(req.ID),
		Symbol:     req.Symbol,
		Side:       model.Side(strings.ToLower(strings.TrimSpace(req.Side))),
		Amount:     req.Amount,
		UnitPrice:  req.UnitPrice,
		Fee:        req.Fee,
		OccurredAt: occurredAt,
		Source:     req.Source,
	})
}

// Append validates, stores and persists t. When persisting fails the append
// is rolled back.
func (s *TransactionService) Append(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	s.mu.Lock()
	stored, err := s.ledger.Append(t)
	if err != nil {
		s.mu.Unlock()
		return model.Transaction{}, err
	}
	if err := s.transactionRepo.Save(ctx, s.ledger.All()); err != nil {
		s.ledger.Remove(stored.ID)
		s.mu.Unlock()
		return model.Transaction{}, fmt.Errorf("persist ledger: %w", err)
	}
	s.mu.Unlock()

	s.changed()
	return stored, nil
}

// DeleteTransaction removes the transaction with the given ID.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.ErrEmptyID
	}

	s.mu.Lock()
	removed, ok := s.ledger.Get(id)
	if !ok {
		s.mu.Unlock()
		return apperrors.ErrTransactionNotFound
	}
	before := s.ledger.All()
	s.ledger.Remove(id)
	if err := s.transactionRepo.Save(ctx, s.ledger.All()); err != nil {
		s.ledger = ledger.FromTransactions(before)
		s.mu.Unlock()
		return fmt.Errorf("persist ledger: %w", err)
	}
	s.mu.Unlock()

	log.Info().Str("id", removed.ID).Str("symbol", removed.Symbol).Msg("transaction removed")
	s.changed()
	return nil
}

// Import appends transactions fetched from source. IDs are namespaced as
// "<source>:<id>" and already imported IDs are skipped, so re-syncing is
// idempotent. Invalid entries are skipped and logged. Returns the number of
// new transactions.
func (s *TransactionService) Import(ctx context.Context, source string, transactions []model.Transaction) (int, error) {
	s.mu.Lock()
	before := s.ledger.All()

	imported := 0
	for _, t := range transactions {
		t.ID = source + ":" + t.ID
		t.Source = source
		if s.ledger.Has(t.ID) {
			continue
		}
		if _, err := s.ledger.Append(t); err != nil {
			log.Warn().Err(err).Str("source", source).Str("id", t.ID).Msg("skipping invalid imported transaction")
			continue
		}
		imported++
	}

	if imported == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	if err := s.transactionRepo.Save(ctx, s.ledger.All()); err != nil {
		s.ledger = ledger.FromTransactions(before)
		s.mu.Unlock()
		return 0, fmt.Errorf("persist ledger: %w", err)
	}
	s.mu.Unlock()

	s.changed()
	return imported, nil
}

// Snapshot returns the ledger contents for one pipeline run.
func (s *TransactionService) Snapshot() []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.All()
}

// Location is the time zone date-only timestamps are read in.
func (s *TransactionService) Location() *time.Location {
	return s.location
}

func (s *TransactionService) changed() {
	if s.OnChange != nil {
		s.OnChange()
	}
}
