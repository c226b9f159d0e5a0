package testutil

import (
	"context"
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/pnl-tracker/internal/repository"
	"github.com/ndewijer/pnl-tracker/internal/service"
)

// TestCredentialKey is a valid fernet key for tests. Never use it outside
// tests.
const TestCredentialKey = "cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4="

// NewTestTransactionService creates a TransactionService over db with an
// empty ledger.
func NewTestTransactionService(t *testing.T, db *sql.DB) *service.TransactionService {
	t.Helper()

	transactionRepo := repository.NewTransactionRepository(repository.NewStore(db))
	svc, err := service.NewTransactionService(context.Background(), transactionRepo, time.UTC)
	if err != nil {
		t.Fatalf("Failed to create transaction service: %v", err)
	}
	return svc
}

// NewTestSettingsService creates a SettingsService over db.
func NewTestSettingsService(t *testing.T, db *sql.DB) *service.SettingsService {
	t.Helper()

	return service.NewSettingsService(repository.NewSettingsRepository(repository.NewStore(db)))
}

// NewTestSourceService creates a SourceService over db using
// TestCredentialKey.
func NewTestSourceService(t *testing.T, db *sql.DB, txService *service.TransactionService, opts service.SourceOptions) *service.SourceService {
	t.Helper()

	store := repository.NewStore(db)
	credentials, err := repository.NewCredentialRepository(store, TestCredentialKey)
	if err != nil {
		t.Fatalf("Failed to create credential repository: %v", err)
	}
	return service.NewSourceService(
		repository.NewSourceRepository(store),
		credentials,
		txService,
		opts,
	)
}

// NewTestPipelineService creates a PipelineService over db in UTC with a
// USD display currency.
func NewTestPipelineService(
	t *testing.T,
	db *sql.DB,
	txService *service.TransactionService,
	sources service.BalanceFetcher,
	oracle *MockOracle,
	dispatcher service.Deliverer,
	startingBalance float64,
) *service.PipelineService {
	t.Helper()

	store := repository.NewStore(db)
	svc, err := service.NewPipelineService(
		context.Background(),
		txService,
		sources,
		oracle,
		service.NewSettingsService(repository.NewSettingsRepository(store)),
		repository.NewSnapshotRepository(store),
		dispatcher,
		service.PipelineOptions{Currency: "USD", StartingBalance: startingBalance, Location: time.UTC},
	)
	if err != nil {
		t.Fatalf("Failed to create pipeline service: %v", err)
	}
	return svc
}

// NewTestSystemService creates a SystemService over db.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeSymbol generates a ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("BTC")
//	// Returns: "BTC1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// MakeSourceName generates a unique valid source name for testing.
func MakeSourceName(base string) string {
	if base == "" {
		base = "source"
	}
	return base + "-" + randomLower(6)
}

// randomAlphanumeric generates a random upper-case alphanumeric string of
// the given length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	return randomFrom(charset, length)
}

func randomLower(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	return randomFrom(charset, length)
}

func randomFrom(charset string, length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))] //nolint:gosec // Test data only
	}
	return string(b)
}
