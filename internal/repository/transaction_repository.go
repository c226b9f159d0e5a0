package repository

import (
	"context"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

const ledgerKey = "ledger"

// TransactionRepository persists the transaction ledger as one JSON array in
// insertion order.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Load returns the persisted ledger, or an empty slice on first run.
func (r *TransactionRepository) Load(ctx context.Context) ([]model.Transaction, error) {
	transactions := []model.Transaction{}
	if _, err := loadJSON(ctx, r.store, ledgerKey, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// Save replaces the persisted ledger.
func (r *TransactionRepository) Save(ctx context.Context, transactions []model.Transaction) error {
	if transactions == nil {
		transactions = []model.Transaction{}
	}
	return saveJSON(ctx, r.store, ledgerKey, transactions)
}
