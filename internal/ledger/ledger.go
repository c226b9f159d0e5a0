// Package ledger holds the append-only log of buy and sell transactions.
package ledger

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/model"
)

// Ledger is an ordered log of transactions in insertion order. It performs no
// resorting and no deduplication; callers that need time order sort by OccurredAt.
//
// A Ledger is not safe for concurrent use. It has exactly one owner at a time.
type Ledger struct {
	transactions []model.Transaction
	index        map[string]int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// FromTransactions rebuilds a ledger from a persisted sequence, keeping its order.
// Entries are trusted as given; they were validated when first appended.
func FromTransactions(transactions []model.Transaction) *Ledger {
	l := New()
	for _, t := range transactions {
		if _, ok := l.index[t.ID]; ok {
			continue
		}
		l.index[t.ID] = len(l.transactions)
		l.transactions = append(l.transactions, t)
	}
	return l
}

// Validate checks a transaction against the ledger's input rules and returns
// the normalized copy that Append would store.
func Validate(t model.Transaction) (model.Transaction, error) {
	fields := make(map[string]string)

	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	if t.Symbol == "" {
		fields["symbol"] = "symbol is required"
	}
	if t.Side != model.SideBuy && t.Side != model.SideSell {
		fields["side"] = "side must be buy or sell"
	}
	if t.Amount <= 0 {
		fields["amount"] = "amount must be positive"
	}
	if t.UnitPrice < 0 {
		fields["unitPrice"] = "unitPrice cannot be negative"
	}
	if t.Fee < 0 {
		fields["fee"] = "fee cannot be negative"
	}
	if t.OccurredAt.IsZero() {
		fields["occurredAt"] = "occurredAt is required"
	}
	if strings.TrimSpace(t.Source) == "" {
		t.Source = model.SourceManual
	}

	if len(fields) > 0 {
		return t, &apperrors.ValidationError{Fields: fields}
	}
	return t, nil
}

// Append validates and stores a transaction at the end of the log. An empty ID
// is replaced with a new UUID. The stored copy is returned.
func (l *Ledger) Append(t model.Transaction) (model.Transaction, error) {
	t, err := Validate(t)
	if err != nil {
		return model.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if _, ok := l.index[t.ID]; ok {
		return model.Transaction{}, apperrors.NewValidationError("id", "id already present in ledger")
	}

	l.index[t.ID] = len(l.transactions)
	l.transactions = append(l.transactions, t)
	return t, nil
}

// Remove deletes the transaction with the given ID. It reports whether
// anything was removed; an absent ID is a no-op.
func (l *Ledger) Remove(id string) bool {
	pos, ok := l.index[id]
	if !ok {
		return false
	}

	l.transactions = append(l.transactions[:pos], l.transactions[pos+1:]...)
	delete(l.index, id)
	for i := pos; i < len(l.transactions); i++ {
		l.index[l.transactions[i].ID] = i
	}
	return true
}

// Has reports whether a transaction with the given ID is present.
func (l *Ledger) Has(id string) bool {
	_, ok := l.index[id]
	return ok
}

// Get returns the transaction with the given ID.
func (l *Ledger) Get(id string) (model.Transaction, bool) {
	pos, ok := l.index[id]
	if !ok {
		return model.Transaction{}, false
	}
	return l.transactions[pos], true
}

// All returns a copy of the log in insertion order.
func (l *Ledger) All() []model.Transaction {
	out := make([]model.Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// Len returns the number of transactions in the log.
func (l *Ledger) Len() int {
	return len(l.transactions)
}
