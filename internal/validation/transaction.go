package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ndewijer/pnl-tracker/internal/api/request"
	"github.com/ndewijer/pnl-tracker/internal/model"
)

// ValidSides contains the allowed transaction sides.
var ValidSides = map[string]bool{
	string(model.SideBuy): true, string(model.SideSell): true,
}

// ValidateCreateTransaction validates a transaction creation request.
//
// Required fields:
//   - symbol: non-empty
//   - side: buy or sell
//   - amount: positive
//   - unitPrice: zero or positive
//
// Optional fields:
//   - fee: zero or positive
//   - occurredAt: RFC3339 or YYYY-MM-DD
func ValidateCreateTransaction(req request.CreateTransactionRequest, loc *time.Location) error {
	errors := make(map[string]string)

	if blank(req.Symbol) {
		errors["symbol"] = "symbol is required"
	}

	side := strings.ToLower(strings.TrimSpace(req.Side))
	if side == "" {
		errors["side"] = "side is required"
	} else if !ValidSides[side] {
		errors["side"] = fmt.Sprintf("invalid side: %s", req.Side)
	}

	if !(req.Amount > 0) || math.IsInf(req.Amount, 0) {
		errors["amount"] = "amount must be positive"
	}
	if req.UnitPrice < 0 || math.IsNaN(req.UnitPrice) || math.IsInf(req.UnitPrice, 0) {
		errors["unitPrice"] = "unitPrice must not be negative"
	}
	if req.Fee < 0 || math.IsNaN(req.Fee) || math.IsInf(req.Fee, 0) {
		errors["fee"] = "fee must not be negative"
	}

	if !blank(req.OccurredAt) {
		if _, err := request.ParseTimestamp(req.OccurredAt, loc); err != nil {
			errors["occurredAt"] = err.Error()
		}
	}

	if req.Source != "" && req.Source != model.SourceManual && !ValidSourceName(req.Source) {
		errors["source"] = "invalid source name"
	}

	return fieldsError(errors)
}
