package validation

import (
	"fmt"

	"github.com/ndewijer/pnl-tracker/internal/api/request"
	"github.com/ndewijer/pnl-tracker/internal/exchange"
	"github.com/ndewijer/pnl-tracker/internal/model"
)

// ValidateConnectSource validates a source connection request. Credential
// requirements per kind are checked by the connector factory.
func ValidateConnectSource(req request.ConnectSourceRequest) error {
	errors := make(map[string]string)

	if blank(req.Name) {
		errors["name"] = "name is required"
	} else if !ValidSourceName(req.Name) {
		errors["name"] = "name must be lower-case letters, digits, '-' or '_'"
	} else if req.Name == model.SourceManual {
		errors["name"] = fmt.Sprintf("%q is reserved", model.SourceManual)
	}

	if blank(req.Kind) {
		errors["kind"] = "kind is required"
	} else if !validKind(req.Kind) {
		errors["kind"] = fmt.Sprintf("invalid kind: %s", req.Kind)
	}

	return fieldsError(errors)
}

func validKind(kind string) bool {
	for _, k := range exchange.Kinds() {
		if string(k) == kind {
			return true
		}
	}
	return false
}
