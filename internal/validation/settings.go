package validation

import (
	"math"

	"github.com/ndewijer/pnl-tracker/internal/api/request"
)

// ValidateNotificationSettings validates a settings update. Thresholds must
// be non-negative finite numbers when present.
func ValidateNotificationSettings(req request.UpdateNotificationSettingsRequest) error {
	errors := make(map[string]string)

	if v := req.PriceChangeThreshold; v != nil && (*v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0)) {
		errors["priceChangeThreshold"] = "priceChangeThreshold must not be negative"
	}
	if v := req.SignificantChangeAmount; v != nil && (*v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0)) {
		errors["significantChangeAmount"] = "significantChangeAmount must not be negative"
	}

	return fieldsError(errors)
}
