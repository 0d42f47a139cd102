package collector

import (
	"context"
	"errors"
	"fmt"

	"nepwatch-backend/lib/textutil"
)

var (
	// ErrFieldNotFound means neither the structural path nor the
	// exhaustive label scan located the power field.
	ErrFieldNotFound = fmt.Errorf("power field not found")
	// ErrAuthentication covers missing credential fields and
	// post-login confirmation timeouts.
	ErrAuthentication = fmt.Errorf("authentication failed")
	// ErrDashboardNotConfirmed means the reconciliation sequence
	// ended without a visible dashboard marker.
	ErrDashboardNotConfirmed = fmt.Errorf("dashboard not confirmed")
)

// timeouts force a browser teardown so the next cycle starts clean
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func classify(err error) string {
	switch {
	case errors.Is(err, textutil.ErrNotANumber):
		return "parse"
	case errors.Is(err, ErrFieldNotFound):
		return "field_not_found"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrDashboardNotConfirmed):
		return "dashboard_not_confirmed"
	case isTimeout(err):
		return "timeout"
	default:
		return "generic"
	}
}
