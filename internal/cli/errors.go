package cli

import (
	"context"
	"errors"

	"github.com/birbparty/rush-analytics/sdk"
)

// Exit codes returned by rushctl.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitAPI        = 5
	ExitInterrupt  = 130
)

var (
	// ErrUsage marks bad flags or arguments.
	ErrUsage = errors.New("invalid usage")

	// ErrMissingAPIKey is returned when neither --api-key nor
	// RUSH_ANALYTICS_API_KEY provides a credential.
	ErrMissingAPIKey = errors.New("API key is required (set --api-key or RUSH_ANALYTICS_API_KEY)")
)

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}
	if errors.Is(err, ErrUsage) {
		return ExitUsage
	}
	if errors.Is(err, ErrMissingAPIKey) || errors.Is(err, sdk.ErrInvalidConfig) {
		return ExitSetup
	}
	if errors.Is(err, sdk.ErrValidation) {
		return ExitValidation
	}

	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return ExitAPI
	}

	return ExitGeneral
}
