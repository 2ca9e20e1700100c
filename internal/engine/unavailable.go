package engine

import (
	"context"

	"ttsd/internal/apperr"
	"ttsd/internal/device"
)

// Unavailable is the factory used when no inference runtime is configured.
// It fails every construction instead of pretending to synthesize.
type Unavailable struct {
	Reason string
}

func (u Unavailable) New(context.Context, ModelPaths, device.Profile) (Engine, error) {
	reason := u.Reason
	if reason == "" {
		reason = "inference runtime not configured"
	}
	return nil, apperr.Unavailable(reason)
}
