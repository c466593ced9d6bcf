package tui

import "errors"

// ErrMissingStageService is returned when the stage service is not provided.
var ErrMissingStageService = errors.New("tui: stage service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
