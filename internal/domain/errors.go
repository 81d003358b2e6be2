package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound             = errors.New("domain: not found")
	ErrAlreadyExists        = errors.New("domain: already exists")
	ErrConfirmationRequired = errors.New("domain: confirmation required")
	ErrRoomClosed           = errors.New("domain: room closed")
	ErrInvalidTime          = errors.New("domain: invalid time of day")
	ErrPersistence          = errors.New("domain: persistence failed")
	ErrGateway              = errors.New("domain: gateway call failed")
)

// Narrower not-found errors; errors.Is(err, ErrNotFound) holds for all of them.
var (
	ErrTournamentNotFound = fmt.Errorf("tournament: %w", ErrNotFound)
	ErrRoomNotFound       = fmt.Errorf("room: %w", ErrNotFound)
	ErrNotMember          = fmt.Errorf("member: %w", ErrNotFound)
)
