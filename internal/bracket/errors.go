package bracket

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package wraps exactly one of them.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
)

var (
	ErrTeamNotFound       = fmt.Errorf("%w: team", ErrNotFound)
	ErrMatchNotFound      = fmt.Errorf("%w: match", ErrNotFound)
	ErrTeamNameTaken      = fmt.Errorf("%w: team name already taken", ErrConflict)
	ErrAlreadyRegistered  = fmt.Errorf("%w: player already registered", ErrConflict)
	ErrTeamFull           = fmt.Errorf("%w: team is full", ErrConflict)
	ErrAlreadyCheckedIn   = fmt.Errorf("%w: team already checked in", ErrConflict)
	ErrTournamentFull     = fmt.Errorf("%w: tournament is full", ErrConflict)
	ErrAlreadyStarted     = fmt.Errorf("%w: tournament already started", ErrInvalidState)
	ErrNotStarted         = fmt.Errorf("%w: tournament has not started", ErrInvalidState)
	ErrRegistrationClosed = fmt.Errorf("%w: registration is closed", ErrInvalidState)
	ErrMatchNotReady      = fmt.Errorf("%w: match is waiting for an opponent", ErrInvalidState)
	ErrMatchNotLive       = fmt.Errorf("%w: match is not in progress", ErrInvalidState)
	ErrMatchClosed        = fmt.Errorf("%w: match is already decided", ErrInvalidState)
	ErrNotEnoughTeams     = fmt.Errorf("%w: at least two approved teams are required", ErrInvalidState)
	ErrNotParticipant     = fmt.Errorf("%w: not a participant of this match", ErrForbidden)
	ErrWrongPassword      = fmt.Errorf("%w: wrong team password", ErrForbidden)
	ErrTeamNotInMatch     = fmt.Errorf("%w: team is not part of this match", ErrValidation)
)
