package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrWrongPhase            = errors.New("wrong phase")
	ErrSessionFull           = errors.New("session full")
	ErrDuplicateAnswer       = errors.New("duplicate answer")
	ErrNoActiveQuestion      = errors.New("no active question")
	ErrTooEarly              = errors.New("too early")
	ErrUpstreamUnavailable   = errors.New("upstream unavailable")
	ErrInsufficientQuestions = errors.New("insufficient questions")
	ErrIdentityUnresolved    = errors.New("identity unresolved")
	ErrInvalidSettings       = errors.New("invalid settings")
	ErrInvalidStatus         = errors.New("invalid player status")
)

// Code returns a stable snake_case code for err, used on the wire.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, ErrSessionFull):
		return "session_full"
	case errors.Is(err, ErrDuplicateAnswer):
		return "duplicate_answer"
	case errors.Is(err, ErrNoActiveQuestion):
		return "no_active_question"
	case errors.Is(err, ErrTooEarly):
		return "too_early"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, ErrInsufficientQuestions):
		return "insufficient_questions"
	case errors.Is(err, ErrIdentityUnresolved):
		return "identity_unresolved"
	case errors.Is(err, ErrInvalidSettings):
		return "invalid_settings"
	case errors.Is(err, ErrInvalidStatus):
		return "invalid_status"
	default:
		return "internal"
	}
}
