package chat

import "errors"

// Nickname assignment failures.
var (
	ErrEmptyNickname = errors.New("nickname is empty")
	ErrNicknameTaken = errors.New("nickname is already taken")
	ErrAlreadyBound  = errors.New("nickname already set for this connection")
)

// Message send failures.
var (
	ErrNoIdentity = errors.New("connection has no nickname")
	ErrEmptyText  = errors.New("message text is empty")
)

// ErrUnknownConnection is returned for ids that are not registered,
// typically because the connection already went away.
var ErrUnknownConnection = errors.New("unknown connection")

// Reason maps a core error to the short, user-facing string sent back to
// the client in nickname_error events and failed acknowledgements.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyNickname):
		return "Please enter a nickname"
	case errors.Is(err, ErrNicknameTaken):
		return "This nickname is already taken"
	case errors.Is(err, ErrAlreadyBound):
		return "Nickname already set"
	case errors.Is(err, ErrNoIdentity):
		return "Set a nickname before sending messages"
	case errors.Is(err, ErrEmptyText):
		return "Message is empty"
	case errors.Is(err, ErrUnknownConnection):
		return "Connection is not registered"
	default:
		return "Internal error"
	}
}
