package domain

import "errors"

var (
	// ErrNoIdentity means no participant id is present; the realtime core
	// refuses to operate and the caller must route through the entry flow.
	ErrNoIdentity = errors.New("no session identity")
	// ErrNotConnected is returned when emitting on a closed channel.
	ErrNotConnected = errors.New("not connected")
	// ErrNotAdmin is returned when a non-admin participant requests start.
	ErrNotAdmin = errors.New("only the admin can start the session")
	// ErrLobbyNotReady means the start preconditions are not met yet.
	ErrLobbyNotReady = errors.New("lobby is not ready to start")
	// ErrInvalidOption means a selection index is outside the option range.
	ErrInvalidOption = errors.New("invalid option index")

	// ErrRoomNotFound is returned when acting on an uninitialized room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrPlayerNotFound is returned when a participant acts before joining.
	ErrPlayerNotFound = errors.New("player not found in room")
	// ErrSessionInProgress rejects new participants once a game has started.
	ErrSessionInProgress = errors.New("session already in progress")
	// ErrAlreadyAnswered rejects a duplicate answer for the same question.
	ErrAlreadyAnswered = errors.New("answer already submitted for this question")
	// ErrNoActiveQuestion rejects answers outside a question window.
	ErrNoActiveQuestion = errors.New("no question is currently active")

	// ErrQuestionSetNotFound indicates the question content could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrEmptyQuestionSet indicates a set with nothing to play.
	ErrEmptyQuestionSet = errors.New("question set has no questions")

	// ErrParticipantNotFound is returned when no account matches a lookup.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrEmailTaken is returned when registering an already-used email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
