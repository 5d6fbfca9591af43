package services

import "errors"

var (
	// ErrSessionNotFound is returned when an operation names an unknown or
	// destroyed session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrExecutionActive is returned by Submit when the session is already
	// running a sequence. Sessions never queue.
	ErrExecutionActive = errors.New("session already executing a command sequence")

	// ErrApprovalTimeout marks an approval request that expired and was
	// auto-rejected.
	ErrApprovalTimeout = errors.New("approval request timed out")

	// ErrNoPendingApproval is returned by RespondApproval when the command
	// has no outstanding approval request.
	ErrNoPendingApproval = errors.New("no pending approval for command")
)
