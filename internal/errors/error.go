package errors

import "errors"

var (
	ErrInvalidFen          = errors.New("invalid FEN")
	ErrIllegalMove         = errors.New("illegal move")
	ErrCorruptAnalysisLine = errors.New("corrupt analysis line")
	ErrEngineUnavailable   = errors.New("engine unavailable")
	ErrCourseNotFound      = errors.New("course not found")
	ErrStudyNotFound       = errors.New("study state not found")
	ErrUnknownCommand      = errors.New("unknown study command")
	ErrInternal            = errors.New("internal error")
)
