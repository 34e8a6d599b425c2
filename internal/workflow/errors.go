package workflow

import "errors"

var (
	ErrNoInput        = errors.New("no input: inline content and file path both absent")
	ErrFileNotFound   = errors.New("file not found")
	ErrNoIntakeResult = errors.New("no intake result")
	ErrNoContent      = errors.New("no content available")
	ErrGraphFailed    = errors.New("workflow graph execution failed")
)
