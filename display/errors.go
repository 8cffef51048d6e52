package display

import "errors"

// Error kinds surfaced by this package. Callers match them with errors.Is;
// compositor failures wrap the underlying error.
var (
	ErrInvalidParam = errors.New("display: invalid parameter")
	ErrInvalidState = errors.New("display: required collaborator absent")
	ErrQueueFull    = errors.New("display: render queue full")
	ErrCompositor   = errors.New("display: compositor rejected update")
)
