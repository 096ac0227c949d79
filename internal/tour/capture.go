package tour

import (
	"context"
	"errors"
	"fmt"
)

// ErrCaptureFailed matches every capture failure surfaced by the controller.
var ErrCaptureFailed = errors.New("capture failed")

// CaptureRequest identifies the step that was visible when a transition was
// requested. Artifacts always belong to this step, never the next one.
type CaptureRequest struct {
	ScenarioID string
	StepIndex  int
	StepTitle  string
}

// Artifact is an opaque reference to a captured frame.
type Artifact struct {
	Ref string
}

// CaptureService records an artifact of the current screen.
type CaptureService interface {
	Capture(ctx context.Context, req CaptureRequest) (Artifact, error)
}

// CaptureFunc adapts a function to CaptureService.
type CaptureFunc func(ctx context.Context, req CaptureRequest) (Artifact, error)

func (f CaptureFunc) Capture(ctx context.Context, req CaptureRequest) (Artifact, error) {
	return f(ctx, req)
}

// CaptureError is the non-fatal warning returned when a capture fails. The
// step still advances.
type CaptureError struct {
	ScenarioID string
	StepIndex  int
	Err        error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture of %s step %d: %v", e.ScenarioID, e.StepIndex+1, e.Err)
}

func (e *CaptureError) Unwrap() []error {
	return []error{ErrCaptureFailed, e.Err}
}

// CaptureOutcome is the resolved result of a capture attempt.
type CaptureOutcome struct {
	Artifact Artifact
	Err      error
}
