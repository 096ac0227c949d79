// Package tour drives guided multi-step tours of the dashboard.
//
// A Controller plays one Scenario at a time. It tracks the current step, the
// free-form panel position set by mouse drags, and an auto-capture preference
// that records an artifact of the visible step before every forward
// transition. While a capture is pending the step index is frozen and
// navigation is refused, so the artifact always shows the step the user was
// looking at when they asked to move on.
package tour

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tOgg1/trainwatch/internal/logging"
)

// Phase is the lifecycle state of a tour.
type Phase int

const (
	// Idle means no tour has been opened yet.
	Idle Phase = iota
	// Active means a scenario is being played.
	Active
	// Complete means the last tour was closed. Its state is gone.
	Complete
)

func (p Phase) String() string {
	switch p {
	case Active:
		return "active"
	case Complete:
		return "complete"
	default:
		return "idle"
	}
}

// Transition is a forward step request. When Capture is true the step index
// has not changed yet: the caller runs RunCapture (possibly on another
// goroutine) and hands the outcome to FinishNext. Otherwise the step has
// already advanced.
type Transition struct {
	From    int
	To      int
	Capture bool
	Request CaptureRequest

	session  uint64
	ctx      context.Context
	finished bool
}

// NextResult reports what a forward transition did.
type NextResult struct {
	Advanced bool
	// Stale is set when the tour was closed or reopened while the capture
	// was pending. Nothing changed.
	Stale    bool
	From     int
	To       int
	Artifact *Artifact
	// Warning carries a *CaptureError when the capture failed. The step
	// advanced anyway.
	Warning error
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	Phase       Phase
	ScenarioID  string
	Title       string
	StepIndex   int
	StepCount   int
	Step        Step
	Placement   Placement
	Dragging    bool
	Capturing   bool
	AutoCapture bool
}

// CanNext reports whether a forward transition would be accepted.
func (s Snapshot) CanNext() bool {
	return s.Phase == Active && !s.Capturing && !s.Dragging && s.StepIndex < s.StepCount-1
}

// CanPrev reports whether a backward transition would be accepted.
func (s Snapshot) CanPrev() bool {
	return s.Phase == Active && !s.Capturing && s.StepIndex > 0
}

// IsLastStep reports whether the final step is showing.
func (s Snapshot) IsLastStep() bool {
	return s.Phase == Active && s.StepIndex == s.StepCount-1
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithAutoCapture sets the initial auto-capture preference.
func WithAutoCapture(enabled bool) Option {
	return func(c *Controller) { c.autoCapture = enabled }
}

// Controller is the tour state machine. Methods are safe to call from several
// goroutines; state changes are serialized and RunCapture is the only method
// that blocks.
type Controller struct {
	capture CaptureService
	logger  zerolog.Logger

	mu sync.Mutex

	// autoCapture outlives tour sessions.
	autoCapture bool

	phase      Phase
	scenario   Scenario
	step       int
	placement  Placement
	dragOffset Point
	dragging   bool
	capturing  bool

	session uint64
	cancel  context.CancelFunc
}

// NewController creates a controller. capture may be nil, in which case
// auto-capture has no effect.
func NewController(capture CaptureService, opts ...Option) *Controller {
	c := &Controller{
		capture: capture,
		logger:  logging.Component("tour"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open starts playing scenario at its first step with the panel in its
// default placement. Any running tour is discarded. Invalid scenarios are
// refused and the controller is left untouched.
func (c *Controller) Open(scenario Scenario) bool {
	if err := scenario.Validate(); err != nil {
		c.logger.Warn().Err(err).Str("scenario", scenario.ID).Msg("refusing to open invalid scenario")
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.endSessionLocked()
	c.phase = Active
	c.scenario = scenario.clone()
	c.step = 0
	c.placement = Placement{}
	c.dragOffset = Point{}
	c.dragging = false
	c.capturing = false
	logging.WithScenario(c.logger, scenario.ID).Debug().Int("steps", len(scenario.Steps)).Msg("tour opened")
	return true
}

// Close ends the tour and discards its state. A pending capture is cancelled
// and its outcome ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Active {
		return
	}
	id := c.scenario.ID
	c.endSessionLocked()
	c.phase = Complete
	c.scenario = Scenario{}
	c.step = 0
	c.placement = Placement{}
	c.dragOffset = Point{}
	c.dragging = false
	c.capturing = false
	logging.WithScenario(c.logger, id).Debug().Msg("tour closed")
}

func (c *Controller) endSessionLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.session++
}

// RequestNext asks to move forward one step. It returns false when the tour is
// not active, a capture is pending, a drag is in progress, or the last step is
// showing. With auto-capture enabled the controller enters the capturing
// state and the returned transition must be resolved with FinishNext.
func (c *Controller) RequestNext() (*Transition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Active || c.capturing || c.dragging || c.step >= len(c.scenario.Steps)-1 {
		return nil, false
	}

	t := &Transition{
		From:    c.step,
		To:      c.step + 1,
		session: c.session,
	}
	if c.autoCapture && c.capture != nil {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		c.capturing = true
		t.Capture = true
		t.ctx = ctx
		t.Request = CaptureRequest{
			ScenarioID: c.scenario.ID,
			StepIndex:  c.step,
			StepTitle:  c.scenario.Steps[c.step].Title,
		}
		return t, true
	}

	c.step = t.To
	t.finished = true
	return t, true
}

// RunCapture invokes the capture service for t. It does not touch controller
// state and may run on any goroutine. The capture context is cancelled when
// ctx is done or the tour is closed.
func (c *Controller) RunCapture(ctx context.Context, t *Transition) CaptureOutcome {
	if t == nil || !t.Capture || c.capture == nil {
		return CaptureOutcome{}
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(t.ctx, cancel)
	defer stop()

	artifact, err := c.capture.Capture(ctx, t.Request)
	return CaptureOutcome{Artifact: artifact, Err: err}
}

// FinishNext applies a resolved capture and advances the step. A capture
// failure still advances and is reported as a warning. Finishing the same
// transition twice has no effect.
func (c *Controller) FinishNext(t *Transition, outcome CaptureOutcome) NextResult {
	if t == nil {
		return NextResult{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !t.Capture {
		return NextResult{Advanced: true, From: t.From, To: t.To}
	}
	if t.finished {
		return NextResult{}
	}
	t.finished = true
	if t.session != c.session {
		return NextResult{Stale: true, From: t.From, To: t.From}
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.capturing = false
	c.step = t.To

	logger := logging.WithScenario(c.logger, t.Request.ScenarioID)
	result := NextResult{Advanced: true, From: t.From, To: t.To}
	if outcome.Err != nil {
		result.Warning = &CaptureError{
			ScenarioID: t.Request.ScenarioID,
			StepIndex:  t.Request.StepIndex,
			Err:        outcome.Err,
		}
		logger.Warn().Err(outcome.Err).Int("step", t.From).Msg("auto-capture failed; advancing anyway")
		return result
	}
	artifact := outcome.Artifact
	result.Artifact = &artifact
	logger.Debug().Int("step", t.From).Str("artifact", artifact.Ref).Msg("step captured")
	return result
}

// Next advances one step, capturing first when auto-capture is enabled. It
// blocks until the capture resolves.
func (c *Controller) Next(ctx context.Context) NextResult {
	t, ok := c.RequestNext()
	if !ok {
		return NextResult{}
	}
	return c.FinishNext(t, c.RunCapture(ctx, t))
}

// Prev moves back one step. It is a no-op at the first step or while a
// capture is pending.
func (c *Controller) Prev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Active || c.capturing || c.step == 0 {
		return false
	}
	c.step--
	return true
}

// ToggleAutoCapture flips the preference and returns the new value. It
// applies from the next forward transition on.
func (c *Controller) ToggleAutoCapture() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoCapture = !c.autoCapture
	return c.autoCapture
}

// SetAutoCapture sets the preference.
func (c *Controller) SetAutoCapture(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoCapture = enabled
}

// BeginDrag starts moving the panel. The first drag of a session pins the
// panel at panel's top-left so it does not jump when leaving its default
// placement. The pointer offset inside the panel is kept for the whole drag.
// Drags are refused while a capture is pending.
func (c *Controller) BeginDrag(pointer Point, panel Rect) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Active || c.capturing {
		return false
	}
	origin := c.placement.pin(panel)
	c.dragOffset = pointer.Sub(origin)
	c.dragging = true
	return true
}

// PointerMove moves the panel rigidly with the pointer while dragging. There
// is no clamping to the screen.
func (c *Controller) PointerMove(pointer Point) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dragging {
		return false
	}
	return c.placement.moveTo(pointer.Sub(c.dragOffset))
}

// EndDrag stops dragging. The panel stays where it is.
func (c *Controller) EndDrag() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = false
}

// Blur ends a drag when the terminal loses focus, since the release event
// will never arrive.
func (c *Controller) Blur() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.dragging
	c.dragging = false
	return was
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		Phase:       c.phase,
		ScenarioID:  c.scenario.ID,
		Title:       c.scenario.Title,
		StepIndex:   c.step,
		StepCount:   len(c.scenario.Steps),
		Placement:   c.placement,
		Dragging:    c.dragging,
		Capturing:   c.capturing,
		AutoCapture: c.autoCapture,
	}
	if c.phase == Active && c.step < len(c.scenario.Steps) {
		s.Step = c.scenario.Steps[c.step]
	}
	return s
}
