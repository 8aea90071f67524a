// Package workflow drives a single file through validation, upload and result.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/logger"

	"github.com/Angad-2002/Darwix-AI/internal/api"
	"github.com/Angad-2002/Darwix-AI/internal/applog"
	"github.com/Angad-2002/Darwix-AI/internal/domain"
	"github.com/Angad-2002/Darwix-AI/internal/validate"
)

// ErrUploadInProgress is returned when an action needs an idle controller.
var ErrUploadInProgress = errors.New("upload already in progress")

// ErrNoFileSelected is returned when submitting without a selected file.
var ErrNoFileSelected = errors.New("no file selected")

// ErrNoActiveUpload is returned when cancel is requested with nothing in flight.
var ErrNoActiveUpload = errors.New("no active upload")

// ErrUnsupportedLanguage is returned for language hints outside the selector list.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// MsgUnexpected is shown for failures that carry no user-facing message.
const MsgUnexpected = "An error occurred"

// Uploader is the transport used for one submission.
type Uploader interface {
	Transcribe(ctx context.Context, req domain.TranscriptionRequest, onProgress api.ProgressFunc) (domain.TranscriptionResult, error)
}

// Options configures optional controller collaborators.
type Options struct {
	Logger    logger.Logger
	MaxEvents int
	// OnEvent receives every published event outside the controller lock, in
	// sequence order, from one goroutine at a time. An event may be delivered
	// by whichever goroutine is already dispatching, after the call that
	// published it has returned.
	OnEvent func(Event)
	// OnSuccess runs after a result is applied, outside the controller lock.
	OnSuccess func(req domain.TranscriptionRequest, result domain.TranscriptionResult)
	NewID     func() string
}

// Controller owns the workflow state; it allows one upload at a time.
type Controller struct {
	uploader Uploader
	events   *EventBus
	log      logger.Logger
	onEvent  func(Event)
	onOK     func(domain.TranscriptionRequest, domain.TranscriptionResult)
	newID    func() string

	mu          sync.Mutex
	state       State
	requestID   string
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	pending     []Event
	dispatching bool
}

// NewController creates a controller in the Idle state.
func NewController(uploader Uploader, opts Options) *Controller {
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Controller{
		uploader: uploader,
		events:   NewEventBus(opts.MaxEvents),
		log:      applog.OrNop(opts.Logger),
		onEvent:  opts.OnEvent,
		onOK:     opts.OnSuccess,
		newID:    newID,
		state:    Idle{},
	}
}

// State returns the active state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a flat view of the active state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Describe(c.state)
	if isActive(c.state) {
		snap.RequestID = c.requestID
	}
	return snap
}

// Progress returns the upload percentage of the active request, 0 when idle.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Describe(c.state).Progress
}

// Events returns events with sequence greater than since.
func (c *Controller) Events(since int64) []Event {
	return c.events.Since(since)
}

// SelectFile validates candidate and replaces any previous selection, result or error.
// An invalid candidate moves the workflow to Failed and nothing is retained.
func (c *Controller) SelectFile(candidate domain.UploadCandidate) error {
	c.mu.Lock()
	if isActive(c.state) {
		c.mu.Unlock()
		return ErrUploadInProgress
	}

	accepted, err := validate.Validate(candidate)
	if err != nil {
		c.state = Failed{Message: err.Error()}
		c.publishLocked(Event{Type: EventTypeError, FileName: candidate.Name, Message: err.Error()})
	} else {
		c.state = FileSelected{Candidate: accepted}
		c.publishLocked(Event{Type: EventTypeState, FileName: accepted.Name})
	}
	c.mu.Unlock()

	c.flush()
	if err != nil {
		applog.Infof(c.log, "rejected %q: %v", candidate.Name, err)
		return err
	}
	applog.Debugf(c.log, "selected %q (%d bytes)", accepted.Name, accepted.SizeBytes)
	return nil
}

// Submit starts uploading the selected file and returns the request ID.
// It refuses without side effects when no file is selected or an upload is active.
func (c *Controller) Submit(ctx context.Context, language string) (string, error) {
	if language == "" {
		language = domain.LanguageAuto
	}
	if !domain.IsSupportedLanguage(language) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}

	c.mu.Lock()
	if isActive(c.state) {
		c.mu.Unlock()
		return "", ErrUploadInProgress
	}
	selected, ok := c.state.(FileSelected)
	if !ok {
		c.mu.Unlock()
		return "", ErrNoFileSelected
	}

	req := domain.TranscriptionRequest{File: selected.Candidate, LanguageHint: language}
	id := c.newID()
	runCtx, cancel := context.WithCancel(ctx)
	c.requestID = id
	c.cancel = cancel
	c.state = Uploading{Candidate: selected.Candidate}
	c.publishLocked(Event{Type: EventTypeState, FileName: selected.Candidate.Name})
	c.wg.Add(1)
	c.mu.Unlock()

	c.flush()
	applog.Infof(c.log, "request %s: uploading %q (language=%s)", id, req.File.Name, language)

	go c.run(runCtx, cancel, id, req)
	return id, nil
}

// Cancel aborts the in-flight request; its later events are discarded.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if !isActive(c.state) {
		c.mu.Unlock()
		return ErrNoActiveUpload
	}

	id := c.requestID
	cancel := c.cancel
	c.clearRequestLocked()
	c.state = Cancelled{}
	c.publishLocked(Event{Type: EventTypeState, RequestID: id, Message: "Upload cancelled"})
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.flush()
	applog.Infof(c.log, "request %s: cancelled", id)
	return nil
}

// Wait blocks until every started upload goroutine has returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// run performs one upload and applies its outcome.
func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, id string, req domain.TranscriptionRequest) {
	defer c.wg.Done()
	defer cancel()

	result, err := c.uploader.Transcribe(ctx, req, func(percent float64) {
		c.applyProgress(id, percent)
	})
	c.finish(id, req, result, err)
}

// applyProgress keeps the maximum observed progress for the current request.
func (c *Controller) applyProgress(id string, percent float64) {
	c.mu.Lock()
	if id != c.requestID {
		c.mu.Unlock()
		return
	}

	uploading, ok := c.state.(Uploading)
	if !ok || percent <= uploading.Percent {
		c.mu.Unlock()
		return
	}

	if percent >= 100 {
		percent = 100
		c.state = AwaitingResult{Candidate: uploading.Candidate}
	} else {
		uploading.Percent = percent
		c.state = uploading
	}
	c.publishLocked(Event{Type: EventTypeProgress, RequestID: id, Progress: percent})
	c.mu.Unlock()

	c.flush()
}

// finish applies the terminal outcome unless the request is stale.
func (c *Controller) finish(id string, req domain.TranscriptionRequest, result domain.TranscriptionResult, err error) {
	c.mu.Lock()
	if id != c.requestID || !isActive(c.state) {
		c.mu.Unlock()
		applog.Debugf(c.log, "request %s: discarded stale outcome", id)
		return
	}
	c.clearRequestLocked()

	switch {
	case err == nil:
		c.state = Succeeded{Result: result}
		c.publishLocked(Event{Type: EventTypeResult, RequestID: id, Segments: len(result.Segments)})
	case errors.Is(err, context.Canceled):
		c.state = Cancelled{}
		c.publishLocked(Event{Type: EventTypeState, RequestID: id, Message: "Upload cancelled"})
	default:
		msg := userMessage(err)
		c.state = Failed{Message: msg}
		c.publishLocked(Event{Type: EventTypeError, RequestID: id, Message: msg})
	}
	c.mu.Unlock()

	c.flush()
	if err != nil {
		applog.Warningf(c.log, "request %s: %s", id, errorDetail(err))
		return
	}
	applog.Infof(c.log, "request %s: %d segments", id, len(result.Segments))
	if c.onOK != nil {
		c.onOK(req, result)
	}
}

// clearRequestLocked forgets the in-flight request identity.
func (c *Controller) clearRequestLocked() {
	c.requestID = ""
	c.cancel = nil
}

// publishLocked stamps the current phase, appends to the event log and
// queues the event for the observer.
func (c *Controller) publishLocked(ev Event) {
	ev.Phase = c.state.Phase()
	if ev.RequestID == "" {
		ev.RequestID = c.requestID
	}
	ev = c.events.Publish(ev)
	if c.onEvent != nil {
		c.pending = append(c.pending, ev)
	}
}

// flush delivers queued events unless another goroutine is already doing so.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	c.dispatching = true
	for len(c.pending) > 0 {
		batch := c.pending
		c.pending = nil
		c.mu.Unlock()
		for _, ev := range batch {
			c.onEvent(ev)
		}
		c.mu.Lock()
	}
	c.dispatching = false
	c.mu.Unlock()
}

// userMessage picks the message to surface for a failed request.
func userMessage(err error) string {
	var te *api.TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	var appErr *api.ApplicationError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return MsgUnexpected
}

// errorDetail formats a failure for logs.
func errorDetail(err error) string {
	var te *api.TransportError
	if errors.As(err, &te) {
		return te.Detail()
	}
	return err.Error()
}
