package wizard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/flatmarket/backend/internal/domain"
)

// Step names a screen of the listing wizard.
type Step string

const (
	StepSellOrRent      Step = "sellOrRent"
	StepPropertyType    Step = "propertyType"
	StepCity            Step = "city"
	StepAddress         Step = "address"
	StepCharacteristics Step = "characteristics"
	StepDPE             Step = "dpe"
	StepImages          Step = "images"
	StepDescription     Step = "description"
	StepPrice           Step = "price"
	StepRecap           Step = "recap"
	StepSuccess         Step = "success"
)

var stepOrder = []Step{
	StepSellOrRent,
	StepPropertyType,
	StepCity,
	StepAddress,
	StepCharacteristics,
	StepDPE,
	StepImages,
	StepDescription,
	StepPrice,
	StepRecap,
	StepSuccess,
}

// stepFields lists the draft fields a step owns. Advancing past the step
// validates exactly these, in this order.
var stepFields = map[Step][]string{
	StepSellOrRent:      {"mode"},
	StepPropertyType:    {"type"},
	StepCity:            {"city"},
	StepAddress:         {"address"},
	StepCharacteristics: {"surface", "rooms", "furnished", "constructionYear", "airConditioned"},
	StepDPE:             {"notSubjectToDpe", "consumption", "emission", "dpe", "emissionConsumption"},
	StepImages:          {"images"},
	StepDescription:     {"title", "description"},
	StepPrice:           {"price", "charges"},
}

// SuccessRedirectDelay is how long the terminal success step lingers
// before the session is considered redirected away.
const SuccessRedirectDelay = 4 * time.Second

var (
	// ErrSubmitting is returned by Next and Back while a submission is
	// in flight.
	ErrSubmitting = errors.New("wizard: submission in progress")
	// ErrAtFirstStep is returned by Back on the first step.
	ErrAtFirstStep = errors.New("wizard: already at first step")
	// ErrCompleted is returned by Next and Back once the wizard reached
	// the terminal success step.
	ErrCompleted = errors.New("wizard: flow completed")
)

// Submitter persists a validated draft as a listing.
type Submitter interface {
	Submit(ctx context.Context, draft *domain.ListingDraft) (*domain.Listing, error)
}

// Sequencer drives a session through the wizard steps in order. Forward
// navigation validates the current step's fields; backward navigation is
// always allowed. Advancing past the recap step runs the submission.
type Sequencer struct {
	store  *DraftStore
	submit Submitter
	log    *slog.Logger

	mu         sync.Mutex
	pos        int
	submitting bool
	listing    *domain.Listing
	redirected chan struct{}
}

// NewSequencer starts a session at the first step.
func NewSequencer(store *DraftStore, submit Submitter, log *slog.Logger) *Sequencer {
	return &Sequencer{
		store:      store,
		submit:     submit,
		log:        log.With("component", "wizard"),
		redirected: make(chan struct{}),
	}
}

// Current returns the step the session is on.
func (s *Sequencer) Current() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stepOrder[s.pos]
}

// Next advances to the following step. On a regular step it validates
// the fields that step owns and returns the first *domain.ValidationError
// without moving. On the recap step it validates the whole draft and
// submits: success advances to the terminal step, failure stays on recap
// with navigation re-enabled.
func (s *Sequencer) Next(ctx context.Context) error {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return ErrSubmitting
	}
	step := stepOrder[s.pos]
	if step == StepSuccess {
		s.mu.Unlock()
		return ErrCompleted
	}
	if step == StepRecap {
		s.submitting = true
		s.mu.Unlock()
		return s.finish(ctx)
	}
	s.mu.Unlock()

	draft := s.store.Snapshot()
	if err := domain.ValidateFields(stepFields[step], &draft); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.submitting && stepOrder[s.pos] == step {
		s.pos++
	}
	return nil
}

// Back moves to the previous step without validation. It is refused only
// while submitting, on the first step, and after completion.
func (s *Sequencer) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.submitting:
		return ErrSubmitting
	case stepOrder[s.pos] == StepSuccess:
		return ErrCompleted
	case s.pos == 0:
		return ErrAtFirstStep
	}
	s.pos--
	return nil
}

// Listing returns the persisted listing once the flow completed, nil
// before that.
func (s *Sequencer) Listing() *domain.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listing
}

// Redirected is closed a fixed delay after the flow completes. The
// countdown is not cancellable.
func (s *Sequencer) Redirected() <-chan struct{} {
	return s.redirected
}

func (s *Sequencer) finish(ctx context.Context) error {
	draft := s.store.Snapshot()
	if err := domain.ValidateDraft(&draft); err != nil {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
		return err
	}

	listing, err := s.submit.Submit(ctx, &draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		s.log.Error("listing submission failed", "error", err)
		return err
	}
	s.listing = listing
	s.pos = len(stepOrder) - 1
	time.AfterFunc(SuccessRedirectDelay, func() { close(s.redirected) })
	s.log.Info("listing submitted", "flat_id", listing.FlatID)
	return nil
}
