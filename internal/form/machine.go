// Package form drives the four-step industry collaboration form: per-step
// validation gates, draft autosave and the submit/reset cycle.
package form

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	domainerr "scalesite/internal/domain/errors"
)

type Step int

const (
	Step1 Step = iota + 1
	Step2
	Step3
	Step4
)

const StepCount = 4

func (s Step) Valid() bool { return s >= Step1 && s <= Step4 }

type Phase int

const (
	PhaseEditing Phase = iota
	PhaseSubmitting
	PhaseResetting
)

func (p Phase) String() string {
	switch p {
	case PhaseSubmitting:
		return "submitting"
	case PhaseResetting:
		return "resetting"
	default:
		return "editing"
	}
}

var (
	ErrUnknownField = errors.New("form: unknown field")
	ErrFieldType    = errors.New("form: wrong value type for field")
	ErrNotFinalStep = errors.New("form: submit is only available on the last step")
	ErrBusy         = errors.New("form: submission in progress")
	ErrUnreachable  = errors.New("form: step not reachable yet")
)

// DraftStore persists the draft between sessions.
type DraftStore interface {
	Load(ctx context.Context, v any) (bool, error)
	Save(ctx context.Context, v any) error
	Delete(ctx context.Context) error
}

type Submitter interface {
	SubmitLead(ctx context.Context, payload any) error
}

type State struct {
	Step      Step
	Phase     Phase
	Draft     Draft
	Errors    map[string]string
	Focus     string
	SubmitErr error
}

type Machine struct {
	store  DraftStore
	submit Submitter
	log    *zap.Logger

	// storeMu orders draft writes against the reset after a submit.
	storeMu sync.Mutex

	mu        sync.Mutex
	gen       uint64
	draft     Draft
	step      Step
	phase     Phase
	errs      map[string]string
	focus     string
	submitErr error
	// dirty marks edits made while autosave was suspended.
	dirty     bool
}

func New(store DraftStore, submit Submitter, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{
		store:  store,
		submit: submit,
		log:    log.Named("form"),
		step:   Step1,
		errs:   map[string]string{},
	}
}

// Mount hydrates the form from the store. Restored fields are re-validated
// so Reachable can report how far the user may jump.
func (m *Machine) Mount(ctx context.Context) error {
	var d Draft
	ok, err := m.store.Load(ctx, &d)
	if err != nil {
		return fmt.Errorf("form: load draft: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.step = Step1
	m.phase = PhaseEditing
	m.focus = ""
	m.submitErr = nil
	m.errs = map[string]string{}
	if !ok {
		m.draft = Draft{}
		return nil
	}
	m.draft = d
	for name, msg := range validateAll(d) {
		if m.isSet(name) {
			m.errs[name] = msg
		}
	}
	m.log.Debug("draft restored", zap.Int("reachable", int(m.reachable())))
	return nil
}

// Set changes one field by its json name and autosaves the whole draft.
// Nothing is saved outside the editing phase.
func (m *Machine) Set(ctx context.Context, name string, value any) error {
	m.mu.Lock()
	if err := assign(&m.draft, name, value); err != nil {
		m.mu.Unlock()
		return err
	}
	if _, had := m.errs[name]; had {
		m.revalidate(name)
	}
	gen := m.gen
	m.mu.Unlock()
	return m.persist(ctx, gen)
}

// persist writes the current draft unless a reset happened since gen was
// read. Outside the editing phase the draft is only marked dirty.
func (m *Machine) persist(ctx context.Context, gen uint64) error {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return nil
	}
	if m.phase != PhaseEditing {
		m.dirty = true
		m.mu.Unlock()
		return nil
	}
	snapshot := m.draft
	m.mu.Unlock()

	if err := m.store.Save(ctx, snapshot); err != nil {
		m.log.Warn("draft save failed", zap.Error(err))
		return fmt.Errorf("form: save draft: %w", err)
	}
	return nil
}

func (m *Machine) revalidate(name string) {
	for s := Step1; s <= Step4; s++ {
		if !slices.Contains(StepFields(s), name) {
			continue
		}
		if msg, bad := validateStep(m.draft, s)[name]; bad {
			m.errs[name] = msg
		} else {
			delete(m.errs, name)
		}
		return
	}
}

// Next advances when every field of the current step validates. Otherwise
// it records the errors, focuses the first invalid field and stays put.
func (m *Machine) Next() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseEditing {
		return false
	}
	if !m.gate(m.step) {
		return false
	}
	if m.step < Step4 {
		m.step++
	}
	return true
}

func (m *Machine) gate(step Step) bool {
	bad := validateStep(m.draft, step)
	for _, name := range StepFields(step) {
		delete(m.errs, name)
	}
	m.focus = ""
	if len(bad) == 0 {
		return true
	}
	for _, name := range StepFields(step) {
		msg, ok := bad[name]
		if !ok {
			continue
		}
		m.errs[name] = msg
		if m.focus == "" {
			m.focus = name
		}
	}
	return false
}

func (m *Machine) Back() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseEditing && m.step > Step1 {
		m.step--
		m.focus = ""
	}
}

// Reachable is the furthest step whose predecessors all validate.
func (m *Machine) Reachable() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reachable()
}

func (m *Machine) reachable() Step {
	s := Step1
	for s < Step4 && len(validateStep(m.draft, s)) == 0 {
		s++
	}
	return s
}

func (m *Machine) JumpTo(step Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !step.Valid() || step > m.reachable() {
		return ErrUnreachable
	}
	if m.phase != PhaseEditing {
		return ErrBusy
	}
	m.step = step
	m.focus = ""
	return nil
}

// Submit gates the last step and posts the lead. A failed post keeps the
// draft and the step so the user can retry; success clears both the form
// and the stored draft.
func (m *Machine) Submit(ctx context.Context) error {
	m.mu.Lock()
	if m.step != Step4 {
		m.mu.Unlock()
		return ErrNotFinalStep
	}
	if m.phase != PhaseEditing {
		m.mu.Unlock()
		return ErrBusy
	}
	if !m.gate(Step4) {
		err := m.stepError(Step4)
		m.mu.Unlock()
		return err
	}
	m.phase = PhaseSubmitting
	m.submitErr = nil
	m.dirty = false
	lead := m.draft.Payload(uuid.NewString())
	m.mu.Unlock()

	err := m.submit.SubmitLead(ctx, lead)

	m.storeMu.Lock()
	defer m.storeMu.Unlock()
	m.mu.Lock()
	if err != nil {
		m.phase = PhaseEditing
		m.submitErr = err
		dirty, snapshot := m.dirty, m.draft
		m.dirty = false
		m.mu.Unlock()
		m.log.Warn("lead submission failed", zap.String("reference", lead.Reference), zap.Error(err))
		if dirty {
			if serr := m.store.Save(ctx, snapshot); serr != nil {
				m.log.Warn("draft save failed", zap.Error(serr))
			}
		}
		return err
	}
	defer m.mu.Unlock()

	m.phase = PhaseResetting
	m.gen++
	m.dirty = false
	m.draft = Draft{}
	m.errs = map[string]string{}
	m.focus = ""
	m.step = Step1
	if derr := m.store.Delete(ctx); derr != nil {
		m.log.Warn("draft delete failed", zap.Error(derr))
	}
	m.phase = PhaseEditing
	m.log.Info("lead submitted", zap.String("reference", lead.Reference))
	return nil
}

func (m *Machine) stepError(step Step) error {
	var ve domainerr.ValidationError
	for _, name := range StepFields(step) {
		if msg, ok := m.errs[name]; ok {
			ve.Add(name, msg)
		}
	}
	return ve
}

func (m *Machine) isSet(name string) bool {
	v, _ := lookup(m.draft, name)
	switch x := v.(type) {
	case string:
		return x != ""
	case []string:
		return len(x) > 0
	case bool:
		return x
	}
	return false
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.draft
	d.CollaborationTypes = slices.Clone(d.CollaborationTypes)
	return State{
		Step:      m.step,
		Phase:     m.phase,
		Draft:     d,
		Errors:    maps.Clone(m.errs),
		Focus:     m.focus,
		SubmitErr: m.submitErr,
	}
}

func (m *Machine) Step() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

func (m *Machine) Focus() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focus
}
