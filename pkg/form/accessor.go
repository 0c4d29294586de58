package form

import (
	"context"
	"reflect"
	"sync"

	"github.com/rs/zerolog"
)

// Status summarises a field's state machine position.
type Status int

const (
	// StatusClean means no validation is in flight and no error is set.
	StatusClean Status = iota
	// StatusPending means the latest update is still being validated.
	StatusPending
	// StatusInvalid means the latest update failed validation or conversion.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusPending:
		return "pending"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// FieldAccessor owns the editing state of one field of one bound domain
// object: the raw text, the last accepted value, the error and whether a
// validation is in flight.
//
// Every update is stamped with a sequence number. Only the result of the most
// recently issued update may change the accessor or the domain object; results
// of superseded updates are dropped when they complete.
type FieldAccessor struct {
	state  *FormState
	def    Definition
	logger zerolog.Logger

	// commitMu serialises the latest-wins check with the domain write so a
	// slower, older commit can never land after a newer one.
	commitMu sync.Mutex

	mu         sync.RWMutex
	seq        uint64
	raw        string
	value      any
	hasValue   bool
	err        string
	validating bool
	staged     any
	hasStaged  bool
	latest     *Settle
	// written is the value last known to be held by the domain object on
	// this accessor's behalf; model change events carrying it are echoes.
	written    any
	hasWritten bool

	unsubscribe func()
}

func newAccessor(s *FormState, def Definition) *FieldAccessor {
	a := &FieldAccessor{
		state:  s,
		def:    def,
		logger: s.logger.With().Str("path", def.path).Logger(),
		latest: settled(true),
	}
	if value, ok := s.model.Get(def.path); ok && value != nil {
		a.raw = def.codec.Render(value)
		a.value = value
		a.hasValue = true
		a.written, a.hasWritten = value, true
	}
	a.unsubscribe = s.model.Subscribe(def.path, a.onModelChange)
	a.logger.Debug().Str("raw", a.raw).Msg("field accessor created")
	return a
}

// Path returns the field path.
func (a *FieldAccessor) Path() string {
	return a.def.path
}

// Definition returns the field's declaration.
func (a *FieldAccessor) Definition() Definition {
	return a.def
}

// Raw returns the text currently being edited.
func (a *FieldAccessor) Raw() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.raw
}

// Value returns the last accepted value. ok is false while the raw text is
// invalid or pending.
func (a *FieldAccessor) Value() (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value, a.hasValue
}

// Error returns the current error message, or "".
func (a *FieldAccessor) Error() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

// Validating reports whether the latest update is still being validated.
func (a *FieldAccessor) Validating() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.validating
}

// IsValid reports whether the field currently holds no error. Fields that were
// never validated count as valid.
func (a *FieldAccessor) IsValid() bool {
	return a.Error() == ""
}

// Status returns the field's state machine position.
func (a *FieldAccessor) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	switch {
	case a.validating:
		return StatusPending
	case a.err != "":
		return StatusInvalid
	default:
		return StatusClean
	}
}

// Staged reports the accepted value waiting for Commit on ModeCommit fields.
func (a *FieldAccessor) Staged() (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.staged, a.hasStaged
}

// ValidationProps evaluates the form's props function against the current
// state. The result is never cached.
func (a *FieldAccessor) ValidationProps() Props {
	return resolveProps(a.state.form.props)(a)
}

// SetRaw records a user edit. Raw text and the validating flag are updated
// before SetRaw returns; conversion and validation finish asynchronously and
// the returned Settle resolves once this update has been applied or
// discarded. Validation failures are reported through Error, never returned.
func (a *FieldAccessor) SetRaw(raw string) *Settle {
	if a.state.closed.Load() {
		return settled(false)
	}
	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.raw = raw
	a.validating = true
	a.value, a.hasValue = nil, false
	settle := newSettle()
	a.latest = settle
	a.mu.Unlock()

	a.run(a.state.ctx, seq, raw, false, settle)
	return settle
}

// Commit writes the staged value of a ModeCommit field to the domain object.
// It is a no-op for ModeValue fields and when nothing is staged.
func (a *FieldAccessor) Commit() error {
	if a.def.mode != ModeCommit {
		return nil
	}
	a.commitMu.Lock()
	defer a.commitMu.Unlock()

	a.mu.Lock()
	if !a.hasStaged {
		a.mu.Unlock()
		return nil
	}
	value := a.staged
	a.staged, a.hasStaged = nil, false
	a.written, a.hasWritten = value, true
	a.mu.Unlock()

	if err := a.state.model.Set(a.def.path, value); err != nil {
		return err
	}
	a.logger.Debug().Msg("staged value committed")
	return nil
}

// Reset discards the edit in progress and re-derives raw from the domain
// object. In-flight validations are superseded.
func (a *FieldAccessor) Reset() {
	value, ok := a.state.model.Get(a.def.path)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.adoptLocked(value, ok && value != nil)
}

// onModelChange re-derives raw when the domain object changes outside the
// form. Changes that echo the accessor's own writes are ignored, even while a
// newer edit is pending.
func (a *FieldAccessor) onModelChange(_ string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.hasWritten && reflect.DeepEqual(a.written, value) {
		return
	}
	a.adoptLocked(value, value != nil)
	a.logger.Debug().Str("raw", a.raw).Msg("field re-derived from domain change")
}

func (a *FieldAccessor) adoptLocked(value any, present bool) {
	a.seq++
	a.err = ""
	a.validating = false
	a.staged, a.hasStaged = nil, false
	if present {
		a.raw = a.def.codec.Render(value)
		a.value, a.hasValue = value, true
		a.written, a.hasWritten = value, true
	} else {
		a.raw = ""
		a.value, a.hasValue = nil, false
		a.written, a.hasWritten = nil, false
	}
	a.latest.resolve(false)
	a.latest = settled(true)
}

// revalidate replays the pipeline against the current raw text and waits for
// the field to settle. replayed updates only write the domain object when the
// accepted value differs from what it already holds.
func (a *FieldAccessor) revalidate(ctx context.Context) (bool, error) {
	if a.state.closed.Load() {
		return false, ErrClosed
	}
	a.mu.Lock()
	a.seq++
	seq := a.seq
	raw := a.raw
	a.validating = true
	a.value, a.hasValue = nil, false
	settle := newSettle()
	a.latest = settle
	a.mu.Unlock()

	a.run(ctx, seq, raw, true, settle)

	for {
		if err := settle.Wait(ctx); err != nil {
			return false, err
		}
		if settle.Applied() {
			return a.IsValid(), nil
		}
		// superseded: wait for whichever update is now the latest
		a.mu.RLock()
		next := a.latest
		a.mu.RUnlock()
		if next == settle {
			return a.IsValid(), nil
		}
		settle = next
	}
}

type outcome struct {
	message string
	value   any
}

func (a *FieldAccessor) run(ctx context.Context, seq uint64, raw string, replay bool, settle *Settle) {
	if msg := a.def.validateRaw(raw); msg != "" {
		settle.resolve(a.finish(seq, outcome{message: msg}, replay))
		return
	}
	value, err := a.def.codec.Parse(raw)
	if err != nil {
		msg := a.state.form.conversionMessageFor(a.def)
		settle.resolve(a.finish(seq, outcome{message: msg}, replay))
		return
	}
	if !a.def.hasValueValidator() {
		settle.resolve(a.finish(seq, outcome{value: value}, replay))
		return
	}
	go func() {
		msg := a.def.validateValue(ctx, value)
		settle.resolve(a.finish(seq, outcome{message: msg, value: value}, replay))
	}()
}

// finish applies a pipeline result if seq is still the latest update and
// reports whether it did.
func (a *FieldAccessor) finish(seq uint64, out outcome, replay bool) bool {
	a.commitMu.Lock()
	defer a.commitMu.Unlock()

	a.mu.Lock()
	if seq != a.seq {
		latest := a.seq
		a.mu.Unlock()
		a.logger.Debug().Uint64("seq", seq).Uint64("latest", latest).Msg("stale validation discarded")
		return false
	}
	a.validating = false
	if out.message != "" {
		a.err = out.message
		a.value, a.hasValue = nil, false
		a.staged, a.hasStaged = nil, false
		a.mu.Unlock()
		a.logger.Debug().Uint64("seq", seq).Str("error", out.message).Msg("field invalid")
		return true
	}
	a.err = ""
	a.value, a.hasValue = out.value, true
	if a.def.mode == ModeCommit {
		a.staged, a.hasStaged = out.value, true
		a.mu.Unlock()
		a.logger.Debug().Uint64("seq", seq).Msg("field value staged")
		return true
	}
	a.written, a.hasWritten = out.value, true
	a.mu.Unlock()

	if replay {
		if current, ok := a.state.model.Get(a.def.path); ok && reflect.DeepEqual(current, out.value) {
			return true
		}
	}
	if err := a.state.model.Set(a.def.path, out.value); err != nil {
		a.logger.Error().Err(err).Msg("domain write failed")
		return true
	}
	a.logger.Debug().Uint64("seq", seq).Msg("field value committed")
	return true
}

func (a *FieldAccessor) close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}
