package wirecmp

import (
	"errors"

	"github.com/pthm/wirecmp/lib/synth"
	"github.com/pthm/wirecmp/records"
)

// Sentinel errors for snapshot processing.
var (
	// ErrCorruptPayload indicates a snapshot's checksum did not match the
	// recomputed signature. Always fatal for the request; the client cannot
	// be trusted past this point.
	ErrCorruptPayload = errors.New("wirecmp: corrupt payload")

	// ErrPayloadLimitExceeded indicates a batch exceeded a configured limit
	// (calls, size, or component count). Rejected before any processing.
	ErrPayloadLimitExceeded = errors.New("wirecmp: payload limit exceeded")

	// ErrUnknownSynthesizer indicates a wire value carried a discriminator
	// no registered synthesizer recognizes.
	ErrUnknownSynthesizer = errors.New("wirecmp: unknown synthesizer")

	// ErrUnregisteredClass indicates snapshot metadata referenced a
	// component, form, or model class that was never registered.
	ErrUnregisteredClass = errors.New("wirecmp: unregistered class")

	// ErrRecordNotFound indicates a model reference could not be re-fetched
	// from its record store during hydration.
	ErrRecordNotFound = errors.New("wirecmp: record not found")

	// ErrCycleDetected indicates a value contained itself transitively and
	// could not be dehydrated.
	ErrCycleDetected = errors.New("wirecmp: reference cycle detected")

	// ErrCannotCallComputedDirectly indicates a computed method was invoked
	// as an action. The call is rejected without mutating state.
	ErrCannotCallComputedDirectly = errors.New("wirecmp: cannot call computed method directly")

	// ErrCannotUpdateLockedProperty indicates an update targeted a property
	// guarded by a Locked decorator. Only that update is rejected; the rest
	// of the batch proceeds.
	ErrCannotUpdateLockedProperty = errors.New("wirecmp: cannot update locked property")

	// ErrMethodNotFound indicates a call named an action the component never
	// registered.
	ErrMethodNotFound = errors.New("wirecmp: method not found")
)

// IsCorrupt checks if err is a checksum failure.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorruptPayload)
}

// IsHydrationError checks if err prevented a value from being hydrated.
func IsHydrationError(err error) bool {
	return errors.Is(err, ErrUnknownSynthesizer) ||
		errors.Is(err, ErrUnregisteredClass) ||
		errors.Is(err, ErrRecordNotFound)
}

// WrapSynthError maps lib/synth and records sentinel errors onto wirecmp
// sentinel errors so callers only ever match against one taxonomy.
func WrapSynthError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, synth.ErrUnknownSynthesizer):
		return errors.Join(ErrUnknownSynthesizer, err)
	case errors.Is(err, synth.ErrUnregisteredClass):
		return errors.Join(ErrUnregisteredClass, err)
	case errors.Is(err, synth.ErrCycleDetected):
		return errors.Join(ErrCycleDetected, err)
	case errors.Is(err, records.ErrNotFound):
		return errors.Join(ErrRecordNotFound, err)
	}
	return err
}
