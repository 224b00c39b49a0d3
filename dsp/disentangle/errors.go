package disentangle

import (
	"errors"
	"fmt"
)

var (
	// ErrDimension is matched by every *DimensionError.
	ErrDimension = errors.New("disentangle: dimension mismatch")
	// ErrNoObservations indicates an empty set of spectra.
	ErrNoObservations = errors.New("disentangle: no observations")
	// ErrShifterOutput indicates a shifter that returned a slice of the wrong length.
	ErrShifterOutput = errors.New("disentangle: shifter returned wrong length")
)

// DimensionError reports an input whose length does not match the
// dispersion axis or the number of observations.
type DimensionError struct {
	// Field names the offending argument: "spectra", "v_primary" or "v_secondary".
	Field string
	// Index is the observation index for per-spectrum errors, -1 otherwise.
	Index int
	Got   int
	Want  int
}

func (e *DimensionError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("disentangle: %s[%d] has %d samples, dispersion axis has %d", e.Field, e.Index, e.Got, e.Want)
	}

	return fmt.Sprintf("disentangle: %s has %d entries, want %d", e.Field, e.Got, e.Want)
}

// Is makes errors.Is(err, ErrDimension) match any DimensionError.
func (e *DimensionError) Is(target error) bool {
	return target == ErrDimension
}
