package variantmatrix

import (
	"errors"

	"github.com/carbocation/varmatrix/capsule"
)

// Every error returned by this package wraps one of these sentinels, so callers
// can match with errors.Is.
var (
	// ErrInvalidArgument marks malformed construction input: shape mismatch,
	// wrong dimensionality, illegal genotype codes, bad window bounds.
	ErrInvalidArgument = errors.New("variantmatrix: invalid argument")

	// ErrIndex marks an out of range site, sample or state index.
	ErrIndex = errors.New("variantmatrix: index out of range")

	// ErrNotResizable marks an in-place mutation of a matrix that borrows its
	// storage from the caller.
	ErrNotResizable = capsule.ErrNotResizable

	// ErrTypeConversion marks an external source that does not look like a
	// genotype source.
	ErrTypeConversion = errors.New("variantmatrix: cannot convert source")

	// ErrArityMismatch marks a per-site argument whose length is not nsites.
	ErrArityMismatch = errors.New("variantmatrix: per-site argument length does not match nsites")

	// ErrUseAfterInvalidation is returned by any view accessor once the
	// matrix it was taken from has been mutated.
	ErrUseAfterInvalidation = errors.New("variantmatrix: view used after matrix was mutated")
)
