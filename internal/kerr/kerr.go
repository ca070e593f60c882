// Package kerr holds the sentinel error causes used throughout gossamer,
// wrapped at call sites with github.com/grailbio/base/errors.E the way
// encoding/bam/unmarshal.go and encoding/bam/marshal.go wrap their sentinel
// errors.
package kerr

import "github.com/grailbio/base/errors"

// Sentinel causes, one per error kind in the taxonomy. Callers wrap these
// with errors.E to attach context: errors.E(kerr.VersionMismatch, "path:", p).
var (
	// VersionMismatch: a persisted artifact's version word differs from the
	// version this build expects.
	VersionMismatch = errors.E(errors.Integrity, "version mismatch")
	// IO: a file is missing, unreadable, or truncated.
	IO = errors.E(errors.Other, "i/o error")
	// Usage: a missing mandatory option, an invalid value, or mutually
	// exclusive options combined.
	Usage = errors.E(errors.Invalid, "usage error")
	// Sequence: input contains a non-base character where one is required,
	// or a read shorter than k+1.
	Sequence = errors.E(errors.Invalid, "sequence error")
	// CapacityExceeded: k exceeds MaxK. (Counts that overflow a slot
	// saturate instead of raising an error.)
	CapacityExceeded = errors.E(errors.ResourcesExhausted, "capacity exceeded")
	// InvariantViolation: an internal contract was broken (wrong sort
	// order into a builder, rank out of range, a corrupt persisted
	// graph failing its rank/select/symmetry checks). Fatal.
	InvariantViolation = errors.E(errors.Integrity, "invariant violation")
)

// Wrap attaches context to one of the sentinel causes above, in the same
// shape encoding/fastq/downsample.go uses: errors.E(err, "read", path).
func Wrap(cause error, context ...interface{}) error {
	args := make([]interface{}, 0, len(context)+1)
	args = append(args, cause)
	args = append(args, context...)
	return errors.E(args...)
}
