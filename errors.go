package lum

import (
	"sync/atomic"

	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

var (
	// ErrAllocFailed indicates the underlying allocator could not satisfy a request.
	ErrAllocFailed = errors.New("lum: memory allocation failed")

	// ErrBlockReferenced indicates a block was freed while Shared handles still reference it.
	ErrBlockReferenced = errors.New("lum: memory block destroyed while still referenced")

	// ErrForeignPointer indicates a pointer that was not produced by Reserve, or a block already freed.
	ErrForeignPointer = errors.New("lum: pointer does not address a live block")

	// ErrOutOfRange indicates an index or count outside a buffer's bounds.
	ErrOutOfRange = errors.New("lum: index out of range")

	// ErrStaleUid indicates removal of an item that is not live in the manager.
	ErrStaleUid = errors.New("lum: attempted removal of stale item from manager")

	// ErrBadAlignment indicates a non power-of-two alignment or misaligned memory from an allocator.
	ErrBadAlignment = errors.New("lum: bad alignment")

	// ErrNotPlain indicates a payload type containing Go pointers.
	ErrNotPlain = errors.New("lum: payload type must not contain pointers")

	// ErrKeySpaceExhausted indicates a manager ran out of 24-bit keys.
	ErrKeySpaceExhausted = errors.New("lum: manager key space exhausted")

	// ErrUseAfterRelease indicates use of a released handle, arena or reference.
	ErrUseAfterRelease = errors.New("lum: use after release")

	// ErrArenaLive indicates an arena reset or release while allocations are outstanding.
	ErrArenaLive = errors.New("lum: arena has live allocations")
)

// FailHook receives contract violations. It must not return; if it does,
// the violation panics anyway.
type FailHook func(err error)

var failHook atomic.Pointer[FailHook]

func defaultFailHook(err error) {
	panic(err)
}

// SetFailHook installs h as the contract-violation hook and returns the
// previous one. A nil h restores the default, which panics with the error.
func SetFailHook(h FailHook) FailHook {
	if h == nil {
		h = defaultFailHook
	}
	prev := failHook.Swap(&h)
	if prev == nil {
		return defaultFailHook
	}
	return *prev
}

// fail reports a contract violation. err should already carry a stack
// (errors.Wrap and friends).
func fail(err error) {
	pfxlog.Logger().WithField("violation", err.Error()).Error("contract violation")
	if h := failHook.Load(); h != nil {
		(*h)(err)
	}
	panic(err)
}
