//go:build linux || darwin || freebsd || netbsd || openbsd

package lum

import (
	"unsafe"

	"github.com/michaelquigley/pfxlog"
	"golang.org/x/sys/unix"
)

// Mmap allocates anonymous private page mappings outside the Go heap.
// Every allocation occupies whole pages. Safe for concurrent use.
type Mmap struct{}

// Alloc implements Allocator.
func (Mmap) Alloc(n int) []byte {
	if n <= 0 {
		return nil
	}
	mem, err := unix.Mmap(-1, 0, pageRound(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		pfxlog.Logger().WithError(err).Errorf("mmap of %d bytes failed", n)
		return nil
	}
	return mem[:n]
}

// Free implements Allocator.
func (Mmap) Free(mem []byte) {
	if len(mem) == 0 {
		return
	}
	// munmap wants the mapping exactly as returned by Mmap
	full := unsafe.Slice(unsafe.SliceData(mem), pageRound(len(mem)))
	if err := unix.Munmap(full); err != nil {
		pfxlog.Logger().WithError(err).Errorf("munmap of %d bytes failed", len(full))
	}
}

func pageRound(n int) int {
	page := unix.Getpagesize()
	return (n + page - 1) &^ (page - 1)
}
