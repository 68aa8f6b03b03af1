package lum

import (
	"fmt"
	"sync/atomic"
)

// Uid names one live item of one Manager. Treat it as an opaque token.
//
// Layout: bits 0-23 key, bits 24-55 generation, bits 56-63 manager serial.
type Uid uint64

// NilUid is never issued.
const NilUid Uid = 0

const (
	keyBits        = 24
	generationBits = 32

	keyMask         = 1<<keyBits - 1
	generationShift = keyBits
	serialShift     = keyBits + generationBits

	// MaxKeys is the number of distinct keys one Manager can hand out.
	MaxKeys = 1 << keyBits
)

func makeUid(key, generation uint32, serial uint8) Uid {
	return Uid(key&keyMask) | Uid(generation)<<generationShift | Uid(serial)<<serialShift
}

// Key returns the index-table key.
func (u Uid) Key() uint32 {
	return uint32(u & keyMask)
}

// Generation returns the generation the key had when u was issued.
func (u Uid) Generation() uint32 {
	return uint32(u >> generationShift)
}

// Serial returns the serial of the Manager that issued u.
func (u Uid) Serial() uint8 {
	return uint8(u >> serialShift)
}

func (u Uid) String() string {
	return fmt.Sprintf("uid(%d:%d@%d)", u.Key(), u.Generation(), u.Serial())
}

var managerSerial atomic.Uint32

// nextSerial hands out serials cycling through 1..255 so no Uid is zero.
func nextSerial() uint8 {
	n := managerSerial.Add(1)
	return uint8((n-1)%255 + 1)
}
