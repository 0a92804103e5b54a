// internal/poller/usb2snes/address.go
package usb2snes

import "fmt"

// Region is one console memory region inside the unified address space.
//
// Unified address space:
//
//	E00000-EFFFFF  SRAM
//	F50000-F6FFFF  WRAM
//	F70000-F8FFFF  VRAM
type Region uint8

const (
	RegionSRAM Region = iota
	RegionWRAM
	RegionVRAM
)

const (
	SRAMOffset uint32 = 0xE00000
	WRAMOffset uint32 = 0xF50000
	VRAMOffset uint32 = 0xF70000

	wramSize uint32 = 0x020000
	vramSize uint32 = 0x020000
	sramSize uint32 = 0x100000
)

func (r Region) String() string {
	switch r {
	case RegionSRAM:
		return "SRAM"
	case RegionWRAM:
		return "WRAM"
	case RegionVRAM:
		return "VRAM"
	default:
		return fmt.Sprintf("Region(%d)", uint8(r))
	}
}

// Base returns the region's offset in the unified address space.
func (r Region) Base() uint32 {
	switch r {
	case RegionSRAM:
		return SRAMOffset
	case RegionWRAM:
		return WRAMOffset
	case RegionVRAM:
		return VRAMOffset
	default:
		return 0
	}
}

func (r Region) size() uint32 {
	switch r {
	case RegionSRAM:
		return sramSize
	case RegionWRAM:
		return wramSize
	case RegionVRAM:
		return vramSize
	default:
		return 0
	}
}

// Contains reports whether a unified offset falls inside the region.
func (r Region) Contains(offset uint32) bool {
	base := r.Base()
	return offset >= base && offset < base+r.size()
}

// regionOf returns the region holding a unified offset.
func regionOf(offset uint32) (Region, bool) {
	for _, r := range []Region{RegionSRAM, RegionWRAM, RegionVRAM} {
		if r.Contains(offset) {
			return r, true
		}
	}
	return 0, false
}

// Writable reports whether the client may write to the region.
// Work-RAM is shadowed by the cart, it can only be read.
func (r Region) Writable() bool {
	return r != RegionWRAM
}

// TranslateWRAMAddress maps a console bank:offset address onto the unified WRAM offset.
//
// Banks 7E/7F map directly. Banks 00-3F (and 80-BF) are accepted only at
// offsets 2000 and above; the low 13 bits select the WRAM byte.
func TranslateWRAMAddress(addr uint32) (uint32, error) {
	if addr > 0xFFFFFF {
		return 0, fmt.Errorf("%w: %X is wider than 24 bits", ErrInvalidArgument, addr)
	}

	bank := addr >> 16

	if bank == 0x7E || bank == 0x7F {
		return (addr & 0x01FFFF) | WRAMOffset, nil
	}
	if bank&0x7F < 0x40 && addr&0xFFFF >= 0x2000 {
		return (addr & 0x1FFF) | WRAMOffset, nil
	}

	return 0, fmt.Errorf("%w: %06X is not a Work-RAM address", ErrInvalidArgument, addr)
}
