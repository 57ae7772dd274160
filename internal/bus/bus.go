// Package bus implements the C64 address decoder: pure routing logic
// between the CPU, RAM, the three ROM images, color RAM, and the
// memory-mapped peripherals (VIC, SID, two CIAs).
package bus

import (
	"fmt"

	"github.com/zotley/vice64/internal/cpu6510"
)

// Register is the uniform contract every memory-mapped peripheral
// exposes to the bus for register-level reads and writes.
type Register interface {
	ReadRegister(addr uint16) byte
	WriteRegister(addr uint16, value byte)
}

const (
	kernalBase = 0xE000
	kernalSize = 8192
	basicBase  = 0xA000
	basicSize  = 8192
	charBase   = 0xD000
	charSize   = 4096

	ioBase = 0xD000
	ioEnd  = 0xDFFF

	vicBase  = 0xD000
	vicEnd   = 0xD3FF
	sidBase  = 0xD400
	sidEnd   = 0xD7FF
	colBase  = 0xD800
	colEnd   = 0xDBFF
	cia1Base = 0xDC00
	cia1End  = 0xDCFF
	cia2Base = 0xDD00
	cia2End  = 0xDDFF
)

// Bus owns every piece of C64 memory-mapped state. The clock loop holds
// the sole reference to it; the CPU and VIC never see it directly.
type Bus struct {
	RAM    [65536]byte
	Kernal [kernalSize]byte
	Basic  [basicSize]byte
	Char   [charSize]byte
	Color  [1024]byte // low nibble significant, per real color RAM

	VIC  Register
	SID  Register
	CIA1 Register
	CIA2 Register

	cpu *cpu6510.CPU
}

// New constructs a Bus wired to the given CPU for banking-flag queries.
func New(cpu *cpu6510.CPU) *Bus {
	return &Bus{cpu: cpu}
}

// Read services a CPU read of address addr: the CPU I/O port at 0/1,
// else the banking-gated KERNAL/BASIC/CHAR/I-O priority chain over RAM.
func (b *Bus) Read(addr uint16) byte {
	if addr == 0 || addr == 1 {
		return b.cpu.ReadPort(addr)
	}
	return b.readBanked(addr)
}

// readBanked resolves a non-port address through the banking-gated
// KERNAL/BASIC/CHAR/I-O priority chain over RAM. It is shared by Read
// (CPU accesses) and ReadRaw (VIC accesses, which never hit the ports).
func (b *Bus) readBanked(addr uint16) byte {
	if b.cpu.KernalVisible && addr >= kernalBase {
		return b.Kernal[addr-kernalBase]
	}
	if b.cpu.BasicVisible && addr >= basicBase && addr <= 0xBFFF {
		return b.Basic[addr-basicBase]
	}
	if addr >= ioBase && addr <= ioEnd {
		if !b.cpu.IOVisible && b.cpu.CharVisible {
			return b.Char[addr-charBase]
		}
		if b.cpu.IOVisible {
			return b.readIO(addr)
		}
	}
	return b.RAM[addr]
}

// readIO resolves a read inside 0xD000..0xDFFF once I/O is known visible,
// applying the VIC > SID-with-color-RAM-overlay > CIA1 > CIA2 priority.
// An address inside the I/O region but outside every peripheral window
// (0xDE00-0xDFFF) is wired to nothing on real hardware; this emulator
// treats that as fatal rather than silently returning a stray value.
func (b *Bus) readIO(addr uint16) byte {
	switch {
	case addr >= vicBase && addr <= vicEnd:
		return b.VIC.ReadRegister(addr)
	case addr >= colBase && addr <= colEnd:
		return b.Color[addr-colBase] & 0x0F
	case addr >= sidBase && addr <= sidEnd:
		return b.SID.ReadRegister(addr)
	case addr >= cia1Base && addr <= cia1End:
		return b.CIA1.ReadRegister(addr)
	case addr >= cia2Base && addr <= cia2End:
		return b.CIA2.ReadRegister(addr)
	default:
		panic(fmt.Sprintf("bus: read of unimplemented I/O address %#04x", addr))
	}
}

// Write services a CPU write. Address 0/1 routes only to the CPU ports
// and never touches RAM. Every other write always updates RAM even when
// a peripheral or ROM is also addressed; ROM is never written.
func (b *Bus) Write(addr uint16, value byte) {
	if addr == 0 || addr == 1 {
		b.cpu.WritePort(addr, value)
		return
	}

	b.RAM[addr] = value

	if b.cpu.IOVisible && addr >= ioBase && addr <= ioEnd {
		b.writeIO(addr, value)
	}
}

// writeIO mirrors readIO's peripheral-window dispatch; the same
// unimplemented-address case is fatal here too.
func (b *Bus) writeIO(addr uint16, value byte) {
	switch {
	case addr >= vicBase && addr <= vicEnd:
		b.VIC.WriteRegister(addr, value)
	case addr >= colBase && addr <= colEnd:
		b.Color[addr-colBase] = value & 0x0F
	case addr >= sidBase && addr <= sidEnd:
		b.SID.WriteRegister(addr, value)
	case addr >= cia1Base && addr <= cia1End:
		b.CIA1.WriteRegister(addr, value)
	case addr >= cia2Base && addr <= cia2End:
		b.CIA2.WriteRegister(addr, value)
	default:
		panic(fmt.Sprintf("bus: write of unimplemented I/O address %#04x", addr))
	}
}

// ReadRaw reads the byte the VIC sees at addr: the same banking-gated
// KERNAL/BASIC/CHAR/I-O priority chain CPU reads go through, since the
// VIC shares the same address decoder and is never routed to the ports.
func (b *Bus) ReadRaw(addr uint16) byte {
	return b.readBanked(addr)
}

// ColorNibble returns the color-RAM cell for the low 10 bits of addr, as
// the VIC always does regardless of CPU I/O visibility.
func (b *Bus) ColorNibble(addr uint16) byte {
	return b.Color[addr&0x03FF]
}

// LoadKernal, LoadBasic, LoadChar copy a raw ROM image into place. The
// caller (internal/config) validates the exact expected length.
func (b *Bus) LoadKernal(data []byte) { copy(b.Kernal[:], data) }
func (b *Bus) LoadBasic(data []byte)  { copy(b.Basic[:], data) }
func (b *Bus) LoadChar(data []byte)   { copy(b.Char[:], data) }

// LoadRAM copies an initial memory image starting at address 0, up to
// 65536 bytes, used for cartridge/snapshot bring-up in tests and tools.
func (b *Bus) LoadRAM(data []byte) {
	copy(b.RAM[:], data)
}
