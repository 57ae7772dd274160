package cpu6510

import "testing"

// runUntilFetch drives the CPU one cycle at a time until it returns to
// Fetch, feeding bytes from mem (indexed by AddrBus) on every read tick
// and storing the driven byte into mem on every write tick.
// It returns the number of cycles consumed, including the terminal fetch.
func runUntilFetch(c *CPU, mem map[uint16]byte) int {
	cycles := 0
	for {
		if c.RW {
			c.DataIn(mem[c.AddrBus])
		} else {
			mem[c.AddrBus] = c.DataOut()
		}
		c.Cycle()
		cycles++
		if c.State() == StateFetch {
			return cycles
		}
	}
}

func newTestCPU(pc uint16) *CPU {
	c := NewCPU()
	c.PC = pc
	c.SP = 0xFF
	c.AddrBus = pc
	return c
}

func TestStatusRegisterForcesUnusedBit(t *testing.T) {
	for v := 0; v < 256; v++ {
		s := StatusFromByte(byte(v))
		if s.ToByte()&FlagUnused == 0 {
			t.Fatalf("ToByte() for input %#02x did not force bit 5", v)
		}
		if s.ToByte() != byte(v)|FlagUnused {
			t.Fatalf("ToByte() = %#02x, want %#02x", s.ToByte(), byte(v)|FlagUnused)
		}
	}
}

func TestResetState(t *testing.T) {
	c := NewCPU()
	if c.PC != 0xFCE2 {
		t.Fatalf("PC after reset = %#04x, want 0xFCE2", c.PC)
	}
	if c.A != 0xAA || c.X != 0 || c.Y != 0 {
		t.Fatalf("register contents after reset = A:%#02x X:%#02x Y:%#02x", c.A, c.X, c.Y)
	}
	if c.SP != 0xFD {
		t.Fatalf("SP after reset = %#02x, want 0xFD", c.SP)
	}
	if !c.KernalVisible || !c.BasicVisible || !c.IOVisible {
		t.Fatalf("banking flags after reset = kernal:%v basic:%v io:%v, want all true",
			c.KernalVisible, c.BasicVisible, c.IOVisible)
	}
	if c.State() != StateFetch {
		t.Fatalf("state after reset = %v, want Fetch", c.State())
	}
}

// TestLDAImmediate covers the first concrete scenario: LDA #$42 sets A
// and the N/Z flags and takes exactly 2 cycles.
func TestLDAImmediate(t *testing.T) {
	c := newTestCPU(0x0200)
	mem := map[uint16]byte{0x0200: 0xA9, 0x0201: 0x42}
	c.DataIn(mem[c.AddrBus])
	cycles := runUntilFetch(c, mem)
	if cycles != 2 {
		t.Fatalf("LDA #imm took %d cycles, want 2", cycles)
	}
	if c.A != 0x42 {
		t.Fatalf("A = %#02x, want 0x42", c.A)
	}
	if c.SR.has(FlagZero) || c.SR.has(FlagNegative) {
		t.Fatalf("unexpected flags for A=0x42: %#02x", c.SR.ToByte())
	}
	if c.AddrBus != c.PC {
		t.Fatalf("at Fetch, AddrBus = %#04x, want PC = %#04x", c.AddrBus, c.PC)
	}
}

// TestLDXThenINX covers LDX #$05 / INX, verifying X increments and Z/N
// update correctly after the chained instructions.
func TestLDXThenINX(t *testing.T) {
	c := newTestCPU(0x0300)
	mem := map[uint16]byte{0x0300: 0xA2, 0x0301: 0x05, 0x0302: 0xE8}
	c.DataIn(mem[c.AddrBus])
	runUntilFetch(c, mem)
	if c.X != 0x05 {
		t.Fatalf("X after LDX = %#02x, want 0x05", c.X)
	}
	c.DataIn(mem[c.AddrBus])
	cycles := runUntilFetch(c, mem)
	if cycles != 2 {
		t.Fatalf("INX took %d cycles, want 2", cycles)
	}
	if c.X != 0x06 {
		t.Fatalf("X after INX = %#02x, want 0x06", c.X)
	}
	if c.SR.has(FlagZero) || c.SR.has(FlagNegative) {
		t.Fatalf("unexpected flags for X=0x06: %#02x", c.SR.ToByte())
	}
}

// TestLDAThenASLAccumulator covers LDA #$40 / ASL A: carry takes the bit
// shifted out (clear, since 0x40 has bit 7 clear), result 0x80 is negative.
func TestLDAThenASLAccumulator(t *testing.T) {
	c := newTestCPU(0x0400)
	mem := map[uint16]byte{0x0400: 0xA9, 0x0401: 0x40, 0x0402: 0x0A}
	c.DataIn(mem[c.AddrBus])
	runUntilFetch(c, mem)
	c.DataIn(mem[c.AddrBus])
	cycles := runUntilFetch(c, mem)
	if cycles != 2 {
		t.Fatalf("ASL A took %d cycles, want 2", cycles)
	}
	if c.A != 0x80 {
		t.Fatalf("A after ASL = %#02x, want 0x80", c.A)
	}
	if c.SR.has(FlagCarry) {
		t.Fatalf("carry set after shifting out a clear bit 7")
	}
	if !c.SR.has(FlagNegative) {
		t.Fatalf("negative flag not set for result 0x80")
	}
}

// TestLDAThenSTAAbsolute covers LDA #$7F / STA $0600, confirming the
// write lands at the expected address with the documented 4-cycle store.
func TestLDAThenSTAAbsolute(t *testing.T) {
	c := newTestCPU(0x0500)
	mem := map[uint16]byte{
		0x0500: 0xA9, 0x0501: 0x7F,
		0x0502: 0x8D, 0x0503: 0x00, 0x0504: 0x06,
	}
	c.DataIn(mem[c.AddrBus])
	runUntilFetch(c, mem)

	var written byte
	var writtenAddr uint16
	cycles := 0
	for {
		if c.RW {
			c.DataIn(mem[c.AddrBus])
		}
		c.Cycle()
		cycles++
		if !c.RW && c.State() != StateFetch {
			written = c.DataOut()
			writtenAddr = c.AddrBus
		}
		if c.State() == StateFetch {
			break
		}
	}
	if writtenAddr != 0x0600 || written != 0x7F {
		t.Fatalf("STA wrote %#02x to %#04x, want 0x7F to 0x0600", written, writtenAddr)
	}
	if cycles != 4 {
		t.Fatalf("STA abs took %d cycles, want 4", cycles)
	}
}

// TestJSRThenRTS covers JSR $0700 followed by RTS, confirming the return
// address round-trips to the instruction after JSR.
func TestJSRThenRTS(t *testing.T) {
	c := newTestCPU(0x0600)
	mem := map[uint16]byte{
		0x0600: 0x20, 0x0601: 0x00, 0x0602: 0x07,
		0x0700: 0x60,
	}
	c.DataIn(mem[c.AddrBus])
	cycles := runUntilFetch(c, mem)
	if cycles != 6 {
		t.Fatalf("JSR took %d cycles, want 6", cycles)
	}
	if c.PC != 0x0700 {
		t.Fatalf("PC after JSR = %#04x, want 0x0700", c.PC)
	}
	c.DataIn(mem[c.AddrBus])
	cycles = runUntilFetch(c, mem)
	if cycles != 6 {
		t.Fatalf("RTS took %d cycles, want 6", cycles)
	}
	if c.PC != 0x0603 {
		t.Fatalf("PC after RTS = %#04x, want 0x0603", c.PC)
	}
}

// TestSEIThenCLI covers SEI / CLI toggling the interrupt-disable flag.
func TestSEIThenCLI(t *testing.T) {
	c := newTestCPU(0x0800)
	mem := map[uint16]byte{0x0800: 0x78, 0x0801: 0x58}
	c.DataIn(mem[c.AddrBus])
	runUntilFetch(c, mem)
	if !c.SR.has(FlagInterrupt) {
		t.Fatalf("SEI did not set the interrupt-disable flag")
	}
	c.DataIn(mem[c.AddrBus])
	runUntilFetch(c, mem)
	if c.SR.has(FlagInterrupt) {
		t.Fatalf("CLI did not clear the interrupt-disable flag")
	}
}

func TestIndirectIndexedPageCrossTakesExtraCycle(t *testing.T) {
	base := newTestCPU(0x0900)
	mem := map[uint16]byte{
		0x0900: 0xB1, 0x0901: 0x10, // LDA ($10),Y
		0x0010: 0xFF, 0x0011: 0x02, // pointer -> 0x02FF
		0x0300: 0x99, // 0x02FF + 1 (Y) = 0x0300, crossing the page
	}
	base.Y = 1
	base.DataIn(mem[base.AddrBus])
	cycles := runUntilFetch(base, mem)
	if cycles != 6 {
		t.Fatalf("LDA (zp),Y with page cross took %d cycles, want 6", cycles)
	}
	if base.A != 0x99 {
		t.Fatalf("A = %#02x, want 0x99", base.A)
	}

	noCross := newTestCPU(0x0900)
	mem2 := map[uint16]byte{
		0x0900: 0xB1, 0x0901: 0x10,
		0x0010: 0x00, 0x0011: 0x02, // pointer -> 0x0200
		0x0201: 0x55, // 0x0200 + 1 (Y), same page
	}
	noCross.Y = 1
	noCross.DataIn(mem2[noCross.AddrBus])
	cycles = runUntilFetch(noCross, mem2)
	if cycles != 5 {
		t.Fatalf("LDA (zp),Y without page cross took %d cycles, want 5", cycles)
	}
	if noCross.A != 0x55 {
		t.Fatalf("A = %#02x, want 0x55", noCross.A)
	}
}

func TestRMWAbsoluteXTakesSevenCycles(t *testing.T) {
	c := newTestCPU(0x0A00)
	mem := map[uint16]byte{
		0x0A00: 0xFE, 0x0A01: 0x00, 0x0A02: 0x02, // INC $0200,X
		0x0200: 0x04,
	}
	c.X = 0
	c.DataIn(mem[c.AddrBus])
	cycles := runUntilFetch(c, mem)
	if cycles != 7 {
		t.Fatalf("INC abs,X took %d cycles, want 7", cycles)
	}
}

func TestBranchCycleCounts(t *testing.T) {
	notTaken := newTestCPU(0x0B00)
	mem := map[uint16]byte{0x0B00: 0xF0, 0x0B01: 0x10} // BEQ, Z clear
	notTaken.DataIn(mem[notTaken.AddrBus])
	if cycles := runUntilFetch(notTaken, mem); cycles != 2 {
		t.Fatalf("not-taken branch took %d cycles, want 2", cycles)
	}

	taken := newTestCPU(0x0B00)
	taken.SR.set(FlagZero, true)
	taken.DataIn(mem[taken.AddrBus])
	if cycles := runUntilFetch(taken, mem); cycles != 3 {
		t.Fatalf("same-page taken branch took %d cycles, want 3", cycles)
	}

	crossing := newTestCPU(0x0BF0)
	mem2 := map[uint16]byte{0x0BF0: 0xF0, 0x0BF1: 0x20}
	crossing.SR.set(FlagZero, true)
	crossing.DataIn(mem2[crossing.AddrBus])
	if cycles := runUntilFetch(crossing, mem2); cycles != 4 {
		t.Fatalf("page-crossing taken branch took %d cycles, want 4", cycles)
	}
}

func TestJMPIndirectPageBoundaryBug(t *testing.T) {
	c := newTestCPU(0x0C00)
	mem := map[uint16]byte{
		0x0C00: 0x6C, 0x0C01: 0xFF, 0x0C02: 0x02, // JMP ($02FF)
		0x02FF: 0x00, // low byte of target
		0x0200: 0x03, // high byte is mis-fetched from 0x0200, not 0x0300
		0x0300: 0xFF, // if the bug were absent, this would be used instead
	}
	c.DataIn(mem[c.AddrBus])
	cycles := runUntilFetch(c, mem)
	if cycles != 5 {
		t.Fatalf("JMP indirect took %d cycles, want 5", cycles)
	}
	if c.PC != 0x0300 {
		t.Fatalf("PC after buggy JMP indirect = %#04x, want 0x0300 (high byte from 0x0200)", c.PC)
	}
}

func TestStackPointerWrapsModulo256(t *testing.T) {
	c := newTestCPU(0x0D00)
	c.SP = 0x00
	mem := map[uint16]byte{0x0D00: 0x48} // PHA
	c.DataIn(mem[c.AddrBus])
	runUntilFetch(c, mem)
	if c.SP != 0xFF {
		t.Fatalf("SP after push from 0x00 = %#02x, want 0xFF (wrapped)", c.SP)
	}
}

func TestBankingTableMatchesDataport(t *testing.T) {
	c := NewCPU()
	c.WritePort(0, 0x2F)
	c.WritePort(1, 0x30) // bits 0-2 = 000
	if c.KernalVisible || c.BasicVisible || c.CharVisible || c.IOVisible {
		t.Fatalf("mode 0 should disable all banked regions")
	}
	c.WritePort(1, 0x37) // bits 0-2 = 111
	if !c.KernalVisible || !c.BasicVisible || c.CharVisible || !c.IOVisible {
		t.Fatalf("mode 7 should expose KERNAL+BASIC+IO with CHAR hidden behind IO")
	}
}
