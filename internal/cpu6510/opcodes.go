package cpu6510

// op* functions implement instruction semantics against already-resolved
// operands; the addressing/timing machinery in steps.go is responsible
// for getting the right byte to and from memory at the right tick.

// --- ALU primitives ---

// opADC implements binary-mode addition with carry. Decimal mode is an
// explicitly incomplete placeholder: the D flag is tracked and can be
// set/cleared, but ADC/SBC always compute as if D were clear. A real
// BCD correction pass is future work.
func opADC(c *CPU, operand byte) {
	carryIn := uint16(0)
	if c.SR.has(FlagCarry) {
		carryIn = 1
	}
	a := uint16(c.A)
	v := uint16(operand)
	sum := a + v + carryIn
	c.SR.set(FlagCarry, sum > 0xFF)
	result := byte(sum)
	overflow := (^(c.A ^ operand) & (c.A ^ result) & 0x80) != 0
	c.SR.set(FlagOverflow, overflow)
	c.A = result
	c.SR.setNZ(c.A)
}

func opSBC(c *CPU, operand byte) {
	opADC(c, ^operand)
}

func opAND(c *CPU, operand byte) {
	c.A &= operand
	c.SR.setNZ(c.A)
}

func opORA(c *CPU, operand byte) {
	c.A |= operand
	c.SR.setNZ(c.A)
}

func opEOR(c *CPU, operand byte) {
	c.A ^= operand
	c.SR.setNZ(c.A)
}

func cmpReg(c *CPU, reg byte, operand byte) {
	result := reg - operand
	c.SR.set(FlagCarry, reg >= operand)
	c.SR.setNZ(result)
}

func opCMP(c *CPU, operand byte) { cmpReg(c, c.A, operand) }
func opCPX(c *CPU, operand byte) { cmpReg(c, c.X, operand) }
func opCPY(c *CPU, operand byte) { cmpReg(c, c.Y, operand) }

func opBIT(c *CPU, operand byte) {
	c.SR.set(FlagZero, c.A&operand == 0)
	c.SR.set(FlagOverflow, operand&FlagOverflow != 0)
	c.SR.set(FlagNegative, operand&FlagNegative != 0)
}

func opLDA(c *CPU, operand byte) { c.A = operand; c.SR.setNZ(c.A) }
func opLDX(c *CPU, operand byte) { c.X = operand; c.SR.setNZ(c.X) }
func opLDY(c *CPU, operand byte) { c.Y = operand; c.SR.setNZ(c.Y) }

// opLAX (undocumented) loads A and X simultaneously from the same byte.
func opLAX(c *CPU, operand byte) {
	c.A = operand
	c.X = operand
	c.SR.setNZ(c.A)
}

func wrSTA(c *CPU) byte { return c.A }
func wrSTX(c *CPU) byte { return c.X }
func wrSTY(c *CPU) byte { return c.Y }

// wrSAX (undocumented) stores A&X without touching flags.
func wrSAX(c *CPU) byte { return c.A & c.X }

// --- Read-modify-write primitives ---

func rmwASL(c *CPU, old byte) byte {
	c.SR.set(FlagCarry, old&0x80 != 0)
	result := old << 1
	c.SR.setNZ(result)
	return result
}

func rmwLSR(c *CPU, old byte) byte {
	c.SR.set(FlagCarry, old&0x01 != 0)
	result := old >> 1
	c.SR.setNZ(result)
	return result
}

func rmwROL(c *CPU, old byte) byte {
	carryIn := byte(0)
	if c.SR.has(FlagCarry) {
		carryIn = 1
	}
	c.SR.set(FlagCarry, old&0x80 != 0)
	result := (old << 1) | carryIn
	c.SR.setNZ(result)
	return result
}

func rmwROR(c *CPU, old byte) byte {
	carryIn := byte(0)
	if c.SR.has(FlagCarry) {
		carryIn = 0x80
	}
	c.SR.set(FlagCarry, old&0x01 != 0)
	result := (old >> 1) | carryIn
	c.SR.setNZ(result)
	return result
}

func rmwINC(c *CPU, old byte) byte {
	result := old + 1
	c.SR.setNZ(result)
	return result
}

func rmwDEC(c *CPU, old byte) byte {
	result := old - 1
	c.SR.setNZ(result)
	return result
}

// rmwDCP (undocumented, DEC+CMP fused) decrements memory then compares
// against A, leaving A untouched.
func rmwDCP(c *CPU, old byte) byte {
	result := old - 1
	c.SR.set(FlagCarry, c.A >= result)
	c.SR.setNZ(c.A - result)
	return result
}

// --- Implied/register operations (catImplied, read signature ignoring operand) ---

func opCLC(c *CPU, _ byte) { c.SR.set(FlagCarry, false) }
func opSEC(c *CPU, _ byte) { c.SR.set(FlagCarry, true) }
func opCLI(c *CPU, _ byte) { c.SR.set(FlagInterrupt, false) }
func opSEI(c *CPU, _ byte) { c.SR.set(FlagInterrupt, true) }
func opCLV(c *CPU, _ byte) { c.SR.set(FlagOverflow, false) }
func opCLD(c *CPU, _ byte) { c.SR.set(FlagDecimal, false) }
func opSED(c *CPU, _ byte) { c.SR.set(FlagDecimal, true) }
func opNOP(c *CPU, _ byte) {}

func opTAX(c *CPU, _ byte) { c.X = c.A; c.SR.setNZ(c.X) }
func opTAY(c *CPU, _ byte) { c.Y = c.A; c.SR.setNZ(c.Y) }
func opTXA(c *CPU, _ byte) { c.A = c.X; c.SR.setNZ(c.A) }
func opTYA(c *CPU, _ byte) { c.A = c.Y; c.SR.setNZ(c.A) }
func opTSX(c *CPU, _ byte) { c.X = c.SP; c.SR.setNZ(c.X) }
func opTXS(c *CPU, _ byte) { c.SP = c.X }

func opINX(c *CPU, _ byte) { c.X++; c.SR.setNZ(c.X) }
func opINY(c *CPU, _ byte) { c.Y++; c.SR.setNZ(c.Y) }
func opDEX(c *CPU, _ byte) { c.X--; c.SR.setNZ(c.X) }
func opDEY(c *CPU, _ byte) { c.Y--; c.SR.setNZ(c.Y) }

// opALR, opANC, opARR, opAXS are undocumented combination opcodes.
func opALR(c *CPU, operand byte) {
	opAND(c, operand)
	c.A = rmwLSR(c, c.A)
}

func opANC(c *CPU, operand byte) {
	opAND(c, operand)
	c.SR.set(FlagCarry, c.A&0x80 != 0)
}

func opARR(c *CPU, operand byte) {
	opAND(c, operand)
	c.A = rmwROR(c, c.A)
}

func opAXS(c *CPU, operand byte) {
	result := (c.A & c.X) - operand
	c.SR.set(FlagCarry, (c.A&c.X) >= operand)
	c.X = result
	c.SR.setNZ(c.X)
}

// --- Push/pull value producers ---

func wrPHA(c *CPU) byte { return c.A }
func wrPHP(c *CPU) byte { return c.SR.ToByte() | FlagBreak }

func rdPLA(c *CPU, operand byte) { c.A = operand; c.SR.setNZ(c.A) }
func rdPLP(c *CPU, operand byte) { c.SR = StatusFromByte(operand &^ FlagBreak) }

// --- Branch conditions ---

func brBPL(c *CPU) bool { return !c.SR.has(FlagNegative) }
func brBMI(c *CPU) bool { return c.SR.has(FlagNegative) }
func brBVC(c *CPU) bool { return !c.SR.has(FlagOverflow) }
func brBVS(c *CPU) bool { return c.SR.has(FlagOverflow) }
func brBCC(c *CPU) bool { return !c.SR.has(FlagCarry) }
func brBCS(c *CPU) bool { return c.SR.has(FlagCarry) }
func brBNE(c *CPU) bool { return !c.SR.has(FlagZero) }
func brBEQ(c *CPU) bool { return c.SR.has(FlagZero) }

func init() {
	// --- Load/store/ALU read-category instructions ---
	readOp := func(op byte, mnemonic string, mode AddrMode, fn readFn) {
		e := define(op, mnemonic, mode, catRead)
		e.read = fn
	}
	writeOp := func(op byte, mnemonic string, mode AddrMode, fn writeFn) {
		e := define(op, mnemonic, mode, catWrite)
		e.write = fn
	}
	rmwOp := func(op byte, mnemonic string, mode AddrMode, fn rmwFn) {
		e := define(op, mnemonic, mode, catRMW)
		e.rmw = fn
	}
	impliedOp := func(op byte, mnemonic string, fn readFn) {
		e := define(op, mnemonic, ModeImplied, catImplied)
		e.read = fn
	}
	branchOp := func(op byte, mnemonic string, fn func(c *CPU) bool) {
		e := define(op, mnemonic, ModeRelative, catBranch)
		e.branch = fn
	}

	// ADC
	readOp(0x69, "ADC", ModeImmediate, opADC)
	readOp(0x65, "ADC", ModeZeropage, opADC)
	readOp(0x75, "ADC", ModeZeropageX, opADC)
	readOp(0x6D, "ADC", ModeAbsolute, opADC)
	readOp(0x7D, "ADC", ModeAbsoluteX, opADC)
	readOp(0x79, "ADC", ModeAbsoluteY, opADC)
	readOp(0x61, "ADC", ModeIndexedIndirect, opADC)
	readOp(0x71, "ADC", ModeIndirectIndexed, opADC)

	// SBC
	readOp(0xE9, "SBC", ModeImmediate, opSBC)
	readOp(0xE5, "SBC", ModeZeropage, opSBC)
	readOp(0xF5, "SBC", ModeZeropageX, opSBC)
	readOp(0xED, "SBC", ModeAbsolute, opSBC)
	readOp(0xFD, "SBC", ModeAbsoluteX, opSBC)
	readOp(0xF9, "SBC", ModeAbsoluteY, opSBC)
	readOp(0xE1, "SBC", ModeIndexedIndirect, opSBC)
	readOp(0xF1, "SBC", ModeIndirectIndexed, opSBC)

	// AND
	readOp(0x29, "AND", ModeImmediate, opAND)
	readOp(0x25, "AND", ModeZeropage, opAND)
	readOp(0x35, "AND", ModeZeropageX, opAND)
	readOp(0x2D, "AND", ModeAbsolute, opAND)
	readOp(0x3D, "AND", ModeAbsoluteX, opAND)
	readOp(0x39, "AND", ModeAbsoluteY, opAND)
	readOp(0x21, "AND", ModeIndexedIndirect, opAND)
	readOp(0x31, "AND", ModeIndirectIndexed, opAND)

	// ORA
	readOp(0x09, "ORA", ModeImmediate, opORA)
	readOp(0x05, "ORA", ModeZeropage, opORA)
	readOp(0x15, "ORA", ModeZeropageX, opORA)
	readOp(0x0D, "ORA", ModeAbsolute, opORA)
	readOp(0x1D, "ORA", ModeAbsoluteX, opORA)
	readOp(0x19, "ORA", ModeAbsoluteY, opORA)
	readOp(0x01, "ORA", ModeIndexedIndirect, opORA)
	readOp(0x11, "ORA", ModeIndirectIndexed, opORA)

	// EOR
	readOp(0x49, "EOR", ModeImmediate, opEOR)
	readOp(0x45, "EOR", ModeZeropage, opEOR)
	readOp(0x55, "EOR", ModeZeropageX, opEOR)
	readOp(0x4D, "EOR", ModeAbsolute, opEOR)
	readOp(0x5D, "EOR", ModeAbsoluteX, opEOR)
	readOp(0x59, "EOR", ModeAbsoluteY, opEOR)
	readOp(0x41, "EOR", ModeIndexedIndirect, opEOR)
	readOp(0x51, "EOR", ModeIndirectIndexed, opEOR)

	// CMP/CPX/CPY
	readOp(0xC9, "CMP", ModeImmediate, opCMP)
	readOp(0xC5, "CMP", ModeZeropage, opCMP)
	readOp(0xD5, "CMP", ModeZeropageX, opCMP)
	readOp(0xCD, "CMP", ModeAbsolute, opCMP)
	readOp(0xDD, "CMP", ModeAbsoluteX, opCMP)
	readOp(0xD9, "CMP", ModeAbsoluteY, opCMP)
	readOp(0xC1, "CMP", ModeIndexedIndirect, opCMP)
	readOp(0xD1, "CMP", ModeIndirectIndexed, opCMP)
	readOp(0xE0, "CPX", ModeImmediate, opCPX)
	readOp(0xE4, "CPX", ModeZeropage, opCPX)
	readOp(0xEC, "CPX", ModeAbsolute, opCPX)
	readOp(0xC0, "CPY", ModeImmediate, opCPY)
	readOp(0xC4, "CPY", ModeZeropage, opCPY)
	readOp(0xCC, "CPY", ModeAbsolute, opCPY)

	// BIT
	readOp(0x24, "BIT", ModeZeropage, opBIT)
	readOp(0x2C, "BIT", ModeAbsolute, opBIT)

	// LDA/LDX/LDY
	readOp(0xA9, "LDA", ModeImmediate, opLDA)
	readOp(0xA5, "LDA", ModeZeropage, opLDA)
	readOp(0xB5, "LDA", ModeZeropageX, opLDA)
	readOp(0xAD, "LDA", ModeAbsolute, opLDA)
	readOp(0xBD, "LDA", ModeAbsoluteX, opLDA)
	readOp(0xB9, "LDA", ModeAbsoluteY, opLDA)
	readOp(0xA1, "LDA", ModeIndexedIndirect, opLDA)
	readOp(0xB1, "LDA", ModeIndirectIndexed, opLDA)

	readOp(0xA2, "LDX", ModeImmediate, opLDX)
	readOp(0xA6, "LDX", ModeZeropage, opLDX)
	readOp(0xB6, "LDX", ModeZeropageY, opLDX)
	readOp(0xAE, "LDX", ModeAbsolute, opLDX)
	readOp(0xBE, "LDX", ModeAbsoluteY, opLDX)

	readOp(0xA0, "LDY", ModeImmediate, opLDY)
	readOp(0xA4, "LDY", ModeZeropage, opLDY)
	readOp(0xB4, "LDY", ModeZeropageX, opLDY)
	readOp(0xAC, "LDY", ModeAbsolute, opLDY)
	readOp(0xBC, "LDY", ModeAbsoluteX, opLDY)

	// LAX (undocumented)
	readOp(0xA7, "LAX", ModeZeropage, opLAX)
	readOp(0xB7, "LAX", ModeZeropageY, opLAX)
	readOp(0xAF, "LAX", ModeAbsolute, opLAX)
	readOp(0xBF, "LAX", ModeAbsoluteY, opLAX)
	readOp(0xA3, "LAX", ModeIndexedIndirect, opLAX)
	readOp(0xB3, "LAX", ModeIndirectIndexed, opLAX)

	// STA/STX/STY
	writeOp(0x85, "STA", ModeZeropage, wrSTA)
	writeOp(0x95, "STA", ModeZeropageX, wrSTA)
	writeOp(0x8D, "STA", ModeAbsolute, wrSTA)
	writeOp(0x9D, "STA", ModeAbsoluteX, wrSTA)
	writeOp(0x99, "STA", ModeAbsoluteY, wrSTA)
	writeOp(0x81, "STA", ModeIndexedIndirect, wrSTA)
	writeOp(0x91, "STA", ModeIndirectIndexed, wrSTA)

	writeOp(0x86, "STX", ModeZeropage, wrSTX)
	writeOp(0x96, "STX", ModeZeropageY, wrSTX)
	writeOp(0x8E, "STX", ModeAbsolute, wrSTX)

	writeOp(0x84, "STY", ModeZeropage, wrSTY)
	writeOp(0x94, "STY", ModeZeropageX, wrSTY)
	writeOp(0x8C, "STY", ModeAbsolute, wrSTY)

	// SAX (undocumented)
	writeOp(0x87, "SAX", ModeZeropage, wrSAX)
	writeOp(0x97, "SAX", ModeZeropageY, wrSAX)
	writeOp(0x8F, "SAX", ModeAbsolute, wrSAX)
	writeOp(0x83, "SAX", ModeIndexedIndirect, wrSAX)

	// ASL/LSR/ROL/ROR
	rmwOp(0x0A, "ASL", ModeAccumulator, rmwASL)
	rmwOp(0x06, "ASL", ModeZeropage, rmwASL)
	rmwOp(0x16, "ASL", ModeZeropageX, rmwASL)
	rmwOp(0x0E, "ASL", ModeAbsolute, rmwASL)
	rmwOp(0x1E, "ASL", ModeAbsoluteX, rmwASL)

	rmwOp(0x4A, "LSR", ModeAccumulator, rmwLSR)
	rmwOp(0x46, "LSR", ModeZeropage, rmwLSR)
	rmwOp(0x56, "LSR", ModeZeropageX, rmwLSR)
	rmwOp(0x4E, "LSR", ModeAbsolute, rmwLSR)
	rmwOp(0x5E, "LSR", ModeAbsoluteX, rmwLSR)

	rmwOp(0x2A, "ROL", ModeAccumulator, rmwROL)
	rmwOp(0x26, "ROL", ModeZeropage, rmwROL)
	rmwOp(0x36, "ROL", ModeZeropageX, rmwROL)
	rmwOp(0x2E, "ROL", ModeAbsolute, rmwROL)
	rmwOp(0x3E, "ROL", ModeAbsoluteX, rmwROL)

	rmwOp(0x6A, "ROR", ModeAccumulator, rmwROR)
	rmwOp(0x66, "ROR", ModeZeropage, rmwROR)
	rmwOp(0x76, "ROR", ModeZeropageX, rmwROR)
	rmwOp(0x6E, "ROR", ModeAbsolute, rmwROR)
	rmwOp(0x7E, "ROR", ModeAbsoluteX, rmwROR)

	// INC/DEC
	rmwOp(0xE6, "INC", ModeZeropage, rmwINC)
	rmwOp(0xF6, "INC", ModeZeropageX, rmwINC)
	rmwOp(0xEE, "INC", ModeAbsolute, rmwINC)
	rmwOp(0xFE, "INC", ModeAbsoluteX, rmwINC)

	rmwOp(0xC6, "DEC", ModeZeropage, rmwDEC)
	rmwOp(0xD6, "DEC", ModeZeropageX, rmwDEC)
	rmwOp(0xCE, "DEC", ModeAbsolute, rmwDEC)
	rmwOp(0xDE, "DEC", ModeAbsoluteX, rmwDEC)

	// DCP (undocumented)
	rmwOp(0xC7, "DCP", ModeZeropage, rmwDCP)
	rmwOp(0xD7, "DCP", ModeZeropageX, rmwDCP)
	rmwOp(0xCF, "DCP", ModeAbsolute, rmwDCP)
	rmwOp(0xDF, "DCP", ModeAbsoluteX, rmwDCP)
	rmwOp(0xDB, "DCP", ModeAbsoluteY, rmwDCP)
	rmwOp(0xC3, "DCP", ModeIndexedIndirect, rmwDCP)
	rmwOp(0xD3, "DCP", ModeIndirectIndexed, rmwDCP)

	// Flag/register/implied
	impliedOp(0x18, "CLC", opCLC)
	impliedOp(0x38, "SEC", opSEC)
	impliedOp(0x58, "CLI", opCLI)
	impliedOp(0x78, "SEI", opSEI)
	impliedOp(0xB8, "CLV", opCLV)
	impliedOp(0xD8, "CLD", opCLD)
	impliedOp(0xF8, "SED", opSED)
	impliedOp(0xEA, "NOP", opNOP)
	impliedOp(0xAA, "TAX", opTAX)
	impliedOp(0xA8, "TAY", opTAY)
	impliedOp(0x8A, "TXA", opTXA)
	impliedOp(0x98, "TYA", opTYA)
	impliedOp(0xBA, "TSX", opTSX)
	impliedOp(0x9A, "TXS", opTXS)
	impliedOp(0xE8, "INX", opINX)
	impliedOp(0xC8, "INY", opINY)
	impliedOp(0xCA, "DEX", opDEX)
	impliedOp(0x88, "DEY", opDEY)

	// Undocumented combination opcodes
	readOp(0x4B, "ALR", ModeImmediate, opALR)
	readOp(0x0B, "ANC", ModeImmediate, opANC)
	readOp(0x2B, "ANC", ModeImmediate, opANC)
	readOp(0x6B, "ARR", ModeImmediate, opARR)
	readOp(0xCB, "AXS", ModeImmediate, opAXS)

	// Branches
	branchOp(0x10, "BPL", brBPL)
	branchOp(0x30, "BMI", brBMI)
	branchOp(0x50, "BVC", brBVC)
	branchOp(0x70, "BVS", brBVS)
	branchOp(0x90, "BCC", brBCC)
	branchOp(0xB0, "BCS", brBCS)
	branchOp(0xD0, "BNE", brBNE)
	branchOp(0xF0, "BEQ", brBEQ)

	// Jumps and subroutine calls
	define(0x4C, "JMP", ModeAbsolute, catJMP)
	define(0x6C, "JMP", ModeIndirect, catJMP)
	define(0x20, "JSR", ModeAbsolute, catJSR)
	define(0x60, "RTS", ModeImplied, catRTS)
	define(0x40, "RTI", ModeImplied, catRTI)
	define(0x00, "BRK", ModeImplied, catBRKOp)

	// Stack
	e := define(0x48, "PHA", ModeImplied, catPush)
	e.write = wrPHA
	e = define(0x08, "PHP", ModeImplied, catPush)
	e.write = wrPHP
	e = define(0x68, "PLA", ModeImplied, catPull)
	e.read = rdPLA
	e = define(0x28, "PLP", ModeImplied, catPull)
	e.read = rdPLP

	// KIL/JAM (undocumented halt opcodes) -- all twelve jam bytes of the
	// NMOS 6502; every one behaves identically (the bus freezes and only
	// a reset recovers it).
	for _, op := range []byte{0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2} {
		define(op, "KIL", ModeImplied, catHalt)
	}
}
