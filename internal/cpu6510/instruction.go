package cpu6510

// AddrMode tags how an instruction's operand bytes are assembled into an
// effective address (or, for Immediate, into the operand itself).
type AddrMode int

const (
	ModeImplied AddrMode = iota
	ModeAccumulator
	ModeImmediate
	ModeZeropage
	ModeZeropageX
	ModeZeropageY
	ModeAbsolute
	ModeAbsoluteX
	ModeAbsoluteY
	ModeIndirect // JMP (abs) only
	ModeIndexedIndirect // (zp,X)
	ModeIndirectIndexed // (zp),Y
	ModeRelative        // branches
)

// category identifies the bus shape an instruction drives once its
// effective address (or immediate operand) is ready.
type category int

const (
	catRead category = iota
	catWrite
	catRMW
	catImplied // no memory operand; 2-cycle register/flag op
	catBranch
	catJMP
	catJSR
	catRTS
	catRTI
	catBRKOp
	catPush
	catPull
	catHalt
)

// Instruction is the decoded identity of an opcode byte: its mnemonic and
// addressing mode. The decoder does not use this type: opcodeTable below
// holds one opEntry per byte value, with valid=false for undefined ones.
type Instruction struct {
	Opcode   byte
	Mnemonic string
	Mode     AddrMode
}

// readFn computes the result of a read-category instruction from the
// operand byte; writeFn computes the byte to write for a write-category
// instruction; rmwFn computes the new value (and updates flags) from the
// byte read back for a read-modify-write instruction.
type readFn func(c *CPU, operand byte)
type writeFn func(c *CPU) byte
type rmwFn func(c *CPU, old byte) byte

// opEntry is the per-opcode dispatch record built by the table in
// opcodes.go. At most one of the function fields is populated, selected
// by category; JMP, JSR, RTS, RTI, BRK and KIL entries populate none.
type opEntry struct {
	valid    bool
	mnemonic string
	mode     AddrMode
	cat      category
	read     readFn
	write    writeFn
	rmw      rmwFn
	branch   func(c *CPU) bool // branch condition, catBranch only
}

var opcodeTable [256]opEntry

func define(op byte, mnemonic string, mode AddrMode, cat category) *opEntry {
	opcodeTable[op] = opEntry{valid: true, mnemonic: mnemonic, mode: mode, cat: cat}
	return &opcodeTable[op]
}
