package cpu6510

import "fmt"

// MicroState names the CPU's micro-coded execution state, per the
// bus-synchronised state machine this core implements.
type MicroState int

const (
	StateFetch MicroState = iota
	StateAddress
	StateLoad
	StateStore
	StateToLoad
	StatePushWordHi
	StatePushWordLo
	StatePullWordLo
	StatePullWordHi
	StateInterrupt
	StateInterruptLo
	StateInterruptHi
	StateHalt
)

func (s MicroState) String() string {
	switch s {
	case StateFetch:
		return "Fetch"
	case StateAddress:
		return "Address"
	case StateLoad:
		return "Load"
	case StateStore:
		return "Store"
	case StateToLoad:
		return "ToLoad"
	case StatePushWordHi:
		return "PushWordHi"
	case StatePushWordLo:
		return "PushWordLo"
	case StatePullWordLo:
		return "PullWordLo"
	case StatePullWordHi:
		return "PullWordHi"
	case StateInterrupt:
		return "Interrupt"
	case StateInterruptLo:
		return "InterruptLo"
	case StateInterruptHi:
		return "InterruptHi"
	case StateHalt:
		return "Halt"
	default:
		return "Unknown"
	}
}

// step is one bus tick's worth of micro-code: it consumes whatever byte
// the external bus loop just latched into DataBus (when the prior pins
// asked for a read), performs the instruction's effect due at this point,
// and arms AddrBus/RW/DataBus for the tick that follows.
type step struct {
	state MicroState
	run   func(c *CPU)
}

// bankMode is a row of the KERNAL/BASIC/CHAR/IO banking table, indexed by
// the dataport's low three bits.
type bankMode struct{ kernal, basic, char, io bool }

var bankTable = [8]bankMode{
	0: {false, false, false, false},
	1: {false, false, true, false},
	2: {true, false, true, false},
	3: {true, true, true, false},
	4: {false, false, false, false},
	5: {false, false, false, true},
	6: {true, false, false, true},
	7: {true, true, false, true},
}

// CPU is the 6510 micro-coded execution engine. It never touches the bus
// directly: callers drive it one tick at a time via Cycle, supplying read
// results through DataIn and retrieving write data through DataOut.
type CPU struct {
	// Registers
	PC uint16
	A, X, Y, SP byte
	SR StatusRegister

	// CPU-internal I/O port (addresses 0x0000/0x0001)
	DDR      byte
	DataPort byte

	// Banking flags, recomputed only when the dataport is written
	KernalVisible bool
	BasicVisible  bool
	CharVisible   bool
	IOVisible     bool

	// Bus pins
	AddrBus uint16
	DataBus byte
	RW      bool // true = read, false = write
	AddrEnable bool

	// Micro-state
	state   MicroState
	program []step
	effAddr uint16
	addrLo  byte
	addrHi  byte
	tmp16   uint16

	// Interrupt lines
	irqAsserted bool
	nmiLine     bool
	nmiPrev     bool

	Cycles uint64
}

// NewCPU constructs a CPU in its post-reset state.
func NewCPU() *CPU {
	c := &CPU{}
	c.Reset()
	return c
}

// Reset initialises the CPU to its documented power-up state: PC=0xFCE2,
// A=0xAA, X=Y=0, SP=0xFD, DDR=0x2F, dataport=0x37 (KERNAL, BASIC and I/O
// all enabled), rw=read, addr_enable=true, state=Fetch.
func (c *CPU) Reset() {
	c.PC = 0xFCE2
	c.A = 0xAA
	c.X = 0
	c.Y = 0
	c.SP = 0xFD
	c.SR = StatusFromByte(0)
	c.DDR = 0x2F
	c.writeDataPort(0x37)
	c.RW = true
	c.AddrEnable = true
	c.AddrBus = c.PC
	c.state = StateFetch
	c.program = nil
	c.irqAsserted = false
	c.nmiLine = false
	c.nmiPrev = false
	c.Cycles = 0
}

// State returns the CPU's current micro-state.
func (c *CPU) State() MicroState { return c.state }

// writeDataPort recomputes the banking flags from the low three bits of
// the dataport masked by the DDR. Invoked only on writes to the
// dataport, never per cycle.
func (c *CPU) writeDataPort(value byte) {
	c.DataPort = value
	effective := value & c.DDR
	mode := bankTable[effective&0x07]
	c.KernalVisible = mode.kernal
	c.BasicVisible = mode.basic
	c.CharVisible = mode.char
	c.IOVisible = mode.io
}

// WritePort handles a CPU write to address 0x0000 (DDR) or 0x0001
// (dataport); the bus decoder routes these here instead of to RAM.
func (c *CPU) WritePort(addr uint16, value byte) {
	switch addr {
	case 0:
		c.DDR = value
		c.writeDataPort(c.DataPort)
	case 1:
		c.writeDataPort(value)
	}
}

// ReadPort handles a CPU read of address 0x0000 or 0x0001.
func (c *CPU) ReadPort(addr uint16) byte {
	switch addr {
	case 0:
		return c.DDR
	case 1:
		return c.DataPort
	}
	return 0
}

// TriggerInterrupt asserts the IRQ line; sampled at the next Fetch
// boundary and taken only if the I flag is clear.
func (c *CPU) TriggerInterrupt() {
	c.irqAsserted = true
}

// TriggerNMI asserts the edge-triggered NMI line. NMI is never masked by
// the I flag and is serviced at the next Fetch boundary on the
// low-to-high transition of the line.
func (c *CPU) TriggerNMI(asserted bool) {
	c.nmiLine = asserted
}

// DataIn supplies the byte for a pending read; it is latched into
// DataBus only when RW indicates a read is outstanding.
func (c *CPU) DataIn(b byte) {
	if c.RW {
		c.DataBus = b
	}
}

// DataOut returns the byte the CPU is driving for a pending write.
func (c *CPU) DataOut() byte {
	return c.DataBus
}

// Halted reports whether the CPU has jammed on a KIL opcode.
func (c *CPU) Halted() bool {
	return c.state == StateHalt
}

// Cycle advances the micro-state machine by exactly one bus transaction.
func (c *CPU) Cycle() {
	if c.state == StateHalt {
		panic(fmt.Sprintf("cpu6510: cycle() called while halted at PC=%#04x", c.PC))
	}

	c.Cycles++

	if len(c.program) == 0 {
		c.decode()
		// decode always leaves at least one step queued (a new
		// instruction or an interrupt sequence); reflect that in
		// State() immediately so a caller checking "back at Fetch"
		// right after this tick doesn't mistake the decode/dispatch
		// tick itself for instruction completion.
		if c.state != StateHalt {
			if len(c.program) > 0 {
				c.state = c.program[0].state
			} else {
				c.state = StateFetch
			}
		}
		return
	}

	s := c.program[0]
	c.program = c.program[1:]
	c.state = s.state
	s.run(c)

	if len(c.program) == 0 && c.state != StateHalt {
		c.state = StateFetch
	}
}

// toFetch arms the bus pins for the next opcode fetch and clears the
// program queue, returning the CPU to Fetch.
func (c *CPU) toFetch() {
	c.AddrBus = c.PC
	c.RW = true
	c.program = nil
}

// stackAddr returns the address of the byte SP currently points at,
// within the fixed stack page 0x0100..0x01FF; SP wraps modulo 256.
func (c *CPU) stackAddr() uint16 {
	return 0x0100 | uint16(c.SP)
}

// decode is invoked when the program queue is empty: either it begins a
// new instruction from the opcode just latched into DataBus, or -- if an
// interrupt is pending -- it redirects into the interrupt sequence
// without consuming the fetched byte as an opcode.
func (c *CPU) decode() {
	if c.nmiLine && !c.nmiPrev {
		c.nmiPrev = true
		c.beginInterrupt(0xFFFA, 0xFFFB, false)
		return
	}
	c.nmiPrev = c.nmiLine

	if c.irqAsserted && !c.SR.has(FlagInterrupt) {
		c.beginInterrupt(0xFFFE, 0xFFFF, false)
		return
	}

	opcode := c.DataBus
	entry := opcodeTable[opcode]
	if !entry.valid {
		panic(fmt.Sprintf("cpu6510: unimplemented opcode %#02x at PC=%#04x", opcode, c.PC))
	}
	c.PC++
	c.AddrBus = c.PC
	c.RW = true
	c.buildInstruction(entry)
}
