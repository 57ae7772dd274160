package cpu6510

// buildInstruction arms the program queue for the instruction just
// decoded, dispatching on its category. Every builder below was derived
// directly against the reference 6502 cycle-count table and its
// boundary cases (IndirectIndexed page-cross penalty, RMW Absolute,X = 7,
// branch taken/page-cross counts) so that len(program)+1 equals the
// documented cycle count for every opcode/mode pair.
func (c *CPU) buildInstruction(e opEntry) {
	switch e.cat {
	case catRead:
		c.buildRead(e)
	case catWrite:
		c.buildWrite(e)
	case catRMW:
		c.buildRMW(e)
	case catImplied:
		c.buildImplied(e)
	case catBranch:
		c.buildBranch(e)
	case catJMP:
		c.buildJMP(e)
	case catJSR:
		c.buildJSR()
	case catRTS:
		c.buildRTS()
	case catRTI:
		c.buildRTI()
	case catBRKOp:
		c.buildBRK()
	case catPush:
		c.buildPush(e)
	case catPull:
		c.buildPull(e)
	case catHalt:
		c.state = StateHalt
		c.program = nil
		c.AddrEnable = false
	}
}

// --- Read category (LDA/AND/ORA/EOR/ADC/SBC/CMP/CPX/CPY/BIT/LDX/LDY/LAX) ---

func (c *CPU) buildRead(e opEntry) {
	switch e.mode {
	case ModeImmediate:
		c.program = []step{
			{StateAddress, func(c *CPU) {
				v := c.DataBus
				c.PC++
				e.read(c, v)
				c.toFetch()
			}},
		}
	case ModeZeropage:
		c.program = []step{
			c.stepReadZP(),
			c.stepLoad(e.read),
		}
	case ModeZeropageX:
		c.program = append(c.stepsZPIndexed(&c.X), c.stepLoad(e.read))
	case ModeZeropageY:
		c.program = append(c.stepsZPIndexed(&c.Y), c.stepLoad(e.read))
	case ModeAbsolute:
		c.program = append(c.stepsAbsolute(), c.stepLoad(e.read))
	case ModeAbsoluteX:
		c.program = append(c.stepsAbsoluteIndexedRead(&c.X), c.stepLoad(e.read))
	case ModeAbsoluteY:
		c.program = append(c.stepsAbsoluteIndexedRead(&c.Y), c.stepLoad(e.read))
	case ModeIndexedIndirect:
		c.program = append(c.stepsIndexedIndirect(), c.stepLoad(e.read))
	case ModeIndirectIndexed:
		c.program = append(c.stepsIndirectIndexedRead(), c.stepLoad(e.read))
	}
}

func (c *CPU) stepLoad(fn readFn) step {
	return step{StateLoad, func(c *CPU) {
		v := c.DataBus
		fn(c, v)
		c.toFetch()
	}}
}

// --- Write category (STA/STX/STY/SAX) ---

func (c *CPU) buildWrite(e opEntry) {
	finalize := func(c *CPU) {
		v := e.write(c)
		c.DataBus = v
		c.AddrBus = c.effAddr
		c.RW = false
	}
	after := step{StateToLoad, func(c *CPU) { c.toFetch() }}

	switch e.mode {
	case ModeZeropage:
		c.program = []step{
			{StateAddress, func(c *CPU) {
				c.effAddr = uint16(c.DataBus)
				c.PC++
				finalize(c)
			}},
			after,
		}
	case ModeZeropageX:
		c.program = append(c.stepsZPIndexedArm(&c.X, finalize), after)
	case ModeZeropageY:
		c.program = append(c.stepsZPIndexedArm(&c.Y, finalize), after)
	case ModeAbsolute:
		c.program = []step{
			{StateAddress, func(c *CPU) {
				c.addrLo = c.DataBus
				c.PC++
				c.AddrBus = c.PC
				c.RW = true
			}},
			{StateAddress, func(c *CPU) {
				c.addrHi = c.DataBus
				c.PC++
				c.effAddr = uint16(c.addrLo) | uint16(c.addrHi)<<8
				finalize(c)
			}},
			after,
		}
	case ModeAbsoluteX:
		c.program = append(c.stepsAbsoluteIndexedArm(&c.X, finalize), after)
	case ModeAbsoluteY:
		c.program = append(c.stepsAbsoluteIndexedArm(&c.Y, finalize), after)
	case ModeIndexedIndirect:
		c.program = append(c.stepsIndexedIndirectArm(finalize), after)
	case ModeIndirectIndexed:
		c.program = append(c.stepsIndirectIndexedArm(finalize), after)
	}
}

// --- Read-modify-write category (ASL/LSR/ROL/ROR/INC/DEC/DCP) ---

func (c *CPU) buildRMW(e opEntry) {
	if e.mode == ModeAccumulator {
		c.program = []step{
			{StateAddress, func(c *CPU) {
				c.A = e.rmw(c, c.A)
				c.toFetch()
			}},
		}
		return
	}

	rmwFinish := func(c *CPU) {
		old := c.DataBus
		newVal := e.rmw(c, old)
		c.tmp16 = uint16(newVal)
		// Dummy write-back of the unmodified value, matching real 6502
		// RMW timing: the bus is driven with the old value for one tick
		// before the real result is written.
		c.DataBus = old
		c.AddrBus = c.effAddr
		c.RW = false
	}
	realWrite := step{StateStore, func(c *CPU) {
		c.DataBus = byte(c.tmp16)
		c.AddrBus = c.effAddr
		c.RW = false
	}}
	after := step{StateToLoad, func(c *CPU) { c.toFetch() }}

	armRead := func(c *CPU) {
		c.AddrBus = c.effAddr
		c.RW = true
	}

	var addr []step
	switch e.mode {
	case ModeZeropage:
		addr = []step{c.stepReadZP()}
	case ModeZeropageX:
		addr = c.stepsZPIndexed(&c.X)
	case ModeAbsolute:
		addr = c.stepsAbsolute()
	case ModeAbsoluteX:
		addr = c.stepsAbsoluteIndexedRMWAddr()
	case ModeAbsoluteY:
		addr = c.stepsAbsoluteIndexedArm(&c.Y, armRead)
	case ModeIndexedIndirect:
		addr = c.stepsIndexedIndirect()
	case ModeIndirectIndexed:
		addr = c.stepsIndirectIndexedArm(armRead)
	}
	program := append(addr, step{StateLoad, rmwFinish})
	program = append(program, realWrite, after)
	c.program = program
}

// --- Addressing helpers shared by read/write/rmw builders ---

func (c *CPU) stepReadZP() step {
	return step{StateAddress, func(c *CPU) {
		c.effAddr = uint16(c.DataBus)
		c.PC++
		c.AddrBus = c.effAddr
		c.RW = true
	}}
}

func (c *CPU) stepsZPIndexed(index *byte) []step {
	return []step{
		{StateAddress, func(c *CPU) {
			c.addrLo = c.DataBus
			c.PC++
			c.AddrBus = uint16(c.addrLo) // dummy read before index add
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.effAddr = uint16(c.addrLo+*index) & 0xFF
			c.AddrBus = c.effAddr
			c.RW = true
		}},
	}
}

func (c *CPU) stepsZPIndexedArm(index *byte, finalize func(c *CPU)) []step {
	return []step{
		{StateAddress, func(c *CPU) {
			c.addrLo = c.DataBus
			c.PC++
			c.AddrBus = uint16(c.addrLo)
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.effAddr = uint16(c.addrLo+*index) & 0xFF
			finalize(c)
		}},
	}
}

func (c *CPU) stepsAbsolute() []step {
	return []step{
		{StateAddress, func(c *CPU) {
			c.addrLo = c.DataBus
			c.PC++
			c.AddrBus = c.PC
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.addrHi = c.DataBus
			c.PC++
			c.effAddr = uint16(c.addrLo) | uint16(c.addrHi)<<8
			c.AddrBus = c.effAddr
			c.RW = true
		}},
	}
}

// stepsAbsoluteIndexedRead computes Absolute,X / Absolute,Y with a flat
// cycle count (no page-cross penalty), matching the reference ALU-group
// timing for these read-category addressing modes.
func (c *CPU) stepsAbsoluteIndexedRead(index *byte) []step {
	return []step{
		{StateAddress, func(c *CPU) {
			c.addrLo = c.DataBus
			c.PC++
			c.AddrBus = c.PC
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.addrHi = c.DataBus
			c.PC++
			base := uint16(c.addrLo) | uint16(c.addrHi)<<8
			c.effAddr = base + uint16(*index)
			c.AddrBus = c.effAddr
			c.RW = true
		}},
	}
}

// stepsAbsoluteIndexedArm drives Absolute,X / Absolute,Y stores (and the
// address phase of DCP Absolute,Y), which always take the extra cycle
// regardless of page crossing, matching the reference STA cycle counts.
func (c *CPU) stepsAbsoluteIndexedArm(index *byte, finalize func(c *CPU)) []step {
	return []step{
		{StateAddress, func(c *CPU) {
			c.addrLo = c.DataBus
			c.PC++
			c.AddrBus = c.PC
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.addrHi = c.DataBus
			c.PC++
			base := uint16(c.addrLo) | uint16(c.addrHi)<<8
			lo := (base & 0xFF00) | uint16(byte(base)+*index)
			c.tmp16 = base
			c.AddrBus = lo
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.effAddr = c.tmp16 + uint16(*index)
			finalize(c)
		}},
	}
}

func (c *CPU) stepsAbsoluteIndexedRMWAddr() []step {
	return []step{
		{StateAddress, func(c *CPU) {
			c.addrLo = c.DataBus
			c.PC++
			c.AddrBus = c.PC
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.addrHi = c.DataBus
			c.PC++
			base := uint16(c.addrLo) | uint16(c.addrHi)<<8
			c.tmp16 = base
			c.AddrBus = (base & 0xFF00) | uint16(byte(base)+c.X)
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.effAddr = c.tmp16 + uint16(c.X)
			c.AddrBus = c.effAddr
			c.RW = true
		}},
	}
}

func (c *CPU) stepsIndexedIndirect() []step {
	return []step{
		{StateAddress, func(c *CPU) {
			c.addrLo = c.DataBus
			c.PC++
			c.AddrBus = uint16(c.addrLo)
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			ptr := uint16(c.addrLo+c.X) & 0xFF
			c.tmp16 = ptr
			c.AddrBus = ptr
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			lo := c.DataBus
			c.addrLo = lo
			c.AddrBus = (c.tmp16 + 1) & 0xFF
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			hi := c.DataBus
			c.effAddr = uint16(c.addrLo) | uint16(hi)<<8
			c.AddrBus = c.effAddr
			c.RW = true
		}},
	}
}

func (c *CPU) stepsIndexedIndirectArm(finalize func(c *CPU)) []step {
	s := c.stepsIndexedIndirect()
	last := len(s) - 1
	s[last].run = func(c *CPU) {
		hi := c.DataBus
		c.effAddr = uint16(c.addrLo) | uint16(hi)<<8
		finalize(c)
	}
	return s
}

// stepsIndirectIndexedBase computes the pointer fetch shared by both the
// read and write/RMW forms of (zp),Y: it does not yet resolve the final
// effective address, since that depends on whether lo+Y crosses a page.
func (c *CPU) stepsIndirectIndexedBase(finish func(c *CPU)) []step {
	return []step{
		{StateAddress, func(c *CPU) {
			c.tmp16 = uint16(c.DataBus)
			c.PC++
			c.AddrBus = c.tmp16
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.addrLo = c.DataBus
			c.AddrBus = (c.tmp16 + 1) & 0xFF
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			hi := c.DataBus
			base := uint16(c.addrLo) | uint16(hi)<<8
			c.tmp16 = base
			crossed := uint16(c.addrLo)+uint16(c.Y) > 0xFF
			if crossed {
				// Dummy read at the uncorrected (wrapped-low-byte) address;
				// the real access is spliced in as an extra cycle ahead of
				// whatever is already queued.
				c.AddrBus = (base & 0xFF00) | uint16(byte(base)+c.Y)
				c.RW = true
				c.program = append([]step{{StateAddress, finish}}, c.program...)
			} else {
				c.effAddr = base + uint16(c.Y)
				finish(c)
			}
		}},
	}
}

func (c *CPU) stepsIndirectIndexedRead() []step {
	return c.stepsIndirectIndexedBase(func(c *CPU) {
		c.effAddr = c.tmp16 + uint16(c.Y)
		c.AddrBus = c.effAddr
		c.RW = true
	})
}

// stepsIndirectIndexedArm drives STA (zp),Y (and the address phase of
// DCP (zp),Y), which unconditionally takes the dummy-then-correct cycle
// pair regardless of page crossing: 6 cycles always for STA, matching
// the reference STA timing.
func (c *CPU) stepsIndirectIndexedArm(finalize func(c *CPU)) []step {
	return []step{
		{StateAddress, func(c *CPU) {
			c.tmp16 = uint16(c.DataBus)
			c.PC++
			c.AddrBus = c.tmp16
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.addrLo = c.DataBus
			c.AddrBus = (c.tmp16 + 1) & 0xFF
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			hi := c.DataBus
			base := uint16(c.addrLo) | uint16(hi)<<8
			c.tmp16 = base
			c.AddrBus = (base & 0xFF00) | uint16(byte(base)+c.Y)
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.effAddr = c.tmp16 + uint16(c.Y)
			finalize(c)
		}},
	}
}

func (c *CPU) buildBranch(e opEntry) {
	c.program = []step{
		{StateAddress, func(c *CPU) {
			offset := int8(c.DataBus)
			c.PC++
			if !e.branch(c) {
				c.toFetch()
				return
			}
			oldPC := c.PC
			target := uint16(int32(c.PC) + int32(offset))
			c.tmp16 = target
			c.AddrBus = c.PC
			c.RW = true
			if (oldPC & 0xFF00) == (target & 0xFF00) {
				c.program = []step{{StateAddress, func(c *CPU) {
					c.PC = c.tmp16
					c.toFetch()
				}}}
			} else {
				c.program = []step{
					{StateAddress, func(c *CPU) {
						c.AddrBus = (oldPC & 0xFF00) | (c.tmp16 & 0xFF)
						c.RW = true
					}},
					{StateAddress, func(c *CPU) {
						c.PC = c.tmp16
						c.toFetch()
					}},
				}
			}
		}},
	}
}

func (c *CPU) buildImplied(e opEntry) {
	c.program = []step{
		{StateAddress, func(c *CPU) {
			e.read(c, 0)
			c.toFetch()
		}},
	}
}

func (c *CPU) buildJMP(e opEntry) {
	if e.mode == ModeAbsolute {
		c.program = []step{
			{StateAddress, func(c *CPU) {
				c.addrLo = c.DataBus
				c.PC++
				c.AddrBus = c.PC
				c.RW = true
			}},
			{StateAddress, func(c *CPU) {
				hi := c.DataBus
				c.PC = uint16(c.addrLo) | uint16(hi)<<8
				c.toFetch()
			}},
		}
		return
	}
	// ModeIndirect: implements the 6502 page-boundary bug -- if the
	// pointer low byte is 0xFF, the high byte is fetched from the same
	// page, not the next page.
	c.program = []step{
		{StateAddress, func(c *CPU) {
			c.addrLo = c.DataBus
			c.PC++
			c.AddrBus = c.PC
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			hi := c.DataBus
			c.PC++
			ptr := uint16(c.addrLo) | uint16(hi)<<8
			c.tmp16 = ptr
			c.AddrBus = ptr
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			lo := c.DataBus
			c.addrLo = lo
			buggyHi := (c.tmp16 & 0xFF00) | ((c.tmp16 + 1) & 0xFF)
			c.AddrBus = buggyHi
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			hi := c.DataBus
			c.PC = uint16(c.addrLo) | uint16(hi)<<8
			c.toFetch()
		}},
	}
}

func (c *CPU) buildJSR() {
	c.program = []step{
		{StateAddress, func(c *CPU) {
			c.addrLo = c.DataBus
			c.PC++
			c.AddrBus = c.stackAddr()
			c.RW = true
		}},
		{StatePushWordHi, func(c *CPU) {
			// PC currently addresses the last byte of the JSR
			// instruction (the high operand byte, not yet read).
			c.tmp16 = c.PC
			c.DataBus = byte(c.tmp16 >> 8)
			c.AddrBus = c.stackAddr()
			c.RW = false
		}},
		{StatePushWordLo, func(c *CPU) {
			c.SP--
			c.DataBus = byte(c.tmp16)
			c.AddrBus = c.stackAddr()
			c.RW = false
		}},
		{StateAddress, func(c *CPU) {
			c.SP--
			c.AddrBus = c.PC
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			hi := c.DataBus
			c.PC = uint16(c.addrLo) | uint16(hi)<<8
			c.toFetch()
		}},
	}
}

func (c *CPU) buildRTS() {
	c.program = []step{
		{StateAddress, func(c *CPU) {
			c.AddrBus = c.stackAddr()
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.SP++
			c.AddrBus = c.stackAddr()
			c.RW = true
		}},
		{StatePullWordLo, func(c *CPU) {
			c.addrLo = c.DataBus
			c.SP++
			c.AddrBus = c.stackAddr()
			c.RW = true
		}},
		{StatePullWordHi, func(c *CPU) {
			hi := c.DataBus
			c.tmp16 = uint16(c.addrLo) | uint16(hi)<<8
			c.AddrBus = c.tmp16
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.PC = c.tmp16 + 1
			c.toFetch()
		}},
	}
}

func (c *CPU) buildRTI() {
	c.program = []step{
		{StateAddress, func(c *CPU) {
			c.AddrBus = c.stackAddr()
			c.RW = true
		}},
		{StateAddress, func(c *CPU) {
			c.SP++
			c.AddrBus = c.stackAddr()
			c.RW = true
		}},
		{StatePullWordLo, func(c *CPU) {
			c.SR = StatusFromByte(c.DataBus)
			c.SP++
			c.AddrBus = c.stackAddr()
			c.RW = true
		}},
		{StatePullWordLo, func(c *CPU) {
			c.addrLo = c.DataBus
			c.SP++
			c.AddrBus = c.stackAddr()
			c.RW = true
		}},
		{StatePullWordHi, func(c *CPU) {
			hi := c.DataBus
			c.PC = uint16(c.addrLo) | uint16(hi)<<8
			c.toFetch()
		}},
	}
}

func (c *CPU) buildBRK() {
	c.beginInterrupt(0xFFFE, 0xFFFF, true)
}

// beginInterrupt arms the shared push-PCH/push-PCL/push-SR/fetch-vector
// sequence used by BRK, IRQ, and NMI. isBRK controls whether the Break
// flag is forced set in the pushed status byte and whether PC is
// advanced an extra byte past BRK's signature byte.
func (c *CPU) beginInterrupt(vecLo, vecHi uint16, isBRK bool) {
	c.irqAsserted = false
	c.program = []step{
		{StateInterrupt, func(c *CPU) {
			if isBRK {
				c.PC++ // skip BRK's padding/signature byte
			}
			c.AddrBus = c.stackAddr()
			c.RW = false
			c.DataBus = byte(c.PC >> 8)
		}},
		{StateInterrupt, func(c *CPU) {
			c.SP--
			c.AddrBus = c.stackAddr()
			c.RW = false
			c.DataBus = byte(c.PC)
		}},
		{StateInterrupt, func(c *CPU) {
			c.SP--
			c.AddrBus = c.stackAddr()
			c.RW = false
			sr := c.SR.ToByte()
			if isBRK {
				sr |= FlagBreak
			} else {
				sr &^= FlagBreak
			}
			c.DataBus = sr
		}},
		{StateInterruptLo, func(c *CPU) {
			c.SP--
			c.AddrBus = vecLo
			c.RW = true
		}},
		{StateInterruptLo, func(c *CPU) {
			c.addrLo = c.DataBus
			c.AddrBus = vecHi
			c.RW = true
		}},
		{StateInterruptHi, func(c *CPU) {
			hi := c.DataBus
			c.PC = uint16(c.addrLo) | uint16(hi)<<8
			c.SR.set(FlagInterrupt, true)
			c.toFetch()
		}},
	}
}

func (c *CPU) buildPush(e opEntry) {
	c.program = []step{
		{StateAddress, func(c *CPU) {
			c.AddrBus = c.stackAddr()
			c.RW = false
			c.DataBus = e.write(c)
		}},
		{StatePushWordLo, func(c *CPU) {
			c.SP--
			c.toFetch()
		}},
	}
}

func (c *CPU) buildPull(e opEntry) {
	c.program = []step{
		{StateAddress, func(c *CPU) {
			c.AddrBus = c.stackAddr()
			c.RW = true
		}},
		{StatePullWordLo, func(c *CPU) {
			c.SP++
			c.AddrBus = c.stackAddr()
			c.RW = true
		}},
		{StatePullWordHi, func(c *CPU) {
			e.read(c, c.DataBus)
			c.toFetch()
		}},
	}
}
