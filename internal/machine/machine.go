// Package machine implements the system clock loop: the per-tick
// algorithm that alternates CPU and VIC bus ownership, drives
// interrupts from the CIAs and VIC, and throttles to a target clock
// frequency.
package machine

import (
	"time"

	"github.com/zotley/vice64/internal/bus"
	"github.com/zotley/vice64/internal/chip"
	"github.com/zotley/vice64/internal/cpu6510"
	"github.com/zotley/vice64/internal/vic"
)

// throttleSampleTicks is how often the loop re-measures elapsed wall
// time against the target clock.
const throttleSampleTicks = 10000

// Machine owns every piece of hardware state exclusively: the emulator
// worker never shares this with the host loop except through the
// Frames/Input channels.
type Machine struct {
	CPU  *cpu6510.CPU
	Bus  *bus.Bus
	VIC  *vic.VIC
	SID  *chip.SID
	CIA1 *chip.CIA
	CIA2 *chip.CIA

	Frames chan vic.Frame
	Input  chan InputEvent

	clockPeriod time.Duration
	sleepStep   time.Duration
	ticks       uint64
	lastSample  time.Time

	quit bool
}

// InputEvent is the element type of the host->emulator channel: either a
// quit request or a key event (press/release + key code).
type InputEvent struct {
	Quit    bool
	KeyDown bool
	Key     byte
}

// New wires a Machine from its components. clockAttoseconds is the
// PAL/NTSC clock constant from internal/config (the target frequency in
// millihertz), converted here into the per-cycle period the throttle
// uses: 1e12 / clockAttoseconds nanoseconds, truncated to whole ns.
func New(cpu *cpu6510.CPU, b *bus.Bus, v *vic.VIC, sid *chip.SID, cia1, cia2 *chip.CIA, clockAttoseconds uint64) *Machine {
	return &Machine{
		CPU:         cpu,
		Bus:         b,
		VIC:         v,
		SID:         sid,
		CIA1:        cia1,
		CIA2:        cia2,
		Frames:      make(chan vic.Frame, 1),
		Input:       make(chan InputEvent, 16),
		clockPeriod: time.Duration(1e12 / clockAttoseconds) * time.Nanosecond,
		sleepStep:   100 * time.Nanosecond,
		lastSample:  time.Time{},
	}
}

// Run drives the tick loop until a quit InputEvent arrives. It is meant
// to be launched as the dedicated emulator goroutine, coordinated by the
// caller (cmd/vice64) via errgroup.
func (m *Machine) Run() error {
	m.lastSample = now()
	for !m.quit {
		m.drainInput()
		if m.quit {
			break
		}
		m.tick()
		m.ticks++
		if m.ticks%throttleSampleTicks == 0 {
			m.throttle()
		}
	}
	close(m.Frames)
	return nil
}

func (m *Machine) drainInput() {
	select {
	case ev := <-m.Input:
		if ev.Quit {
			m.quit = true
		}
	default:
	}
}

// Tick runs exactly one system clock cycle, first checking for a
// pending input event; exported for the debug console's single-step
// mode.
func (m *Machine) Tick() {
	m.drainInput()
	if m.quit {
		return
	}
	m.tick()
}

// Quit reports whether a quit InputEvent has stopped the loop.
func (m *Machine) Quit() bool { return m.quit }

// tick implements the seven-step system clock algorithm for a single
// cycle: VIC address resolution, graphics/color read, VIC rising edge,
// CIA timer/interrupt service, AEC-gated CPU bus service, VIC falling
// edge, and frame-ready delivery.
func (m *Machine) tick() {
	addr := m.vicEffectiveAddress()
	graphics := m.Bus.ReadRaw(addr)
	color := m.Bus.ColorNibble(addr)

	m.VIC.RisingEdge(graphics, color)

	m.CIA1.Tick()
	m.CIA2.Tick()
	if m.CIA1.InterruptAsserted() {
		m.CPU.TriggerInterrupt()
	}
	m.CPU.TriggerNMI(m.CIA2.InterruptAsserted())

	if m.VIC.AEC() {
		if m.VIC.IRQAsserted() && !m.VIC.RDY() {
			m.CPU.TriggerInterrupt()
		}
		m.serviceCPUBus()
		m.CPU.Cycle()
	} else {
		m.VIC.FallingEdge()
	}

	if m.VIC.FrameReady() {
		m.Frames <- m.VIC.Snapshot()
	}
}

// vicEffectiveAddress combines the VIC's 14-bit address with CIA2 port
// A's inverted low two bits selecting the 16K video bank.
func (m *Machine) vicEffectiveAddress() uint16 {
	bank := uint16(^m.CIA2.PortAValue()) & 0x03
	return bank<<14 | m.VIC.AddressBits()
}

// serviceCPUBus performs the bus transaction the CPU's pins are
// currently requesting, before letting it advance to the next tick.
func (m *Machine) serviceCPUBus() {
	if !m.CPU.AddrEnable {
		return
	}
	if m.CPU.RW {
		m.CPU.DataIn(m.Bus.Read(m.CPU.AddrBus))
	} else {
		m.Bus.Write(m.CPU.AddrBus, m.CPU.DataOut())
	}
}

// throttle re-samples elapsed wall time against the target clock and
// sleeps off whatever the batch of ticks ran ahead of schedule,
// converging the long-term mean frequency to the target clock.
func (m *Machine) throttle() {
	elapsed := now().Sub(m.lastSample)
	target := m.clockPeriod * throttleSampleTicks
	if elapsed < target {
		time.Sleep(target - elapsed)
	}
	m.lastSample = now()
}

// now is a seam so tests can avoid depending on wall-clock time; the
// production build always uses the real clock.
var now = time.Now
