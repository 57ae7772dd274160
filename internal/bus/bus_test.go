package bus

import (
	"testing"

	"github.com/zotley/vice64/internal/cpu6510"
)

type fakeReg struct {
	name string
	last uint16
	val  byte
}

func (f *fakeReg) ReadRegister(addr uint16) byte {
	f.last = addr
	return f.val
}

func (f *fakeReg) WriteRegister(addr uint16, value byte) {
	f.last = addr
	f.val = value
}

func newTestBus() (*Bus, *cpu6510.CPU) {
	c := cpu6510.NewCPU()
	b := New(c)
	b.VIC = &fakeReg{name: "vic"}
	b.SID = &fakeReg{name: "sid"}
	b.CIA1 = &fakeReg{name: "cia1"}
	b.CIA2 = &fakeReg{name: "cia2"}
	return b, c
}

func TestWriteThenReadRAMRoundTrip(t *testing.T) {
	b, c := newTestBus()
	c.WritePort(0, 0x2F)
	c.WritePort(1, 0x30) // mode 0: everything banked out, plain RAM visible
	b.Write(0x1000, 0x55)
	if got := b.Read(0x1000); got != 0x55 {
		t.Fatalf("Read(0x1000) = %#02x, want 0x55", got)
	}
}

func TestKernalVisibilityGating(t *testing.T) {
	b, c := newTestBus()
	b.Kernal[0] = 0xAB
	b.RAM[0xE000] = 0xCD

	c.WritePort(0, 0x2F)
	c.WritePort(1, 0x37) // mode 7: KERNAL visible
	if got := b.Read(0xE000); got != 0xAB {
		t.Fatalf("with KERNAL visible, Read(0xE000) = %#02x, want 0xAB", got)
	}

	c.WritePort(1, 0x30) // mode 0: KERNAL hidden
	if got := b.Read(0xE000); got != 0xCD {
		t.Fatalf("with KERNAL hidden, Read(0xE000) = %#02x, want 0xCD (RAM)", got)
	}
}

func TestIOWriteAlwaysAlsoUpdatesRAM(t *testing.T) {
	b, c := newTestBus()
	c.WritePort(0, 0x2F)
	c.WritePort(1, 0x37) // I/O visible
	b.Write(0xD020, 0x07)
	if b.RAM[0xD020] != 0x07 {
		t.Fatalf("write to I/O address did not also land in RAM: got %#02x", b.RAM[0xD020])
	}
	vic := b.VIC.(*fakeReg)
	if vic.last != 0xD020 || vic.val != 0x07 {
		t.Fatalf("VIC did not receive the write: last=%#04x val=%#02x", vic.last, vic.val)
	}
}

func TestColorRAMOverlaysSIDWindow(t *testing.T) {
	b, c := newTestBus()
	c.WritePort(0, 0x2F)
	c.WritePort(1, 0x37)
	b.Write(0xD800, 0x0A)
	if got := b.Read(0xD800); got != 0x0A {
		t.Fatalf("color RAM read = %#02x, want 0x0A", got)
	}
	sid := b.SID.(*fakeReg)
	if sid.last == 0xD800 {
		t.Fatalf("SID should never see a color-RAM address")
	}
}

func TestCharROMOnlyVisibleWhenIOHidden(t *testing.T) {
	b, c := newTestBus()
	b.Char[0] = 0x3C
	c.WritePort(0, 0x2F)
	c.WritePort(1, 0x31) // mode 1: CHAR visible, IO not
	if got := b.Read(0xD000); got != 0x3C {
		t.Fatalf("CHAR read = %#02x, want 0x3C", got)
	}
	c.WritePort(1, 0x35) // mode 5: IO visible, CHAR hidden behind it
	vic := b.VIC.(*fakeReg)
	b.Read(0xD000)
	if vic.last != 0xD000 {
		t.Fatalf("expected VIC to service 0xD000 once IO is visible")
	}
}

func TestPortAddressesNeverTouchRAM(t *testing.T) {
	b, c := newTestBus()
	_ = c
	b.RAM[0] = 0xFF
	b.RAM[1] = 0xFF
	b.Write(0, 0x00)
	b.Write(1, 0x00)
	if b.RAM[0] != 0xFF || b.RAM[1] != 0xFF {
		t.Fatalf("writes to port addresses leaked into RAM")
	}
}

func TestUnimplementedIOAddressReadIsFatal(t *testing.T) {
	b, c := newTestBus()
	c.WritePort(0, 0x2F)
	c.WritePort(1, 0x37) // I/O visible
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Read(0xDE00) to panic on an unmapped I/O gap address")
		}
	}()
	b.Read(0xDE00)
}

func TestUnimplementedIOAddressWriteIsFatal(t *testing.T) {
	b, c := newTestBus()
	c.WritePort(0, 0x2F)
	c.WritePort(1, 0x37) // I/O visible
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Write(0xDF00) to panic on an unmapped I/O gap address")
		}
	}()
	b.Write(0xDF00, 0x00)
}

func TestReadRawRoutesThroughBankedDecoder(t *testing.T) {
	b, c := newTestBus()
	b.Char[0] = 0x3C
	b.RAM[0xD000] = 0x99
	c.WritePort(0, 0x2F)
	c.WritePort(1, 0x31) // mode 1: CHAR visible, IO not -- same as a CPU read would see
	if got := b.ReadRaw(0xD000); got != 0x3C {
		t.Fatalf("ReadRaw(0xD000) with CHAR visible = %#02x, want 0x3C", got)
	}

	c.WritePort(1, 0x30) // mode 0: everything banked out
	if got := b.ReadRaw(0xD000); got != 0x99 {
		t.Fatalf("ReadRaw(0xD000) with CHAR hidden = %#02x, want 0x99 (RAM)", got)
	}
}
