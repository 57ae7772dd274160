// Command vice64 boots a Commodore 64-class machine: it resolves ROM
// images and clock target from CLI flags, wires the CPU, bus, VIC, SID
// and CIA state together, and runs the emulator and host workers
// concurrently until the host quits.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/zotley/vice64/internal/bus"
	"github.com/zotley/vice64/internal/chip"
	"github.com/zotley/vice64/internal/config"
	"github.com/zotley/vice64/internal/cpu6510"
	"github.com/zotley/vice64/internal/debugconsole"
	"github.com/zotley/vice64/internal/machine"
	"github.com/zotley/vice64/internal/vic"
)

func main() {
	app := &cli.App{
		Name:  "vice64",
		Usage: "a cycle-accurate Commodore 64-class emulator core",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "clock", Usage: "PAL or NTSC", Value: "PAL"},
			&cli.StringFlag{Name: "kernal", Usage: "path to the KERNAL ROM image"},
			&cli.StringFlag{Name: "basic", Usage: "path to the BASIC ROM image"},
			&cli.StringFlag{Name: "char", Usage: "path to the character ROM image"},
			&cli.BoolFlag{Name: "debug", Usage: "enable the single-step debug console at startup"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("clock"), c.String("kernal"), c.String("basic"), c.String("char"), c.Bool("debug"))
	if err != nil {
		return err
	}

	cpu := cpu6510.NewCPU()
	b := bus.New(cpu)
	b.LoadKernal(cfg.Kernal)
	b.LoadBasic(cfg.Basic)
	b.LoadChar(cfg.Char)

	v := vic.New(0xD000, cfg.ClockAttoseconds == config.ClockNTSC)
	sid := chip.NewSID(0xD400)
	cia1 := chip.NewCIA(0xDC00)
	cia2 := chip.NewCIA(0xDD00)
	b.VIC, b.SID, b.CIA1, b.CIA2 = v, sid, cia1, cia2

	m := machine.New(cpu, b, v, sid, cia1, cia2, cfg.ClockAttoseconds)
	cpu.Reset()

	if cfg.Debug {
		console := debugconsole.New(m)
		return console.Run()
	}

	group, _ := errgroup.WithContext(context.Background())
	group.Go(m.Run)
	group.Go(func() error { return runHost(m) })
	return group.Wait()
}

// runHost is the host worker: it owns frame consumption and would, in a
// full build, also own a window and an event pump. Here it drains
// frames so the emulator's blocking send never stalls, and exits when
// the emulator loop closes the channel.
func runHost(m *machine.Machine) error {
	for range m.Frames {
		// A real host would blit this frame to a window; this module's
		// scope ends at producing it.
	}
	return nil
}
