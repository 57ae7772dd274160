// Package debugconsole implements the single-step debug console: after
// each CPU cycle it prints CPU/VIC state and reads one command line.
// The command parser is separated from terminal I/O so it can be
// exercised in tests without a real tty.
package debugconsole

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/zotley/vice64/internal/machine"
)

// Command is the parsed result of one console input line.
type Command int

const (
	CommandStep Command = iota
	CommandRun
	CommandHelp
	CommandInvalid
)

// ParseCommand classifies one raw input line: r/run switches to
// free-running, h/help prints the help text, an empty line steps once,
// anything else is invalid.
func ParseCommand(line string) Command {
	switch line {
	case "":
		return CommandStep
	case "r", "run":
		return CommandRun
	case "h", "help":
		return CommandHelp
	default:
		return CommandInvalid
	}
}

const helpText = `commands: r/run (free-run), h/help (this text), empty line (single step)`

// Console drives a Machine one cycle at a time, printing state and
// reading commands from in, writing to out.
type Console struct {
	m   *machine.Machine
	in  io.Reader
	out io.Writer
}

// New constructs a Console reading lines from os.Stdin. If stdin is a
// real terminal, raw mode is enabled for the duration of Run so input
// isn't line-buffered twice over; Restore always runs on return.
func New(m *machine.Machine) *Console {
	return &Console{m: m, in: os.Stdin, out: os.Stdout}
}

// NewWithIO builds a Console over arbitrary reader/writer, used by
// tests to drive the command loop without a real tty.
func NewWithIO(m *machine.Machine, in io.Reader, out io.Writer) *Console {
	return &Console{m: m, in: in, out: out}
}

// crlfReader rewrites carriage returns to newlines as bytes pass
// through. A raw-mode terminal sends '\r' for Enter, not '\n', so
// without this translation bufio.Scanner's line splitter never sees a
// line terminator and Scan blocks forever.
type crlfReader struct{ r io.Reader }

func (t *crlfReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	for i := 0; i < n; i++ {
		if p[i] == '\r' {
			p[i] = '\n'
		}
	}
	return n, err
}

// Run single-steps the machine, printing state and prompting for a
// command after every cycle, until a quit event or EOF on stdin.
func (c *Console) Run() error {
	fd := int(os.Stdin.Fd())
	running := term.IsTerminal(fd)
	var restore *term.State
	in := c.in
	if running {
		state, err := term.MakeRaw(fd)
		if err == nil {
			restore = state
		}
		in = &crlfReader{r: c.in}
	}
	defer func() {
		if restore != nil {
			_ = term.Restore(fd, restore)
		}
	}()

	scanner := bufio.NewScanner(in)

	freeRunning := false
	for !c.m.Quit() {
		c.m.Tick()
		if freeRunning {
			continue
		}
		c.printState()
		if !scanner.Scan() {
			return nil
		}
		switch ParseCommand(scanner.Text()) {
		case CommandRun:
			freeRunning = true
		case CommandHelp:
			fmt.Fprintln(c.out, helpText)
		case CommandStep:
			// fall through to next tick
		case CommandInvalid:
			fmt.Fprintln(c.out, "Invalid command")
		}
	}
	return nil
}

func (c *Console) printState() {
	cpu := c.m.CPU
	fmt.Fprintf(c.out, "PC=%04X A=%02X X=%02X Y=%02X SP=%02X SR=%02X state=%s raster=%d\n",
		cpu.PC, cpu.A, cpu.X, cpu.Y, cpu.SP, cpu.SR.ToByte(), cpu.State(), c.m.VIC.Raster())
}
