// Package config resolves ROM/RAM image paths, validates their lengths,
// and holds the PAL/NTSC clock constants.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	KernalSize = 8192
	BasicSize  = 8192
	CharSize   = 4096

	// Clock targets as the CPU clock frequency in millihertz (PAL
	// 985248.444 Hz, NTSC 1022727.714 Hz); the per-cycle period in
	// nanoseconds is 1e12 divided by the constant.
	ClockPAL  uint64 = 985248444
	ClockNTSC uint64 = 1022727714
)

// Config holds the fully-resolved startup configuration.
type Config struct {
	ClockAttoseconds uint64
	Kernal           []byte
	Basic            []byte
	Char             []byte
	Debug            bool
}

// romDir returns the default ROM directory under the user's home.
func romDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving home directory: %w", err)
	}
	return filepath.Join(home, ".vice", "c64"), nil
}

// defaultPath returns <home>/.vice/c64/<name> unless override is
// non-empty, in which case override is used verbatim.
func defaultPath(override, name string) (string, error) {
	if override != "" {
		return override, nil
	}
	dir, err := romDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// loadROM reads path and validates its length is exactly want bytes.
func loadROM(path string, want int, label string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s ROM %q: %w", label, path, err)
	}
	if len(data) != want {
		return nil, fmt.Errorf("config: %s ROM %q is %d bytes, want exactly %d", label, path, len(data), want)
	}
	return data, nil
}

// ClockFor maps a --clock flag value to its clock constant. An empty
// value selects PAL; anything other than PAL or NTSC fails.
func ClockFor(value string) (uint64, error) {
	switch value {
	case "", "PAL":
		return ClockPAL, nil
	case "NTSC":
		return ClockNTSC, nil
	default:
		return 0, fmt.Errorf("config: invalid --clock value %q, want PAL or NTSC", value)
	}
}

// Load resolves ROM paths (falling back to the default directory),
// reads and validates each image, and assembles a Config. Any failure
// here is a fatal startup configuration error.
func Load(clock, kernalPath, basicPath, charPath string, debug bool) (*Config, error) {
	clockValue, err := ClockFor(clock)
	if err != nil {
		return nil, err
	}

	kp, err := defaultPath(kernalPath, "kernal")
	if err != nil {
		return nil, err
	}
	bp, err := defaultPath(basicPath, "basic")
	if err != nil {
		return nil, err
	}
	cp, err := defaultPath(charPath, "chargen")
	if err != nil {
		return nil, err
	}

	kernal, err := loadROM(kp, KernalSize, "KERNAL")
	if err != nil {
		return nil, err
	}
	basic, err := loadROM(bp, BasicSize, "BASIC")
	if err != nil {
		return nil, err
	}
	char, err := loadROM(cp, CharSize, "character")
	if err != nil {
		return nil, err
	}

	return &Config{
		ClockAttoseconds: clockValue,
		Kernal:           kernal,
		Basic:            basic,
		Char:             char,
		Debug:            debug,
	}, nil
}

// LoadRAMImage reads an initial memory image (up to 65536 bytes) for
// test/tool bring-up; production startup leaves RAM zeroed, matching
// real C64 power-up behaviour.
func LoadRAMImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading RAM image %q: %w", path, err)
	}
	if len(data) > 65536 {
		return nil, fmt.Errorf("config: RAM image %q is %d bytes, exceeds 65536", path, len(data))
	}
	return data, nil
}
