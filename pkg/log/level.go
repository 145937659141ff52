package log

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Level is the severity of a log entry.
type Level uint8

const (
	// LevelDebug is for verbose diagnostics.
	LevelDebug Level = 0
	// LevelInfo is for normal operational messages.
	LevelInfo Level = 1
	// LevelWarn indicates something unexpected that was handled.
	LevelWarn Level = 2
	// LevelError indicates a failed operation.
	LevelError Level = 3
	// LevelCritical indicates the subsystem cannot continue.
	LevelCritical Level = 4
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "LEVEL(" + strconv.Itoa(int(l)) + ")"
	}
}

// ParseLevel parses a level name (case-insensitive) or its numeric value.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "critical", "crit":
		return LevelCritical, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return 0, errors.Newf("invalid level: %q", s)
	}
	return Level(n), nil
}

// Module identifies the subsystem that produced an entry.
type Module uint16

// Well-known module ids. Any other value is allowed.
const (
	ModuleDefault    Module = 0
	ModuleOS         Module = 1
	ModuleNewtmgr    Module = 2
	ModuleNimbleCtlr Module = 3
	ModuleNimbleHost Module = 4
	ModuleNFFS       Module = 5
	ModuleReboot     Module = 6
	ModuleIoTivity   Module = 7
	ModuleTest       Module = 8
)

var moduleNames = map[Module]string{
	ModuleDefault:    "DEFAULT",
	ModuleOS:         "OS",
	ModuleNewtmgr:    "NEWTMGR",
	ModuleNimbleCtlr: "NIMBLE_CTLR",
	ModuleNimbleHost: "NIMBLE_HOST",
	ModuleNFFS:       "NFFS",
	ModuleReboot:     "REBOOT",
	ModuleIoTivity:   "IOTIVITY",
	ModuleTest:       "TEST",
}

// String returns the module name, or its number for unknown modules.
func (m Module) String() string {
	if name, ok := moduleNames[m]; ok {
		return name
	}
	return strconv.Itoa(int(m))
}

// ParseModule parses a module name (case-insensitive) or its numeric value.
func ParseModule(s string) (Module, error) {
	s = strings.TrimSpace(s)
	for m, name := range moduleNames {
		if strings.EqualFold(name, s) {
			return m, nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, errors.Newf("invalid module: %q", s)
	}
	return Module(n), nil
}
