package log

import "sync"

var (
	defaultEngine *Engine
	initOnce      sync.Once
)

// Init creates the process-wide engine with DefaultOptions. It is safe to
// call more than once; only the first call has an effect.
func Init() *Engine {
	initOnce.Do(func() {
		defaultEngine = New(DefaultOptions())
	})
	return defaultEngine
}

// Default returns the process-wide engine, initializing it if needed.
func Default() *Engine {
	return Init()
}

// Register registers inst with the default engine.
func Register(inst *Instance, name string, h Handler, arg any, level Level) *Instance {
	return Default().Register(inst, name, h, arg, level)
}

// Next enumerates the instances registered with the default engine.
func Next(prev *Instance) *Instance {
	return Default().Next(prev)
}

// Append appends payload through the default engine.
func Append(inst *Instance, module Module, level Level, payload []byte) error {
	return Default().Append(inst, module, level, payload)
}

// Printf appends a formatted message through the default engine.
func Printf(inst *Instance, module Module, level Level, format string, args ...any) error {
	return Default().Printf(inst, module, level, format, args...)
}

// Walk walks inst through the default engine.
func Walk(inst *Instance, fn WalkFunc) error {
	return Default().Walk(inst, fn)
}

// Read reads from inst through the default engine.
func Read(inst *Instance, cur Cursor, buf []byte, off int) (int, error) {
	return Default().Read(inst, cur, buf, off)
}

// Flush flushes inst through the default engine and resets the global index.
func Flush(inst *Instance) error {
	return Default().Flush(inst)
}
