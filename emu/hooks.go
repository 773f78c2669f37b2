package emu

import "github.com/sirupsen/logrus"

// StackPointerHook observes writes to the stack-pointer register. SetSP is
// called with the old and new values before the write commits.
type StackPointerHook interface {
	SetSP(oldSP, newSP uint32)
}

// StackPointerHookFunc adapts a function to a StackPointerHook.
type StackPointerHookFunc func(oldSP, newSP uint32)

// SetSP calls f(oldSP, newSP).
func (f StackPointerHookFunc) SetSP(oldSP, newSP uint32) {
	f(oldSP, newSP)
}

// FetchTimer charges extra cycles for an instruction fetch, e.g. on an
// instruction-cache miss.
type FetchTimer interface {
	FetchLatency(physAddr uint32) uint32
}

// LogClass tags diagnostics with the unit that emitted them.
type LogClass string

// Log classes.
const (
	LogCPU       LogClass = "cpu"
	LogException LogClass = "exception"
	LogMemory    LogClass = "memory"
)

func (e *Emulator) logf(level logrus.Level, class LogClass, format string, args ...any) {
	e.logger.WithField("class", string(class)).Logf(level, format, args...)
}
