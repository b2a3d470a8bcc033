package logger

import "go.uber.org/zap/zapcore"

// Verbosity maps repeated -v CLI flags onto log levels: 0 is info, 1 turns
// on debug, 2 and above keep debug and widen what callers choose to log.
func LevelForVerbosity(verbosity int) zapcore.Level {
	if verbosity >= 1 {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// ShouldLogDetail reports whether verbose detail (full plans, token dumps)
// should be logged at the given verbosity.
func ShouldLogDetail(verbosity int) bool {
	return verbosity >= 2
}
