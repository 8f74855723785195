package logger

// Logger is the logging surface handed to components that should not
// reach for the package-level functions directly.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	Failure(err error) *LogEvent
}
