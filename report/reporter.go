package report

import (
	"io"
	"os"
	"sync"
)

// Reporter is responsible for reporting errors, warnings, and other kinds of
// messages to the user during program execution.  The reporter respects the set
// log level and is synchronized: its methods can be safely called from multiple
// goroutines.
type Reporter struct {
	// The mutex used to synchonize different error method calls.
	m *sync.Mutex

	// The selected log level of the reporter.  This must be one of the
	// enumerated log levels below.
	logLevel int

	// The writer all messages are displayed to.
	out io.Writer

	// The number of errors and warnings reported so far.
	errorCount, warningCount int
}

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays only warnings and errors to the user.
	LogLevelVerbose        // Displays all compilation messages to the user (default).
)

// rep is the global reporter instance.
var rep *Reporter

// InitReporter initializes the global error reporter to the given log level. If
// the reporter has already been initialized, this function does nothing.
func InitReporter(logLevel int) {
	if rep == nil {
		rep = &Reporter{
			m:        &sync.Mutex{},
			logLevel: logLevel,
			out:      os.Stderr,
		}
	}
}

// SetOutput redirects all reporter output to w.
func SetOutput(w io.Writer) {
	InitReporter(LogLevelVerbose)

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.out = w
}

// SetLogLevel changes the log level of an already initialized reporter.
func SetLogLevel(logLevel int) {
	InitReporter(logLevel)

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.logLevel = logLevel
}

// Reset clears the error and warning counts of the reporter.
func Reset() {
	InitReporter(LogLevelVerbose)

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount = 0
	rep.warningCount = 0
}

// ParseLogLevel converts the name of a log level into its enumerated value.
func ParseLogLevel(name string) (int, bool) {
	switch name {
	case "silent":
		return LogLevelSilent, true
	case "error":
		return LogLevelError, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "verbose":
		return LogLevelVerbose, true
	}

	return LogLevelVerbose, false
}
