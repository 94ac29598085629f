package report

import (
	"fmt"
	"os"
	"strings"
)

// TextSpan is a region of Arx source text.  Lines and columns count from zero.
// EndLine is the line of the last rune and EndCol is the column just past it.
type TextSpan struct {
	// Position of the first rune.
	StartLine, StartCol int

	// End of the span: EndCol is exclusive.
	EndLine, EndCol int
}

// NewSpanOver returns the span running from the start of start to the end of
// end.
func NewSpanOver(start, end *TextSpan) *TextSpan {
	return &TextSpan{
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

// -----------------------------------------------------------------------------

// SourceFile is the source text that compile messages are displayed against.
// Source given to the shell has no file on disk so the text is kept in memory.
type SourceFile struct {
	// The path used to refer to the source in messages.
	ReprPath string

	// The lines of source text.
	Lines []string
}

// NewSourceFile creates a new source file from its full text.
func NewSourceFile(reprPath, text string) *SourceFile {
	return &SourceFile{
		ReprPath: reprPath,
		Lines:    strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"),
	}
}

// -----------------------------------------------------------------------------

// LocalCompileError is a positioned error whose source file is supplied by
// whoever reports it.
type LocalCompileError struct {
	// The error message.
	Message string

	// Where the error occurred.  May be nil.
	Span *TextSpan
}

func (lce *LocalCompileError) Error() string {
	if lce.Span == nil {
		return lce.Message
	}

	return fmt.Sprintf("%d:%d: %s", lce.Span.StartLine+1, lce.Span.StartCol+1, lce.Message)
}

// Raise builds a LocalCompileError from a format string.
func Raise(span *TextSpan, msg string, args ...interface{}) *LocalCompileError {
	return &LocalCompileError{Message: fmt.Sprintf(msg, args...), Span: span}
}

// -----------------------------------------------------------------------------

// ReportICE reports a bug in the compiler itself and exits.  It ignores the
// log level.
func ReportICE(message string, args ...interface{}) {
	InitReporter(LogLevelVerbose)

	rep.m.Lock()
	defer rep.m.Unlock()

	displayICE(fmt.Sprintf(message, args...))

	os.Exit(-1)
}

// ReportFatal reports an unrecoverable but expected failure, such as a bad
// configuration file or an unknown target, and exits.
func ReportFatal(message string, args ...interface{}) {
	InitReporter(LogLevelVerbose)

	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayFatal(fmt.Sprintf(message, args...))
	}

	os.Exit(1)
}

// ReportCompileError reports erroneous input code.  A nil span omits the
// position.
func ReportCompileError(src *SourceFile, span *TextSpan, message string, args ...interface{}) {
	InitReporter(LogLevelVerbose)

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayCompileMessage("error", src, span, fmt.Sprintf(message, args...))
	}
}

// ReportCompileWarning is ReportCompileError for warnings.
func ReportCompileWarning(src *SourceFile, span *TextSpan, message string, args ...interface{}) {
	InitReporter(LogLevelVerbose)

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.warningCount++

	if rep.logLevel > LogLevelError {
		displayCompileMessage("warning", src, span, fmt.Sprintf(message, args...))
	}
}

// ReportLocalError reports a local compile error against the given source.
func ReportLocalError(src *SourceFile, lce *LocalCompileError) {
	ReportCompileError(src, lce.Span, "%s", lce.Message)
}

// ReportStdError reports a Go error that does not stop compilation.
func ReportStdError(reprPath string, err error) {
	InitReporter(LogLevelVerbose)

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayStdError(reprPath, err)
	}
}

// ReportInfo displays a tagged informational message.  It is only displayed
// in verbose mode.
func ReportInfo(tag, message string, args ...interface{}) {
	InitReporter(LogLevelVerbose)

	rep.m.Lock()
	defer rep.m.Unlock()

	if rep.logLevel == LogLevelVerbose {
		displayInfo(tag, fmt.Sprintf(message, args...))
	}
}

// -----------------------------------------------------------------------------

// AnyErrors reports whether an error has been reported since the last Reset.
func AnyErrors() bool {
	return ErrorCount() > 0
}

// ErrorCount returns the number of errors reported so far.
func ErrorCount() int {
	InitReporter(LogLevelVerbose)

	rep.m.Lock()
	defer rep.m.Unlock()

	return rep.errorCount
}

// WarningCount returns the number of warnings reported so far.
func WarningCount() int {
	InitReporter(LogLevelVerbose)

	rep.m.Lock()
	defer rep.m.Unlock()

	return rep.warningCount
}
