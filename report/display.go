package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
)

// displayICE prints an internal compiler error.
func displayICE(message string) {
	fmt.Fprint(rep.out, ErrorStyleBG.Sprint("internal compiler error"), " ")
	fmt.Fprintln(rep.out, ErrorColorFG.Sprint(message))
	fmt.Fprint(rep.out, "This error was not supposed to happen: please open an issue.\n\n")
}

// displayFatal prints a fatal error.
func displayFatal(message string) {
	fmt.Fprint(rep.out, ErrorStyleBG.Sprint("fatal error"), " ")
	fmt.Fprint(rep.out, ErrorColorFG.Sprint(message), "\n\n")
}

// displayInfo displays an informational message.
func displayInfo(tag, message string) {
	fmt.Fprint(rep.out, InfoStyleBG.Sprint(tag), " ")
	fmt.Fprintln(rep.out, InfoColorFG.Sprint(message))
}

// displayCompileMessage displays a compilation error or warning.  The label is
// the string to prefix the message with: eg. if we want to display an error,
// the label is "error".
func displayCompileMessage(label string, src *SourceFile, span *TextSpan, message string) {
	var labelText string
	if label == "error" {
		labelText = ErrorColorFG.Sprint(label)
	} else {
		labelText = WarnColorFG.Sprint(label)
	}

	reprPath := "<input>"
	if src != nil {
		reprPath = src.ReprPath
	}

	if span == nil {
		fmt.Fprintf(rep.out, "%s: %s: %s\n\n", reprPath, labelText, message)
	} else {
		fmt.Fprintf(rep.out, "%s:%d:%d: %s: %s\n\n", reprPath, span.StartLine+1, span.StartCol+1, labelText, message)

		if src != nil {
			displaySourceText(src, span)
		}
	}
}

// displayStdError prints a Go error tagged with the path it concerns.
func displayStdError(reprPath string, err error) {
	fmt.Fprintf(rep.out, "%s: %s: %s\n\n", reprPath, ErrorColorFG.Sprint("error"), err)
}

// -----------------------------------------------------------------------------

// displaySourceText prints the lines covered by span and underlines the span.
func displaySourceText(src *SourceFile, span *TextSpan) {
	// Collect all the source lines containing the given source text.
	var lines []string
	for ln := span.StartLine; ln <= span.EndLine && ln < len(src.Lines); ln++ {
		if ln >= 0 {
			lines = append(lines, strings.ReplaceAll(src.Lines[ln], "\t", "    "))
		}
	}

	if len(lines) == 0 {
		return
	}

	// Calculate the minimum line indentation.
	minIndent := math.MaxInt
	for _, line := range lines {
		lineIndent := len(line) - len(strings.TrimLeft(line, " "))
		if lineIndent < minIndent {
			minIndent = lineIndent
		}
	}

	// Calculate the maximum line number length.
	maxLineNumLen := len(strconv.Itoa(span.EndLine + 1))

	// Generate the format string for line numbers.
	lineNumFmtStr := "%-" + strconv.Itoa(maxLineNumLen) + "v | "

	for i, line := range lines {
		// Print the line number and separator bar.
		fmt.Fprint(rep.out, InfoColorFG.Sprintf(lineNumFmtStr, i+span.StartLine+1))

		// Print the source text with the leading indent trimmed off.
		fmt.Fprintln(rep.out, line[minIndent:])

		// Print the line and bar used for the line for carret underlining.
		fmt.Fprint(rep.out, strings.Repeat(" ", maxLineNumLen), " | ")

		// The first line is underlined from the start column, every other line
		// from its trimmed start.
		carretPrefixCount := 0
		if i == 0 {
			carretPrefixCount = span.StartCol - minIndent
		}

		// The last line is underlined up to the end column, every other line up
		// to its end.
		carretEnd := len(line)
		if i == len(lines)-1 && span.EndCol < carretEnd {
			carretEnd = span.EndCol
		}

		carretCount := carretEnd - minIndent - carretPrefixCount
		if carretPrefixCount < 0 {
			carretPrefixCount = 0
		}
		if carretCount < 1 {
			carretCount = 1
		}

		fmt.Fprint(rep.out, strings.Repeat(" ", carretPrefixCount))
		fmt.Fprintln(rep.out, ErrorColorFG.Sprint(strings.Repeat("^", carretCount)))
	}

	// Print newlines after the error message.
	fmt.Fprintln(rep.out)
}

// DisplayInfoMessage displays a tagged message regardless of log level.
func DisplayInfoMessage(tag, message string) {
	InitReporter(LogLevelVerbose)

	rep.m.Lock()
	defer rep.m.Unlock()

	displayInfo(tag, message)
}
