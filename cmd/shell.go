package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenix-project/arx/ast"
	"github.com/fenix-project/arx/common"
	"github.com/fenix-project/arx/report"
	"github.com/fenix-project/arx/syntax"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/peterh/liner"
	"golang.org/x/exp/maps"
)

const (
	promptMain = ">>> "
	promptCont = "... "
)

// shellReprPath is the path used to refer to shell input in messages.
const shellReprPath = "<stdin>"

// lineReader reads one line of input after displaying a prompt.
type lineReader interface {
	Prompt(prompt string) (string, error)
}

// RunShell runs the interactive shell until the end of input.  The finished
// module is then written to standard error.
func (c *Compiler) RunShell() {
	writeBanner(os.Stderr)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, common.HistoryFileName)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		text, ok := c.readByParseProbe(ln)
		if !ok {
			fmt.Fprintln(os.Stderr)
			break
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		ln.AppendHistory(text)
		c.EvalInput(text, os.Stderr)
	}

	if err := c.WriteModule(os.Stderr); err != nil {
		report.ReportStdError(shellReprPath, err)
	}
}

// writeBanner writes the greeting shown when the shell starts.  It shares the
// stream of the module dump.
func writeBanner(w io.Writer) {
	fmt.Fprintf(w, "Arx %s\n", common.ArxVersion)
}

// readByParseProbe reads lines until they form complete top-level items or
// fail for a reason other than running out of input.  It returns false at the
// end of input.
func (c *Compiler) readByParseProbe(lr lineReader) (string, bool) {
	var b strings.Builder

	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}

		line, err := lr.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		} else if err != nil {
			// an aborted prompt discards the pending input
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if !c.probeIncomplete(src) {
			return src, true
		}
	}
}

// probeIncomplete returns whether src ends in the middle of a top-level item.
// The probe parses with a copy of the operator table so operators declared by
// src are only installed once it is evaluated.
func (c *Compiler) probeIncomplete(src string) bool {
	p := syntax.NewParser(strings.NewReader(src), maps.Clone(c.ops))

	for {
		node, err := p.ParseTopLevel()
		if err != nil {
			return syntax.IsIncomplete(err)
		} else if node == nil {
			return false
		}
	}
}

// EvalInput compiles one shell input and writes the IR of each item it
// completes to out.
func (c *Compiler) EvalInput(text string, out io.Writer) {
	src := report.NewSourceFile(shellReprPath, text)

	errs := syntax.NewParser(strings.NewReader(text), c.ops).ParseEach(func(node ast.Node) {
		result, ok := c.compileNode(src, node)
		if !ok {
			return
		}

		switch v := node.(type) {
		case *ast.Prototype:
			fmt.Fprintln(out, "Read extern:")
			fmt.Fprintln(out, declarationText(v))
		case *ast.Function:
			if v.IsTopLevelExpr() {
				fmt.Fprintln(out, "Read top-level expression:")
			} else {
				fmt.Fprintln(out, "Read function definition:")
			}

			fmt.Fprintln(out, result.Func.LLString())
		}

		fmt.Fprintln(out)
	})

	for _, lce := range errs {
		report.ReportLocalError(src, lce)
	}
}

// declarationText renders the declaration an extern stands for.  Externs are
// only materialized in the module once called, so the declaration is built
// detached from it.
func declarationText(proto *ast.Prototype) string {
	params := make([]*ir.Param, len(proto.Params))
	for i, name := range proto.Params {
		params[i] = ir.NewParam(name, types.Double)
	}

	return ir.NewFunc(proto.Name, types.Double, params...).LLString()
}
