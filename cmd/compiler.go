package cmd

import (
	"bufio"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenix-project/arx/ast"
	"github.com/fenix-project/arx/codegen"
	"github.com/fenix-project/arx/common"
	"github.com/fenix-project/arx/config"
	"github.com/fenix-project/arx/report"
	"github.com/fenix-project/arx/syntax"
)

// Compiler represents the global state of one compilation: a single module
// fed either a whole source file or, in the shell, one input at a time.
type Compiler struct {
	// cfg is the resolved configuration of the compiler.
	cfg *config.Config

	// ctx is the module context code is generated into.
	ctx *codegen.Context

	// gen is the generator visiting every top-level item.
	gen *codegen.Generator

	// ops is the operator table shared by every parser the compiler creates
	// so that user-defined operators stay installed across inputs.
	ops syntax.OpTable

	// binOps is the set of binary operators with a successful declaration or
	// definition.
	binOps map[string]struct{}
}

// NewCompiler bootstraps a module for the given configuration.
func NewCompiler(cfg *config.Config) (*Compiler, error) {
	ctx, err := codegen.Bootstrap(cfg)
	if err != nil {
		return nil, err
	}

	return &Compiler{
		cfg:    cfg,
		ctx:    ctx,
		gen:    codegen.NewGenerator(ctx),
		ops:    syntax.NewOpTable(),
		binOps: make(map[string]struct{}),
	}, nil
}

// CompileFile compiles the source file at path into the module.  It returns
// false if any errors were reported.
func (c *Compiler) CompileFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		report.ReportStdError(path, err)
		return false
	}
	defer f.Close()

	buff, err := ioutil.ReadAll(f)
	if err != nil {
		report.ReportStdError(path, err)
		return false
	}

	report.ReportInfo("Compiling", path)
	return c.CompileSource(path, string(buff))
}

// CompileSource compiles every top-level item of text.  Items that fail to
// parse or generate are reported and skipped; the rest still reach the module.
func (c *Compiler) CompileSource(reprPath, text string) bool {
	src := report.NewSourceFile(reprPath, text)

	ok := true
	errs := syntax.NewParser(strings.NewReader(text), c.ops).ParseEach(func(node ast.Node) {
		if _, nodeOk := c.compileNode(src, node); !nodeOk {
			ok = false
		}
	})

	for _, lce := range errs {
		report.ReportLocalError(src, lce)
	}

	return ok && len(errs) == 0
}

// compileNode visits a single top-level item and reports its errors.
func (c *Compiler) compileNode(src *report.SourceFile, node ast.Node) (codegen.Result, bool) {
	c.gen.Visit(node)

	errs := c.gen.TakeErrors()
	for _, lce := range errs {
		report.ReportLocalError(src, lce)
	}

	ok := len(errs) == 0
	c.trackOperator(node, ok)

	return c.gen.Result(), ok
}

// trackOperator records binary operators that were declared or defined
// successfully.  An operator whose definitions have all failed is removed from
// the operator table again.
func (c *Compiler) trackOperator(node ast.Node, ok bool) {
	var proto *ast.Prototype
	switch v := node.(type) {
	case *ast.Prototype:
		proto = v
	case *ast.Function:
		proto = v.Proto
	}

	if proto == nil || proto.Kind != ast.ProtoBinary {
		return
	}

	op := proto.OperatorName()
	if ok {
		c.binOps[op] = struct{}{}
	} else if _, known := c.binOps[op]; !known {
		c.ops.Uninstall(op)
	}
}

// WriteModule finalizes the debug info and writes the module's IR to w.
func (c *Compiler) WriteModule(w io.Writer) error {
	c.ctx.Finalize()

	_, err := c.ctx.WriteTo(w)
	return err
}

// Emit writes the module to the configured output path or, if there is none,
// to standard error.
func (c *Compiler) Emit() error {
	if c.cfg.OutputPath == "" {
		return c.WriteModule(os.Stderr)
	}

	f, err := os.Create(c.cfg.OutputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := c.WriteModule(bw); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return err
	}

	report.ReportInfo("Output", c.cfg.OutputPath)
	return nil
}

// -----------------------------------------------------------------------------

// loadConfig resolves the configuration: the file at configPath if one is
// given, otherwise `arx.toml` in the working directory if it exists, otherwise
// the defaults.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	if _, err := os.Stat(common.ConfigFileName); err == nil {
		return config.Load(common.ConfigFileName)
	}

	return config.Default(), nil
}

// useSourcePath records the file being compiled as the source of the debug
// compile unit.
func useSourcePath(cfg *config.Config, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	cfg.SourceFile = filepath.Base(absPath)
	cfg.SourceDir = filepath.Dir(absPath)
	return nil
}
