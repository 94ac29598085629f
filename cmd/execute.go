package cmd

import (
	"os"

	"github.com/ComedicChimera/olive"
	"github.com/fenix-project/arx/common"
	"github.com/fenix-project/arx/config"
	"github.com/fenix-project/arx/report"
)

// Execute is the main entry point for the `arx` CLI utility
func Execute() {
	// set up the argument parser and all its extended commands and arguments
	cli := olive.NewCLI("arx", "arx compiles Arx source to LLVM IR", true)
	cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})

	buildCmd := cli.AddSubcommand("build", "compile a source file", true)
	buildCmd.AddPrimaryArg("file", "the path to the source file", true)
	buildCmd.AddStringArg("output", "o", "the path to write the IR to", false)
	buildCmd.AddStringArg("config", "c", "the path to the configuration file", false)

	shellCmd := cli.AddSubcommand("shell", "run the interactive shell", true)
	shellCmd.AddStringArg("config", "c", "the path to the configuration file", false)

	cli.AddSubcommand("version", "print the Arx version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		report.ReportFatal(err.Error())
	}

	// an explicit log level overrides the configuration file
	logLevel := ""
	if arg, ok := result.Arguments["loglevel"]; ok {
		logLevel = arg.(string)
	}

	// process the inputed command line
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		execBuildCommand(subResult, logLevel)
	case "shell":
		execShellCommand(subResult, logLevel)
	case "version":
		report.DisplayInfoMessage("Arx Version", common.ArxVersion)
	}
}

// execBuildCommand executes the build subcommand and handles all errors
func execBuildCommand(result *olive.ArgParseResult, logLevel string) {
	srcPath, _ := result.PrimaryArg()

	cfg := setupConfig(result, logLevel)
	if err := useSourcePath(cfg, srcPath); err != nil {
		report.ReportFatal("error calculating absolute path: %s", err.Error())
	}

	if arg, ok := result.Arguments["output"]; ok {
		cfg.OutputPath = arg.(string)
	}

	c, err := NewCompiler(cfg)
	if err != nil {
		report.ReportFatal(err.Error())
	}

	c.CompileFile(srcPath)

	if err := c.Emit(); err != nil {
		report.ReportFatal("failed to write output: %s", err.Error())
	}

	if report.AnyErrors() {
		os.Exit(1)
	}
}

// execShellCommand executes the shell subcommand
func execShellCommand(result *olive.ArgParseResult, logLevel string) {
	cfg := setupConfig(result, logLevel)

	c, err := NewCompiler(cfg)
	if err != nil {
		report.ReportFatal(err.Error())
	}

	c.RunShell()
}

// setupConfig loads the configuration named by the `config` argument and
// initializes the reporter with the resulting log level.
func setupConfig(result *olive.ArgParseResult, logLevel string) *config.Config {
	configPath := ""
	if arg, ok := result.Arguments["config"]; ok {
		configPath = arg.(string)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		report.ReportFatal("failed to load configuration: %s", err.Error())
	}

	if logLevel != "" {
		lvl, ok := report.ParseLogLevel(logLevel)
		if !ok {
			report.ReportFatal("unknown log level: `%s`", logLevel)
		}

		cfg.LogLevel = lvl
	}

	report.InitReporter(cfg.LogLevel)
	report.SetLogLevel(cfg.LogLevel)

	return cfg
}
