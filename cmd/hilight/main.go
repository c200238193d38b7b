package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"

	"github.com/lumetta/hilight/pkg/config"
	"github.com/lumetta/hilight/pkg/demo"
)

func main() {
	var (
		patternSpecs []string
		fg           int
		bg           int
		configPath   string
		colorMode    string
		noColor      bool
		rainbow      bool
		palette      bool
		stress       int
		help         bool
	)

	flag.StringArrayVarP(&patternSpecs, "pattern", "p", nil, `highlight rule: "FG[:BG]=REGEX" or a bare REGEX`)
	flag.IntVar(&fg, "fg", -1, "default foreground palette index (0-255)")
	flag.IntVar(&bg, "bg", -1, "default background palette index (0-255)")
	flag.StringVarP(&configPath, "config", "c", "", "path to config file")
	flag.StringVar(&colorMode, "color", "auto", `when to color: "auto", "always" or "never"`)
	flag.BoolVar(&noColor, "no-color", false, `alias for --color=never`)
	flag.BoolVar(&rainbow, "rainbow", false, "print the 256-color palette as background swatches and exit")
	flag.BoolVar(&palette, "palette", false, "print the 256-color palette as foreground samples and exit")
	flag.IntVar(&stress, "stress", 0, "exercise the color cache N times and exit")
	flag.BoolVarP(&help, "help", "h", false, "show help message")

	flag.Parse()

	if help {
		printUsage()
		os.Exit(0)
	}

	// Demo and harness modes short-circuit the filter entirely
	if rainbow {
		demo.Rainbow(os.Stdout)
		os.Exit(0)
	}
	if palette {
		demo.Palette(os.Stdout)
		os.Exit(0)
	}
	if stress > 0 {
		demo.Stress(stress)
		os.Exit(0)
	}

	// Point config.Load at the explicit file before loading
	if configPath != "" {
		if err := os.Setenv("HILIGHT_CONFIG", configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting config path: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Override config with command line flags
	if flag.CommandLine.Changed("fg") {
		if fg < 0 || fg > 255 {
			fmt.Fprintf(os.Stderr, "Error: --fg must be in 0-255, got %d\n", fg)
			os.Exit(1)
		}
		cfg.DefaultFg = &fg
	}
	if flag.CommandLine.Changed("bg") {
		if bg < 0 || bg > 255 {
			fmt.Fprintf(os.Stderr, "Error: --bg must be in 0-255, got %d\n", bg)
			os.Exit(1)
		}
		cfg.DefaultBg = &bg
	}

	switch colorMode {
	case "always":
		cfg.NoColor = false
	case "never":
		cfg.NoColor = true
	case "auto":
		// A pipe gets the plain text; escape codes are for terminals
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			cfg.NoColor = true
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: --color must be auto, always or never, got %q\n", colorMode)
		os.Exit(1)
	}
	if noColor {
		cfg.NoColor = true
	}

	deps, err := NewDependencies(cfg, patternSpecs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	app := NewApplication(deps)

	if os.Getenv("HILIGHT_DEBUG") == "1" {
		fmt.Fprintf(os.Stderr, "hilight: %d patterns registered, no_color=%v\n", deps.Highlighter.Len(), cfg.NoColor)
	}

	args := flag.Args()
	atDash := flag.CommandLine.ArgsLenAtDash()

	if atDash >= 0 {
		// Everything after -- is a command to run under a PTY
		command := args[atDash:]
		if atDash != 0 {
			fmt.Fprintf(os.Stderr, "Error: cannot combine FILE arguments with a command\n")
			os.Exit(1)
		}
		if len(command) == 0 {
			fmt.Fprintf(os.Stderr, "Error: no command given after --\n")
			os.Exit(1)
		}
		runCommand(app, command)
		return
	}

	if len(args) == 0 {
		if err := app.FilterReader(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	for _, path := range args {
		if err := app.FilterFile(path, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// runCommand runs the given command under a PTY and exits with its code.
func runCommand(app *Application, command []string) {
	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Ensure terminal restoration on panic
	defer func() {
		if r := recover(); r != nil {
			_ = app.Stop() // Best effort terminal restoration
			panic(r)       // Re-panic
		}
	}()

	go func() {
		<-sigChan
		if err := app.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error restoring terminal: %v\n", err)
		}
		// Exit with standard interrupt code
		os.Exit(130)
	}()

	if err := app.RunCommand(command[0], command[1:], os.Stdout); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			// Only log if it's not an expected exit error
			fmt.Fprintf(os.Stderr, "Error running command: %v\n", err)
		}
	}

	// Exit with the same code as the wrapped process
	os.Exit(app.ExitCode())
}

func printUsage() {
	fmt.Println("hilight - streaming text highlighter")
	fmt.Println()
	fmt.Println("Usage: hilight [OPTIONS] [FILE...]")
	fmt.Println("       hilight [OPTIONS] -- COMMAND [ARGS...]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Reads stdin when no FILE is given. With --, runs COMMAND under a")
	fmt.Println("pseudo terminal and highlights its output as it streams.")
	fmt.Println()
	fmt.Println("Pattern specs give a 256-color palette index for the foreground and")
	fmt.Println("optionally the background: -p '196=ERROR', -p '0:214=WARN'. A spec")
	fmt.Println("without a color prefix uses the default color; escape a literal")
	fmt.Println("leading \"N=\" in the regex if it collides.")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  HILIGHT_CONFIG       Path to config file")
	fmt.Println("  HILIGHT_DEFAULT_FG   Default foreground palette index")
	fmt.Println("  HILIGHT_DEFAULT_BG   Default background palette index")
	fmt.Println("  HILIGHT_NO_COLOR     Disable highlighting (true/false)")
	fmt.Println("  NO_COLOR             Disable highlighting when non-empty")
	fmt.Println("  HILIGHT_DEBUG        Print wiring details to stderr when 1")
	fmt.Println()
	fmt.Println("Configuration file: ~/.config/hilight/config.yaml")
}
