package main

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/lumetta/hilight/pkg/ansi"
	"github.com/lumetta/hilight/pkg/config"
	"github.com/lumetta/hilight/pkg/filter"
	"github.com/lumetta/hilight/pkg/highlight"
	"github.com/lumetta/hilight/pkg/process"
)

// Dependencies holds the wired components for one invocation.
type Dependencies struct {
	Config      *config.Config
	Highlighter *highlight.Highlighter
	Runner      *process.Runner
}

// patternSpecRE splits "FG[:BG]=REGEX" pattern specs. Anything that does
// not match is a bare regex using the default color.
var patternSpecRE = regexp.MustCompile(`^(\d{1,3})(?::(\d{1,3}))?=(.*)$`)

// parsePatternSpec parses a -p argument into a color and a pattern. A spec
// without a color prefix returns the zero Color, which binds the default
// color at registration.
func parsePatternSpec(spec string) (ansi.Color, string, error) {
	m := patternSpecRE.FindStringSubmatch(spec)
	if m == nil {
		return ansi.Color{}, spec, nil
	}

	fg, err := strconv.Atoi(m[1])
	if err != nil || fg > 255 {
		return ansi.Color{}, "", fmt.Errorf("invalid foreground in pattern spec %q: must be in 0-255", spec)
	}

	if m[2] == "" {
		return ansi.Fg(uint8(fg)), m[3], nil
	}

	bg, err := strconv.Atoi(m[2])
	if err != nil || bg > 255 {
		return ansi.Color{}, "", fmt.Errorf("invalid background in pattern spec %q: must be in 0-255", spec)
	}

	return ansi.FgBg(uint8(fg), uint8(bg)), m[3], nil
}

// NewDependencies builds the highlighter from the config rules followed by
// the CLI pattern specs, in that order; registration order is precedence.
func NewDependencies(cfg *config.Config, patternSpecs []string) (*Dependencies, error) {
	h := highlight.New(cfg.DefaultColor())

	// Parse and compile CLI specs up front so a bad spec is rejected even
	// when color is off.
	type cliRule struct {
		color ansi.Color
		re    *regexp.Regexp
	}
	cliRules := make([]cliRule, 0, len(patternSpecs))
	for _, spec := range patternSpecs {
		color, pattern, err := parsePatternSpec(spec)
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &highlight.PatternError{Pattern: pattern, Err: err}
		}
		cliRules = append(cliRules, cliRule{color: color, re: re})
	}

	if !cfg.NoColor {
		for i := range cfg.Rules {
			rule := &cfg.Rules[i]
			if rule.Disabled || rule.CompiledRegex() == nil {
				continue
			}
			h.AddRegexp(rule.CompiledRegex(), rule.Color())
		}
		for _, r := range cliRules {
			h.AddRegexp(r.re, r.color)
		}
	}

	return &Dependencies{
		Config:      cfg,
		Highlighter: h,
		Runner:      process.NewRunner(),
	}, nil
}

// Application drives one hilight invocation.
type Application struct {
	deps *Dependencies
}

// NewApplication creates a new application with the given dependencies.
func NewApplication(deps *Dependencies) *Application {
	return &Application{
		deps: deps,
	}
}

// FilterReader highlights r line by line onto w.
func (a *Application) FilterReader(r io.Reader, w io.Writer) error {
	return filter.Run(w, r, a.deps.Highlighter)
}

// FilterFile highlights the named file onto w.
func (a *Application) FilterFile(path string, w io.Writer) error {
	// #nosec G304 - the path is a user-supplied CLI argument
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return a.FilterReader(f, w)
}

// RunCommand runs command under a PTY and highlights its output onto w.
func (a *Application) RunCommand(command string, args []string, w io.Writer) error {
	fw := filter.NewWriter(w, a.deps.Highlighter)

	if err := a.deps.Runner.Start(command, args, fw); err != nil {
		return err
	}

	err := a.deps.Runner.Wait()
	if cerr := fw.Close(); err == nil {
		err = cerr
	}
	return err
}

// Stop restores the terminal state after a PTY run.
func (a *Application) Stop() error {
	return a.deps.Runner.Stop()
}

// ExitCode returns the exit code of the wrapped process.
func (a *Application) ExitCode() int {
	return a.deps.Runner.ExitCode()
}
