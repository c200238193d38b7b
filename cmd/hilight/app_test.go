package main

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/lumetta/hilight/pkg/ansi"
	"github.com/lumetta/hilight/pkg/config"
	"github.com/lumetta/hilight/pkg/highlight"
)

func TestParsePatternSpec(t *testing.T) {
	tests := []struct {
		name        string
		spec        string
		wantColor   ansi.Color
		wantPattern string
		wantErr     bool
	}{
		{
			name:        "foreground only",
			spec:        "196=ERROR",
			wantColor:   ansi.Fg(196),
			wantPattern: "ERROR",
		},
		{
			name:        "foreground and background",
			spec:        "0:214=WARN",
			wantColor:   ansi.FgBg(0, 214),
			wantPattern: "WARN",
		},
		{
			name:        "bare regex",
			spec:        `\d+`,
			wantColor:   ansi.Color{},
			wantPattern: `\d+`,
		},
		{
			name:        "regex containing equals",
			spec:        "7=key=value",
			wantColor:   ansi.Fg(7),
			wantPattern: "key=value",
		},
		{
			name:        "empty regex after color",
			spec:        "7=",
			wantColor:   ansi.Fg(7),
			wantPattern: "",
		},
		{
			name:        "escaped digits stay in regex",
			spec:        `[0-9]+=x`,
			wantColor:   ansi.Color{},
			wantPattern: `[0-9]+=x`,
		},
		{
			name:    "foreground out of range",
			spec:    "300=x",
			wantErr: true,
		},
		{
			name:    "background out of range",
			spec:    "1:999=x",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			color, pattern, err := parsePatternSpec(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parsePatternSpec(%q) succeeded, want error", tt.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePatternSpec(%q) failed: %v", tt.spec, err)
			}
			if color != tt.wantColor {
				t.Errorf("color = %v, want %v", color, tt.wantColor)
			}
			if pattern != tt.wantPattern {
				t.Errorf("pattern = %q, want %q", pattern, tt.wantPattern)
			}
		})
	}
}

func testConfig(rules ...config.Rule) *config.Config {
	for i := range rules {
		if rules[i].Disabled || rules[i].Regex == "" {
			continue
		}
		rules[i].SetCompiledRegex(regexp.MustCompile(rules[i].Regex))
	}
	fg := 7
	return &config.Config{DefaultFg: &fg, Rules: rules}
}

func TestNewDependencies(t *testing.T) {
	fg196 := 196

	tests := []struct {
		name         string
		cfg          *config.Config
		patternSpecs []string
		wantPatterns int
		wantErr      bool
	}{
		{
			name:         "no rules",
			cfg:          testConfig(),
			wantPatterns: 0,
		},
		{
			name: "config rules and cli specs",
			cfg: testConfig(
				config.Rule{Name: "errors", Regex: "(?i)error", Fg: &fg196},
				config.Rule{Name: "off", Regex: "unused", Disabled: true},
			),
			patternSpecs: []string{"33=TODO", `\d+`},
			wantPatterns: 3,
		},
		{
			name:         "no color drops everything",
			cfg:          &config.Config{NoColor: true},
			patternSpecs: []string{"33=TODO"},
			wantPatterns: 0,
		},
		{
			name:         "invalid spec color",
			cfg:          testConfig(),
			patternSpecs: []string{"999=x"},
			wantErr:      true,
		},
		{
			name:         "invalid spec regex",
			cfg:          testConfig(),
			patternSpecs: []string{"["},
			wantErr:      true,
		},
		{
			name:         "invalid spec regex rejected even without color",
			cfg:          &config.Config{NoColor: true},
			patternSpecs: []string{"["},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, err := NewDependencies(tt.cfg, tt.patternSpecs)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewDependencies succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewDependencies failed: %v", err)
			}
			if deps.Highlighter.Len() != tt.wantPatterns {
				t.Errorf("registered patterns = %d, want %d", deps.Highlighter.Len(), tt.wantPatterns)
			}
		})
	}
}

func TestNewDependencies_InvalidRegexError(t *testing.T) {
	_, err := NewDependencies(testConfig(), []string{"["})

	var perr *highlight.PatternError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *PatternError", err)
	}
	if perr.Pattern != "[" {
		t.Errorf("PatternError.Pattern = %q, want %q", perr.Pattern, "[")
	}
}

func TestApplication_FilterReader(t *testing.T) {
	deps, err := NewDependencies(testConfig(), []string{"196=ERROR"})
	if err != nil {
		t.Fatalf("NewDependencies failed: %v", err)
	}
	app := NewApplication(deps)

	var out bytes.Buffer
	input := "ok\nan ERROR happened\n"
	if err := app.FilterReader(strings.NewReader(input), &out); err != nil {
		t.Fatalf("FilterReader failed: %v", err)
	}

	want := "ok\nan " + ansi.Code(ansi.Fg(196)) + "ERROR" + ansi.Reset() + " happened\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestApplication_FilterReader_NoColor(t *testing.T) {
	deps, err := NewDependencies(&config.Config{NoColor: true}, []string{"196=ERROR"})
	if err != nil {
		t.Fatalf("NewDependencies failed: %v", err)
	}
	app := NewApplication(deps)

	var out bytes.Buffer
	input := "an ERROR happened\n"
	if err := app.FilterReader(strings.NewReader(input), &out); err != nil {
		t.Fatalf("FilterReader failed: %v", err)
	}
	if got := out.String(); got != input {
		t.Errorf("output = %q, want passthrough %q", got, input)
	}
}
