package wire

import (
	"fmt"
	"regexp"
	"strings"
)

// Target selects the monitor flavour, which determines its prompt.
type Target int

const (
	// TargetNone strips any known prompt.
	TargetNone Target = iota
	// TargetVxWorks uses the "-> " shell prompt.
	TargetVxWorks
	// TargetIntegrity uses the "DEBUG> " prompt.
	TargetIntegrity
)

var knownPrompts = []string{"DEBUG>", "->"}

// String returns the flag spelling of the target.
func (t Target) String() string {
	switch t {
	case TargetNone:
		return "none"
	case TargetVxWorks:
		return "vxworks"
	case TargetIntegrity:
		return "integrity"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// DisplayName returns the name the monitor announces itself with.
func (t Target) DisplayName() string {
	switch t {
	case TargetVxWorks:
		return "VxWorks"
	case TargetIntegrity:
		return "Integrity"
	default:
		return "kernel monitor"
	}
}

// Prompt returns the prompt the target prints before reading a command.
func (t Target) Prompt() string {
	switch t {
	case TargetVxWorks:
		return "-> "
	case TargetIntegrity:
		return "DEBUG> "
	default:
		return ""
	}
}

// Valid reports whether t is a known target.
func (t Target) Valid() bool {
	return t >= TargetNone && t <= TargetIntegrity
}

// ParseTarget parses "none", "vxworks" or "integrity".
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return TargetNone, nil
	case "vxworks":
		return TargetVxWorks, nil
	case "integrity":
		return TargetIntegrity, nil
	default:
		return 0, fmt.Errorf("unknown target %q", s)
	}
}

// timestampPrefix matches console logger stamps such as "[20220204T044316] ".
var timestampPrefix = regexp.MustCompile(`^\[\d{8}T\d{6}\]\s*`)

// Normalizer cleans a split line before echo comparison and parsing.
type Normalizer struct {
	prompts []string
}

// NewNormalizer creates a Normalizer that strips the prompt of target, or
// every known prompt for TargetNone.
func NewNormalizer(target Target) *Normalizer {
	if p := strings.TrimSpace(target.Prompt()); p != "" {
		return &Normalizer{prompts: []string{p}}
	}

	return &Normalizer{prompts: knownPrompts}
}

// Normalize removes stray carriage returns, surrounding whitespace, a
// leading timestamp and any leading prompts.
func (n *Normalizer) Normalize(line string) string {
	line = strings.TrimSpace(strings.ReplaceAll(line, "\r", ""))
	line = timestampPrefix.ReplaceAllString(line, "")

	for {
		stripped := false

		for _, p := range n.prompts {
			if rest, ok := strings.CutPrefix(line, p); ok {
				line = strings.TrimLeft(rest, " \t")
				stripped = true
			}
		}

		if !stripped {
			return line
		}
	}
}
