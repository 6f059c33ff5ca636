package checker

import (
	"math"
	"strings"
)

const (
	warningPrefix = "[WARNING] "
	errorPrefix   = "ERROR! "

	// Source tags every diagnostic this adapter publishes.
	Source = "ex"

	// maxCharacter pins a diagnostic past the end of any real line.
	maxCharacter = math.MaxUint32
)

// Position is a zero-based position in a document. Fields are uint32 to
// match the LSP wire representation.
type Position struct {
	Line      uint32
	Character uint32
}

// Range is a range in a document.
type Range struct {
	Start Position
	End   Position
}

// DiagnosticSeverity indicates the severity of a diagnostic.
type DiagnosticSeverity int

const (
	// SeverityError represents an error diagnostic
	SeverityError DiagnosticSeverity = iota
	// SeverityWarning represents a warning diagnostic
	SeverityWarning
)

// Diagnostic is a positioned, severity-tagged message for the editor.
type Diagnostic struct {
	Range    Range
	Severity DiagnosticSeverity
	Message  string
	Source   string
}

// Classify scans the checker's stderr text line by line and emits a
// diagnostic for every line carrying one of the two recognized prefixes,
// up to maxProblems diagnostics. Lines matching neither prefix are
// skipped without consuming the budget.
//
// Positioning is crude on purpose: each diagnostic's range collapses to a
// single point at the index of the line in the stderr text, with the
// character pinned to the maximum value. The line index refers to the
// checker's own output, not to a location in the validated playbook;
// ansible-playbook does not report machine-readable positions, so none
// are invented here.
func Classify(stderrText string, maxProblems int) []Diagnostic {
	if maxProblems < 0 {
		maxProblems = 0
	}
	lines := strings.Split(stderrText, "\n")

	// The cap is client-controlled; size the allocation by the input,
	// not by whatever limit the client asked for.
	capacity := maxProblems
	if len(lines) < capacity {
		capacity = len(lines)
	}
	diagnostics := make([]Diagnostic, 0, capacity)
	for i, raw := range lines {
		if len(diagnostics) >= maxProblems {
			break
		}

		// TrimSpace also strips the \r left behind by CRLF endings.
		line := strings.TrimSpace(raw)

		var severity DiagnosticSeverity
		var message string
		switch {
		case strings.HasPrefix(line, warningPrefix):
			severity = SeverityWarning
			message = line[len(warningPrefix):]
		case strings.HasPrefix(line, errorPrefix):
			severity = SeverityError
			message = line[len(errorPrefix):]
		default:
			continue
		}

		point := Position{Line: uint32(i), Character: maxCharacter}
		diagnostics = append(diagnostics, Diagnostic{
			Range:    Range{Start: point, End: point},
			Severity: severity,
			Message:  message,
			Source:   Source,
		})
	}

	return diagnostics
}
