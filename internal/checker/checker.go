// Package checker delegates playbook validation to the external
// ansible-playbook program and turns its stderr output into positioned
// diagnostics suitable for an LSP client. The target file is never parsed
// here; all understanding of playbook syntax lives in the external tool.
package checker

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/ansible-tools/ansible-ls/internal/runner"
)

const (
	// DefaultMaxProblems is used when the client supplies no limit,
	// or supplies zero or a negative value.
	DefaultMaxProblems = 100

	// DefaultCommand is the external syntax checker executable.
	DefaultCommand = "ansible-playbook"

	// fileScheme is the only URI scheme that triggers validation.
	fileScheme = "file://"
)

// Document is a tracked open document. Content is owned by the editor;
// the checker only keeps the latest full text so a configuration change
// can revalidate everything that is open.
type Document struct {
	// URI is the document identifier
	URI string

	// Content is the full document text as of the latest change
	Content string

	// Version tracks document changes (supplied by the editor)
	Version int
}

// PublishFunc delivers a finished run's diagnostics for a document URI.
type PublishFunc func(uri string, diagnostics []Diagnostic)

// Validator coordinates syntax-check runs. It owns the tracked-document
// store, the maximum-problems setting, and the diagnostics of the most
// recently completed run.
//
// Thread-safety: state is mutex-guarded because process-exit callbacks
// arrive on their own goroutines. A new validation does not cancel a
// prior in-flight run; whichever run finishes last overwrites the
// stored diagnostics.
type Validator struct {
	runner  runner.Runner
	command string
	publish PublishFunc
	logger  *log.Logger

	mu          sync.RWMutex
	documents   map[string]*Document
	maxProblems int
	diagnostics []Diagnostic
}

// NewValidator creates a validator that runs command through r and hands
// each completed run's diagnostics to publish. An empty command selects
// DefaultCommand.
func NewValidator(r runner.Runner, command string, publish PublishFunc, logger *log.Logger) *Validator {
	if command == "" {
		command = DefaultCommand
	}
	return &Validator{
		runner:      r,
		command:     command,
		publish:     publish,
		logger:      logger,
		documents:   make(map[string]*Document),
		maxProblems: DefaultMaxProblems,
	}
}

// OpenDocument starts tracking a document.
func (v *Validator) OpenDocument(uri, content string, version int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.documents[uri] = &Document{URI: uri, Content: content, Version: version}
}

// UpdateDocument replaces the tracked content for a document. Documents
// the editor never opened are tracked from their first change.
func (v *Validator) UpdateDocument(uri, content string, version int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.documents[uri] = &Document{URI: uri, Content: content, Version: version}
}

// CloseDocument stops tracking a document.
func (v *Validator) CloseDocument(uri string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.documents, uri)
}

// TrackedURIs returns the URIs of all currently tracked documents.
func (v *Validator) TrackedURIs() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	uris := make([]string, 0, len(v.documents))
	for uri := range v.documents {
		uris = append(uris, uri)
	}
	return uris
}

// SetMaxProblems replaces the maximum-problems setting. Zero and negative
// values fall back to DefaultMaxProblems, so a client that omits the
// setting (or nulls it) gets the default. A client that genuinely wants
// zero problems reported cannot express that under this policy.
func (v *Validator) SetMaxProblems(n int) {
	if n <= 0 {
		n = DefaultMaxProblems
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.maxProblems = n
}

// MaxProblems returns the current maximum-problems setting.
func (v *Validator) MaxProblems() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.maxProblems
}

// Diagnostics returns a copy of the diagnostics of the most recently
// completed run. Mutating the returned slice does not affect the
// validator's stored run.
func (v *Validator) Diagnostics() []Diagnostic {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Diagnostic, len(v.diagnostics))
	copy(out, v.diagnostics)
	return out
}

// Validate runs the external checker against the document behind uri and
// publishes the classified diagnostics once the process exits. Documents
// whose URI does not use the file scheme are skipped entirely: no process
// is spawned and nothing is published.
//
// The checker is invoked in syntax-check-only mode against a throwaway
// localhost inventory, so nothing is ever executed on a real host:
//
//	ansible-playbook -i "localhost," -c local --syntax-check <path>
//
// The exit code is deliberately ignored; a failing or missing checker is
// classified exactly like a successful run, and any recognizable stderr
// lines still become diagnostics.
func (v *Validator) Validate(ctx context.Context, uri string) {
	if !strings.HasPrefix(uri, fileScheme) {
		return
	}
	path := uri[len(fileScheme):]

	args := []string{"-i", `"localhost,"`, "-c", "local", "--syntax-check", path}

	v.runner.Run(ctx, v.command, args, func(res runner.ExecResult) {
		v.mu.Lock()
		diags := Classify(res.Stderr, v.maxProblems)
		v.diagnostics = diags
		v.mu.Unlock()

		if v.logger != nil {
			v.logger.Printf("Checked %s: exit %d, %d diagnostic(s)", path, res.ExitCode, len(diags))
		}
		if v.publish != nil {
			v.publish(uri, diags)
		}
	})
}
