package checker

import (
	"context"
	"testing"

	"github.com/ansible-tools/ansible-ls/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records invocations and invokes the callback synchronously
// with a canned result, so validator behavior is deterministic without
// spawning processes.
type fakeRunner struct {
	commands [][]string
	result   runner.ExecResult
}

func (f *fakeRunner) Run(ctx context.Context, command string, args []string, cb runner.Callback) {
	f.commands = append(f.commands, append([]string{command}, args...))
	cb(f.result)
}

type published struct {
	uri   string
	diags []Diagnostic
}

func newTestValidator(r runner.Runner, out *[]published) *Validator {
	return NewValidator(r, "", func(uri string, diags []Diagnostic) {
		*out = append(*out, published{uri: uri, diags: diags})
	}, nil)
}

func TestValidateSkipsNonFileURIs(t *testing.T) {
	uris := []string{
		"untitled:Untitled-1",
		"https://example.com/play.yml",
		"",
		"file:/tmp/missing-slashes.yml",
	}

	for _, uri := range uris {
		t.Run(uri, func(t *testing.T) {
			fake := &fakeRunner{}
			var runs []published
			v := newTestValidator(fake, &runs)

			v.Validate(context.Background(), uri)

			assert.Empty(t, fake.commands, "no process should be spawned")
			assert.Empty(t, runs, "nothing should be published")
		})
	}
}

func TestValidateBuildsCheckerInvocation(t *testing.T) {
	fake := &fakeRunner{}
	var runs []published
	v := newTestValidator(fake, &runs)

	v.Validate(context.Background(), "file:///tmp/play.yml")

	require.Len(t, fake.commands, 1)
	assert.Equal(t, []string{
		"ansible-playbook",
		"-i", `"localhost,"`,
		"-c", "local",
		"--syntax-check", "/tmp/play.yml",
	}, fake.commands[0])
}

func TestValidateHonorsCustomCommand(t *testing.T) {
	fake := &fakeRunner{}
	v := NewValidator(fake, "/opt/ansible/bin/ansible-playbook", nil, nil)

	v.Validate(context.Background(), "file:///tmp/play.yml")

	require.Len(t, fake.commands, 1)
	assert.Equal(t, "/opt/ansible/bin/ansible-playbook", fake.commands[0][0])
}

func TestValidatePublishesClassifiedRun(t *testing.T) {
	fake := &fakeRunner{result: runner.ExecResult{
		Stderr:   "[WARNING] deprecated module\nERROR! bad module name\n",
		ExitCode: 4,
	}}
	var runs []published
	v := newTestValidator(fake, &runs)

	v.Validate(context.Background(), "file:///tmp/play.yml")

	require.Len(t, runs, 1)
	assert.Equal(t, "file:///tmp/play.yml", runs[0].uri)
	require.Len(t, runs[0].diags, 2)
	assert.Equal(t, SeverityWarning, runs[0].diags[0].Severity)
	assert.Equal(t, "deprecated module", runs[0].diags[0].Message)
	assert.Equal(t, SeverityError, runs[0].diags[1].Severity)
	assert.Equal(t, "bad module name", runs[0].diags[1].Message)

	// The stored run matches what was published, exit code regardless.
	assert.Equal(t, runs[0].diags, v.Diagnostics())
}

func TestValidateRespectsMaxProblems(t *testing.T) {
	fake := &fakeRunner{result: runner.ExecResult{
		Stderr: "ERROR! one\nERROR! two\nERROR! three\n",
	}}
	var runs []published
	v := newTestValidator(fake, &runs)
	v.SetMaxProblems(2)

	v.Validate(context.Background(), "file:///tmp/play.yml")

	require.Len(t, runs, 1)
	assert.Len(t, runs[0].diags, 2)
}

func TestValidateReplacesPreviousRun(t *testing.T) {
	fake := &fakeRunner{result: runner.ExecResult{Stderr: "ERROR! first run\n"}}
	var runs []published
	v := newTestValidator(fake, &runs)

	v.Validate(context.Background(), "file:///tmp/play.yml")

	fake.result = runner.ExecResult{Stderr: ""}
	v.Validate(context.Background(), "file:///tmp/play.yml")

	require.Len(t, runs, 2)
	assert.Len(t, runs[0].diags, 1)
	assert.Empty(t, runs[1].diags, "a clean run replaces, not merges, the previous diagnostics")
	assert.Empty(t, v.Diagnostics())
}

func TestDiagnosticsReturnsACopy(t *testing.T) {
	fake := &fakeRunner{result: runner.ExecResult{Stderr: "ERROR! original\n"}}
	v := NewValidator(fake, "", nil, nil)

	v.Validate(context.Background(), "file:///tmp/play.yml")

	got := v.Diagnostics()
	require.Len(t, got, 1)
	got[0].Message = "mutated"

	assert.Equal(t, "original", v.Diagnostics()[0].Message)
}

func TestSetMaxProblemsFallback(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{name: "explicit value", input: 3, want: 3},
		{name: "zero falls back to default", input: 0, want: DefaultMaxProblems},
		{name: "negative falls back to default", input: -7, want: DefaultMaxProblems},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(&fakeRunner{}, "", nil, nil)
			v.SetMaxProblems(tt.input)
			assert.Equal(t, tt.want, v.MaxProblems())
		})
	}
}

func TestDocumentTracking(t *testing.T) {
	v := NewValidator(&fakeRunner{}, "", nil, nil)

	v.OpenDocument("file:///tmp/a.yml", "- hosts: all", 1)
	v.OpenDocument("file:///tmp/b.yml", "- hosts: web", 1)
	v.UpdateDocument("file:///tmp/a.yml", "- hosts: db", 2)

	uris := v.TrackedURIs()
	assert.ElementsMatch(t, []string{"file:///tmp/a.yml", "file:///tmp/b.yml"}, uris)

	v.CloseDocument("file:///tmp/a.yml")
	assert.Equal(t, []string{"file:///tmp/b.yml"}, v.TrackedURIs())
}
