package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/renderers/tui"
)

const signupDecl = "../../../testdata/signup.json"

// The command tree and its flags are package globals, so these tests run
// sequentially.
var executeMu sync.Mutex

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	executeMu.Lock()
	defer executeMu.Unlock()

	declFile, openAPI, component, inputFile, groupName, verbose = "", "", "", "", "", false
	checkFormat, checkTimeout = "text", 30*time.Second
	editOutput, editAttempts = "", tui.DefaultMaxAttempts

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeInput(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestCheck_Valid(t *testing.T) {
	input := writeInput(t, "signup.yaml", `account:
  email: ada@example.com
  age: 30
plan:
  seats: 3
  budget: "12"
terms: true
`)
	out, err := execute(t, "check", "--decl", signupDecl, "--input", input)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if out != "signup: valid\n" {
		t.Fatalf("unexpected report %q", out)
	}
}

func TestCheck_InvalidReportsErrors(t *testing.T) {
	input := writeInput(t, "signup.json", `{"account": {"email": "nobody", "age": 9}, "plan": {"seats": 3}}`)
	out, err := execute(t, "check", "--decl", signupDecl, "--input", input, "--format", "json")
	if !errors.Is(err, errInvalid) {
		t.Fatalf("expected errInvalid, got %v", err)
	}

	var report checkReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report %q: %v", out, err)
	}
	want := checkReport{
		Form:  "signup",
		Valid: false,
		Errors: map[string]string{
			"account.email": "Invalid format",
			"account.age":   "Must be at least 13",
			"plan.budget":   "Could not convert",
			"terms":         "Could not convert",
		},
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck_GroupOnly(t *testing.T) {
	input := writeInput(t, "signup.json", `{"account": {"email": "nobody", "age": 30}, "plan": {"seats": 3, "budget": "7.5"}}`)
	out, err := execute(t, "check", "--decl", signupDecl, "--input", input, "--group", "plan")
	if err != nil {
		t.Fatalf("plan group should be valid: %v\n%s", err, out)
	}

	_, err = execute(t, "check", "--decl", signupDecl, "--group", "billing")
	if err == nil || !strings.Contains(err.Error(), "billing") {
		t.Fatalf("expected unknown group error, got %v", err)
	}
}

func TestCheck_RequiresSource(t *testing.T) {
	if _, err := execute(t, "check"); err == nil {
		t.Fatalf("expected missing source error")
	}
	if _, err := execute(t, "check", "--openapi", "api.yaml"); err == nil || !strings.Contains(err.Error(), "--component") {
		t.Fatalf("expected missing component error, got %v", err)
	}
}

type answerDriver struct {
	answers map[string]string
	infos   []string
}

func (d *answerDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	if answer, ok := d.answers[cfg.Message]; ok {
		return answer, nil
	}
	return cfg.Default, nil
}

func (d *answerDriver) Confirm(context.Context, tui.ConfirmConfig) (bool, error) {
	return true, nil
}

func (d *answerDriver) TextArea(_ context.Context, cfg tui.TextAreaConfig) (string, error) {
	return cfg.Default, nil
}

func (d *answerDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func TestEdit_PrintsCommittedSnapshot(t *testing.T) {
	driver := &answerDriver{answers: map[string]string{
		"Email":       "ada@example.com",
		"account.age": "40",
		"plan.seats":  "2",
		"plan.budget": "12",
	}}
	previous := newDriver
	newDriver = func(io.Writer) tui.PromptDriver { return driver }
	t.Cleanup(func() { newDriver = previous })

	out, err := execute(t, "edit", "--decl", signupDecl)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	var snapshot map[string]any
	if err := json.Unmarshal([]byte(out), &snapshot); err != nil {
		t.Fatalf("decode snapshot %q: %v", out, err)
	}
	want := map[string]any{
		"account": map[string]any{"email": "ada@example.com", "age": 40.0},
		"plan":    map[string]any{"seats": 2.0, "budget": "12"},
		"terms":   true,
	}
	if diff := cmp.Diff(want, snapshot); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if len(driver.infos) != 5 {
		t.Fatalf("expected one summary line per field, got %q", driver.infos)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "formstate-cli v"+Version) {
		t.Fatalf("unexpected version output %q", out)
	}
}
