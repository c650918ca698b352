package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const fixturePattern = `
id: PAT:UI:BUTTON
type: CODEBASE
title: Button component conventions
paths:
  - "src/ui/**"
usage:
  successes: 10
  failures: 0
`

func TestLookupCommandPrintsRankedResultAndMetrics(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "button.yaml"), []byte(fixturePattern), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{
		"lookup",
		"--patterns", dir,
		"--task", "button component",
		"--paths", "src/ui/Button.tsx",
		"--k", "5",
	})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte("PAT:UI:BUTTON")) {
		t.Fatalf("expected output to mention the matched pattern, got:\n%s", out)
	}
	if !bytes.Contains(buf.Bytes(), []byte("RequestsTotal")) {
		t.Fatalf("expected a metrics snapshot in the output, got:\n%s", out)
	}
}
