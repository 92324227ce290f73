package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionInfo(t *testing.T) {
	t.Parallel()

	if getVersion() == "" {
		t.Error("getVersion() returned empty string")
	}
	if getCommit() == "" {
		t.Error("getCommit() returned empty string")
	}
	if getDate() == "" {
		t.Error("getDate() returned empty string")
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := out.String()
	for _, want := range []string{"mailcrawl version", "commit:", "built:", "go:"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got %q", want, output)
		}
	}
}

func TestVersionCmdShort(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := out.String(), getVersion()+"\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
