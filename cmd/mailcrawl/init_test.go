package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/mailcrawl/internal/config"
)

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()
	if cmd.Use != "init" {
		t.Errorf("expected use 'init', got %q", cmd.Use)
	}

	flag := cmd.Flags().Lookup("output")
	if flag == nil {
		t.Fatal("expected output flag")
	}
	if flag.Shorthand != "o" || flag.DefValue != config.DefaultConfigFile {
		t.Errorf("output flag = -%s default %q", flag.Shorthand, flag.DefValue)
	}
	if cmd.Flags().Lookup("force") == nil || cmd.Flags().Lookup("xdg") == nil {
		t.Error("expected force and xdg flags")
	}
}

func runInit(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewInitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", ".mailcrawl")
		output, err := runInit(t, "-o", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "Created configuration file") {
			t.Errorf("unexpected output %q", output)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}

		cf, err := config.LoadConfigFile(path)
		if err != nil {
			t.Fatalf("template does not parse: %v", err)
		}
		if cf.Defaults.Depth != 0 || len(cf.Sites) != 0 {
			t.Errorf("template must not set values, got %+v", cf)
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".mailcrawl")
		if err := os.WriteFile(path, []byte("existing"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := runInit(t, "-o", path); err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected an already-exists error, got %v", err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != "existing" {
			t.Error("existing file was modified")
		}
	})

	t.Run("overwrites with force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".mailcrawl")
		if err := os.WriteFile(path, []byte("existing"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := runInit(t, "-o", path, "-f"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), "mailcrawl configuration file") {
			t.Error("expected the template content")
		}
	})
}
