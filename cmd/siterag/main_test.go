package main

import (
	"context"
	"strings"
	"testing"
)

func execute(args ...string) error {
	return Execute(context.Background(), "1.0.0", "abc123", "siterag", args)
}

func TestExecute_Version(t *testing.T) {
	if err := execute("--version"); err != nil {
		t.Errorf("Expected no error for --version, got: %v", err)
	}
}

func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"scrape", "--help"}, {"status", "--help"}, {"serve", "--help"}} {
		if err := execute(args...); err != nil {
			t.Errorf("Expected no error for %v, got: %v", args, err)
		}
	}
}

func TestExecute_InvalidFlag(t *testing.T) {
	if err := execute("scrape", "--invalid-flag"); err == nil {
		t.Error("Expected error for invalid flag")
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	if err := execute("crawl"); err == nil {
		t.Error("Expected error for unknown command")
	}
}

func TestExecute_StatusRequiresProcessID(t *testing.T) {
	if err := execute("status"); err == nil {
		t.Error("Expected error for missing process ID")
	}
}

func TestExecute_InvalidTransport(t *testing.T) {
	err := execute("serve", "--transport", "invalid", "--output-dir", t.TempDir())
	if err == nil {
		t.Fatal("Expected error for invalid transport")
	}
	if !strings.Contains(err.Error(), "transport") {
		t.Errorf("Expected error about transport, got: %v", err)
	}
}

func TestExecute_InvalidMaxPages(t *testing.T) {
	err := execute("scrape", "--max-pages", "0", "--output-dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("Expected invalid configuration error, got: %v", err)
	}
}

func TestExecute_IngestWithoutAPIKey(t *testing.T) {
	t.Setenv("SITERAG_GROUNDX_API_KEY", "")
	t.Setenv("GROUNDX_API_KEY", "")

	err := execute("ingest", "--bucket-id", "7")
	if err == nil || !strings.Contains(err.Error(), "GROUNDX_API_KEY not set") {
		t.Errorf("Expected missing API key error, got: %v", err)
	}
}

func TestRunMain_Success(t *testing.T) {
	exitCode := -1
	mockExit := func(code int) {
		exitCode = code
	}

	// --help should succeed
	runMain([]string{"siterag", "--help"}, mockExit)

	if exitCode != -1 {
		t.Errorf("Expected no exit call for --help, got exit code: %d", exitCode)
	}
}

func TestRunMain_Failure(t *testing.T) {
	exitCode := -1
	mockExit := func(code int) {
		exitCode = code
	}

	runMain([]string{"siterag", "--invalid"}, mockExit)

	if exitCode != 1 {
		t.Errorf("Expected exit code 1 for invalid flag, got: %d", exitCode)
	}
}
