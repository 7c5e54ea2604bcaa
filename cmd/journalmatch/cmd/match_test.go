package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"journal-ledger-matcher/pkg/errors"
	"journal-ledger-matcher/pkg/logger"
)

func TestValidateConfirmFlags(t *testing.T) {
	tests := []struct {
		name        string
		answer      string
		format      string
		expectError bool
	}{
		{"yes", "yes", "console", false},
		{"short yes", "y", "json", false},
		{"no", "no", "console", false},
		{"short no", "n", "console", false},
		{"uppercase", "YES", "console", false},
		{"maybe", "maybe", "console", true},
		{"empty", "", "console", true},
		{"bad format", "yes", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer = tt.answer
			confirmFormat = tt.format

			err := validateConfirmFlags(confirmCmd, nil)
			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRenderToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	err := renderTo(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "{}")
		return err
	})
	if err != nil {
		t.Fatalf("renderTo() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("output = %q, want {}", data)
	}
}

func TestRenderToBadPath(t *testing.T) {
	err := renderTo("/nonexistent/dir/out.json", func(w io.Writer) error { return nil })
	if err == nil {
		t.Fatal("expected an error for an unwritable path")
	}
}

func TestErrorHandlerExitCodes(t *testing.T) {
	handler := &CLIErrorHandler{logger: logger.Nop()}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, 0},
		{"file error", errors.FileError(errors.CodeFileNotFound, "x.json", nil), 2},
		{"parse error", errors.ParseError(errors.CodeInvalidFormat, "ledger", "bad", nil), 3},
		{"config error", errors.ConfigurationError(errors.CodeInvalidConfig, "preset", "x", nil), 4},
		{"oracle error", errors.OracleError(errors.CodeOracleTimeout, "api", nil), 6},
		{"plain error", io.ErrUnexpectedEOF, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handler.HandleError(tt.err); got != tt.want {
				t.Errorf("HandleError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidateMatchFlagsMissingRequest(t *testing.T) {
	requestFile = ""
	outputFormat = "console"

	err := validateMatchFlags(matchCmd, nil)
	if err == nil {
		t.Fatal("expected an error without a request file")
	}
	if !strings.Contains(err.Error(), "request") {
		t.Errorf("error should name the missing flag: %v", err)
	}
}
