package errors

import (
	"strings"
	"testing"
)

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "E100",
			wantMsg: "Invalid rebind.json",
			wantCat: CategoryConfig,
		},
		{
			name:    "scenario error",
			code:    "E121",
			wantMsg: "Invalid scenario",
			wantCat: CategoryScenario,
		},
		{
			name:    "feed error",
			code:    "E140",
			wantMsg: "Feed connection failed",
			wantCat: CategoryFeed,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "channel %q not found", "price")
	if err.Message != `channel "price" not found` {
		t.Errorf("Message = %q, want %q", err.Message, `channel "price" not found`)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestRebindError_Error(t *testing.T) {
	err := New("E100")
	got := err.Error()
	want := "E100: Invalid rebind.json"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	// Without code
	err2 := &RebindError{Message: "test error"}
	if err2.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", err2.Error(), "test error")
	}
}

func TestRebindError_Builders(t *testing.T) {
	err := New("E100").
		WithDetail("Custom detail").
		WithSuggestion("Check the JSON syntax").
		WithExample(`{"serve": {"port": 8080}}`)

	if err.Detail != "Custom detail" {
		t.Errorf("Detail = %q, want %q", err.Detail, "Custom detail")
	}
	if err.Suggestion != "Check the JSON syntax" {
		t.Errorf("Suggestion = %q, want %q", err.Suggestion, "Check the JSON syntax")
	}
	if err.Example != `{"serve": {"port": 8080}}` {
		t.Errorf("Example = %q", err.Example)
	}
}

func TestRebindError_Wrap(t *testing.T) {
	inner := New("E103")
	outer := New("E100").Wrap(inner)

	if outer.Wrapped != inner {
		t.Error("Wrapped error mismatch")
	}
	if outer.Unwrap() != inner {
		t.Error("Unwrap() should return wrapped error")
	}
}

func TestFromError(t *testing.T) {
	// nil error
	if FromError(nil, "E100") != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	// Already a RebindError
	re := New("E100")
	if FromError(re, "E103") != re {
		t.Error("FromError should return RebindError as-is")
	}

	// Standard error
	stdErr := &testError{msg: "boom"}
	result := FromError(stdErr, "E100")
	if result.Wrapped != stdErr {
		t.Error("Standard error should be wrapped")
	}
	if result.Code != "E100" {
		t.Errorf("Code = %q, want E100", result.Code)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E101").
		WithDetail("No rebind.json found in /tmp/project").
		WithSuggestion("Create rebind.json or pass --config").
		WithExample(`{"serve": {"port": 8080}}`)

	formatted := err.Format()

	if !strings.Contains(formatted, "E101") {
		t.Error("Format should contain error code")
	}
	if !strings.Contains(formatted, "Configuration file not found") {
		t.Error("Format should contain error message")
	}
	if !strings.Contains(formatted, "/tmp/project") {
		t.Error("Format should contain detail")
	}
	if !strings.Contains(formatted, "Hint:") {
		t.Error("Format should contain hint")
	}
	if !strings.Contains(formatted, "Example:") {
		t.Error("Format should contain example")
	}
	if !strings.Contains(formatted, "Learn more:") {
		t.Error("Format should contain doc URL")
	}
}

func TestFormatShowsCause(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E140").Wrap(&testError{msg: "connection refused"})
	formatted := err.Format()

	if !strings.Contains(formatted, "Cause: connection refused") {
		t.Errorf("Format should contain the wrapped cause, got %q", formatted)
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E100")
	if got := err.FormatCompact(); got != "E100: Invalid rebind.json" {
		t.Errorf("FormatCompact() = %q", got)
	}

	wrapped := New("E100").Wrap(&testError{msg: "unexpected end of JSON input"})
	want := "E100: Invalid rebind.json: unexpected end of JSON input"
	if got := wrapped.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E100").WithSuggestion("Check the JSON syntax")
	json := err.FormatJSON()

	if !strings.Contains(json, `"code":"E100"`) {
		t.Error("JSON should contain code")
	}
	if !strings.Contains(json, `"category":"config"`) {
		t.Error("JSON should contain category")
	}
	if !strings.Contains(json, `"message":"Invalid rebind.json"`) {
		t.Error("JSON should contain message")
	}
	if !strings.Contains(json, `"suggestion":"Check the JSON syntax"`) {
		t.Error("JSON should contain suggestion")
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Error("GetAllCodes() should return codes")
	}

	found := false
	for _, code := range codes {
		if code == "E100" {
			found = true
			break
		}
	}
	if !found {
		t.Error("E100 should be in the codes list")
	}
}

func TestGetTemplate(t *testing.T) {
	template, ok := GetTemplate("E100")
	if !ok {
		t.Error("E100 should exist")
	}
	if template.Message != "Invalid rebind.json" {
		t.Error("Template message mismatch")
	}

	_, ok = GetTemplate("E999")
	if ok {
		t.Error("E999 should not exist")
	}
}

func TestRegister(t *testing.T) {
	Register("E999", ErrorTemplate{
		Category: CategoryRuntime,
		Message:  "Custom test error",
		Detail:   "This is a test error",
		DocURL:   "https://rebind.dev/docs/errors/E999",
	})

	err := New("E999")
	if err.Message != "Custom test error" {
		t.Errorf("Message = %q, want %q", err.Message, "Custom test error")
	}

	// Cleanup
	delete(registry, "E999")
}

func TestWrapText(t *testing.T) {
	// Short text that doesn't need wrapping
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	// Text that needs wrapping
	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	// Empty string returns empty/nil
	got = wrapText("", 10)
	if len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestColorFunctions(t *testing.T) {
	// With colors enabled
	EnableColors()
	if !strings.Contains(red("test"), "\033[31m") {
		t.Error("red should contain ANSI code when colors enabled")
	}

	// With colors disabled
	DisableColors()
	if strings.Contains(red("test"), "\033[") {
		t.Error("red should not contain ANSI code when colors disabled")
	}
	EnableColors()
}
