package errors

import (
	"fmt"
	"testing"
)

func TestDiagnosticFormatting(t *testing.T) {
	tests := []struct {
		name string
		want string
		d    Diagnostic
	}{
		{
			name: "message only",
			d:    Diagnostic{Code: "name-not-found", Message: "cannot find Foo"},
			want: "error [name-not-found] cannot find Foo",
		},
		{
			name: "with file",
			d:    Diagnostic{Code: "name-not-found", Message: "cannot find Foo", File: "a.fidl"},
			want: "a.fidl: error [name-not-found] cannot find Foo",
		},
		{
			name: "with position",
			d:    Diagnostic{Code: "name-not-found", Message: "cannot find Foo", File: "a.fidl", Line: 3, Column: 7},
			want: "a.fidl:3:7: error [name-not-found] cannot find Foo",
		},
		{
			name: "warning",
			d:    Diagnostic{Code: "attribute-typo", Severity: SeverityWarning, Message: "typo", File: "a.fidl", Line: 1},
			want: "a.fidl:1: warning [attribute-typo] typo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	d := New(ErrNameNotFound, "lib.fidl", 2, 4, "Foo")
	if d.Code != string(ErrNameNotFound.Code) {
		t.Fatalf("Code = %q, want %q", d.Code, ErrNameNotFound.Code)
	}
	if d.Message != "cannot find Foo" {
		t.Fatalf("Message = %q, want %q", d.Message, "cannot find Foo")
	}
	if d.Severity != SeverityError {
		t.Fatalf("Severity = %v, want error", d.Severity)
	}
	w := New(WarnAttributeTypo, "", 0, 0, "availble", "available")
	if w.Severity != SeverityWarning {
		t.Fatalf("Severity = %v, want warning", w.Severity)
	}
}

func TestDiagnosticListError(t *testing.T) {
	if got := (DiagnosticList{}).Error(); got != "no diagnostics" {
		t.Fatalf("empty Error() = %q", got)
	}
	list := DiagnosticList{
		{Code: "b", Message: "second", File: "b.fidl"},
		{Code: "a", Message: "first", File: "a.fidl"},
	}
	if got, want := list.Error(), "b.fidl: error [b] second (and 1 more)"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	sorted := list.Sorted()
	if sorted[0].File != "a.fidl" || list[0].File != "b.fidl" {
		t.Fatalf("Sorted() = %v, original = %v", sorted, list)
	}
}

func TestAsDiagnostics(t *testing.T) {
	list := DiagnosticList{New(ErrUnusedImport, "", 0, 0, "a", "b")}
	wrapped := fmt.Errorf("compile: %w", list)

	got, ok := AsDiagnostics(wrapped)
	if !ok || len(got) != 1 {
		t.Fatalf("AsDiagnostics() = %v, %v", got, ok)
	}
	if !HasCode(wrapped, ErrUnusedImport) {
		t.Fatalf("HasCode(ErrUnusedImport) = false")
	}
	if HasCode(wrapped, ErrNameNotFound) {
		t.Fatalf("HasCode(ErrNameNotFound) = true")
	}
	if _, ok := AsDiagnostics(fmt.Errorf("plain")); ok {
		t.Fatalf("AsDiagnostics(plain) ok = true")
	}
}
