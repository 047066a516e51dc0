package local_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Ishaangg/conference-agent/pkg/pipeline/io/local"
)

func TestReadColumnsCSV(t *testing.T) {
	t.Run("reads requested columns", func(t *testing.T) {
		in := "Email,First Name,other\nalice@example.com,Alice,x\nbob@corp.test,Bob,y\n"
		got, err := local.ReadColumnsCSV(strings.NewReader(in), "First Name", "Email")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 || got[0]["Email"] != "alice@example.com" || got[1]["First Name"] != "Bob" {
			t.Fatalf("unexpected rows: %#v", got)
		}
	})

	t.Run("header is case-insensitive", func(t *testing.T) {
		in := " email \nalice@example.com\n"
		got, err := local.ReadColumnsCSV(strings.NewReader(in), "Email")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0]["Email"] != "alice@example.com" {
			t.Fatalf("unexpected rows: %#v", got)
		}
	})

	t.Run("short rows yield empty values", func(t *testing.T) {
		in := "Email,Organization\nalice@example.com\n"
		got, err := local.ReadColumnsCSV(strings.NewReader(in), "Email", "Organization")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got[0]["Organization"] != "" {
			t.Fatalf("unexpected rows: %#v", got)
		}
	})

	t.Run("missing header column errors", func(t *testing.T) {
		in := "not_email\nx\n"
		_, err := local.ReadColumnsCSV(strings.NewReader(in), "Email")
		if err == nil || !strings.Contains(err.Error(), "Email") {
			t.Fatalf("expected missing column error, got %v", err)
		}
	})
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := local.WriteCSV(&buf, []string{"a", "b"}, [][]string{{"1", "x,y"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := buf.String(), "a,b\n1,\"x,y\"\n"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
