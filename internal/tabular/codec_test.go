package tabular

import (
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantHeaders []string
		wantRows    int
		wantErr     bool
	}{
		{
			name:        "header and two rows",
			input:       "a,b\n1,2\n3,4\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    2,
		},
		{
			name:        "strips BOM",
			input:       "\uFEFFa,b\r\n1,2\r\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    1,
		},
		{
			name:        "skips blank lines",
			input:       "a,b\n\n1,2\n\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    1,
		},
		{
			name:        "header only",
			input:       "a,b\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    0,
		},
		{
			name:     "empty input",
			input:    "",
			wantRows: 0,
		},
		{
			name:    "too many fields",
			input:   "a,b\n1,2,3\n",
			wantErr: true,
		},
		{
			name:    "bare quote",
			input:   "a,b\n1,x\"y\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Errorf("error %v is not a *ParseError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if strings.Join(table.Headers, "|") != strings.Join(tt.wantHeaders, "|") {
				t.Errorf("Headers = %v, want %v", table.Headers, tt.wantHeaders)
			}
			if len(table.Rows) != tt.wantRows {
				t.Errorf("len(Rows) = %d, want %d", len(table.Rows), tt.wantRows)
			}
		})
	}
}

func TestParse_FieldCountLine(t *testing.T) {
	_, err := Parse("a,b\n1,2\n3\n")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Line != 3 {
		t.Errorf("Line = %d, want 3", pe.Line)
	}
	if !errors.Is(err, ErrFieldCount) {
		t.Errorf("expected ErrFieldCount in chain, got %v", err)
	}
}

func TestParse_QuotedCells(t *testing.T) {
	input := "id,toppings\n7,\"[{\"\"id\"\":5}]\"\n"
	table, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := table.Rows[0].Value("toppings"); got != `[{"id":5}]` {
		t.Errorf("toppings = %q", got)
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	table, err := Parse("name\nab\xffc\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := table.Rows[0].Value("name"); got != "ab\uFFFDc" {
		t.Errorf("name = %q, want replacement character", got)
	}
}

func TestWrite(t *testing.T) {
	rows := []Row{
		NewRow("b", "2", "a", `say "hi"`),
		NewRow("a", "x", "extra", "dropped"),
	}

	var sb strings.Builder
	if err := Write(&sb, []string{"a", "b"}, rows, WriteOptions{BOM: true}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := "\uFEFF" + `"a","b"` + "\r\n" + `"say ""hi""","2"` + "\r\n" + `"x",""`
	if sb.String() != want {
		t.Errorf("Write() =\n%q\nwant\n%q", sb.String(), want)
	}
}

func TestWrite_NoHeaders(t *testing.T) {
	var sb strings.Builder
	if err := Write(&sb, nil, nil, WriteOptions{}); err == nil {
		t.Error("expected error for missing headers")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_PropagatesWriterError(t *testing.T) {
	err := Write(failingWriter{}, []string{"a"}, []Row{NewRow("a", "1")}, WriteOptions{})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Write() error = %v, want disk full", err)
	}
}

func TestParseWrite_RoundTrip(t *testing.T) {
	input := `"vendor_code","item_title","price"` + "\r\n" + `"v1","Pizza, large","120000"`
	table, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var sb strings.Builder
	if err := Write(&sb, table.Headers, table.Rows, WriteOptions{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if sb.String() != input {
		t.Errorf("round trip =\n%q\nwant\n%q", sb.String(), input)
	}
}
