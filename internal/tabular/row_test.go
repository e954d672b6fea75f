package tabular

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRow_SetKeepsOrder(t *testing.T) {
	var r Row
	r.Set("b", "1")
	r.Set("a", "2")
	r.Set("b", "3")

	if got := strings.Join(r.Keys(), ","); got != "b,a" {
		t.Errorf("Keys() = %s, want b,a", got)
	}
	if r.Value("b") != "3" {
		t.Errorf("Value(b) = %q, want 3", r.Value("b"))
	}
}

func TestRow_Delete(t *testing.T) {
	r := NewRow("a", "1", "b", "2", "c", "3")
	r.Delete("b")
	r.Delete("missing")

	if got := strings.Join(r.Keys(), ","); got != "a,c" {
		t.Errorf("Keys() = %s, want a,c", got)
	}
	if r.Has("b") {
		t.Error("b still present")
	}
}

func TestRow_OverlayAndProject(t *testing.T) {
	base := BlankRow([]string{"x", "y"})
	base.Overlay(NewRow("y", "2", "z", "3"))

	if got := strings.Join(base.Keys(), ","); got != "x,y,z" {
		t.Errorf("Keys() after Overlay = %s, want x,y,z", got)
	}

	p := base.Project([]string{"z", "x", "w"})
	if got := strings.Join(p.Keys(), ","); got != "z,x,w" {
		t.Errorf("Project keys = %s, want z,x,w", got)
	}
	if p.Value("z") != "3" || p.Value("w") != "" {
		t.Errorf("Project values = %v", p.Values([]string{"z", "x", "w"}))
	}
}

func TestRow_CloneIsIndependent(t *testing.T) {
	r := NewRow("a", "1")
	c := r.Clone()
	c.Set("a", "2")
	c.Set("b", "3")

	if r.Value("a") != "1" || r.Has("b") {
		t.Errorf("original mutated: %v", r.Keys())
	}
}

func TestRow_JSON(t *testing.T) {
	input := `{"vendor_code":"abc","min_order":15000,"is_pro":true,"note":null,"tags":["a", "b"]}`

	var r Row
	if err := json.Unmarshal([]byte(input), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got := strings.Join(r.Keys(), ","); got != "vendor_code,min_order,is_pro,note,tags" {
		t.Errorf("Keys() = %s", got)
	}

	want := map[string]string{
		"vendor_code": "abc",
		"min_order":   "15000",
		"is_pro":      "True",
		"note":        "",
		"tags":        `["a","b"]`,
	}
	for k, v := range want {
		if r.Value(k) != v {
			t.Errorf("Value(%s) = %q, want %q", k, r.Value(k), v)
		}
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.HasPrefix(string(out), `{"vendor_code":"abc","min_order":"15000"`) {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestRow_UnmarshalRejectsArray(t *testing.T) {
	var r Row
	if err := json.Unmarshal([]byte(`[1,2]`), &r); err == nil {
		t.Error("expected error for array input")
	}
}
