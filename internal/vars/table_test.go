package vars

import "testing"

func TestNewFromEnvironSeedsExported(t *testing.T) {
	t.Setenv("RILL_TEST_VAR", "hello")
	tbl := NewFromEnviron()

	v, ok := tbl.Get("RILL_TEST_VAR")
	if !ok || v != "hello" {
		t.Fatalf("Get(RILL_TEST_VAR) = (%q, %v), want (hello, true)", v, ok)
	}
	if !tbl.Exported("RILL_TEST_VAR") {
		t.Fatal("inherited variable must start exported")
	}
}

func TestSetDoesNotExport(t *testing.T) {
	tbl := &Table{values: map[string]string{}, exported: map[string]bool{}}
	tbl.Set("FOO", "bar")

	if tbl.Exported("FOO") {
		t.Fatal("Set must not export")
	}
	for _, kv := range tbl.Environ() {
		if kv == "FOO=bar" {
			t.Fatal("Environ() included an unexported variable")
		}
	}
}

func TestExportAddsToEnviron(t *testing.T) {
	tbl := &Table{values: map[string]string{}, exported: map[string]bool{}}
	tbl.Set("FOO", "bar")
	tbl.Export("FOO")

	found := false
	for _, kv := range tbl.Environ() {
		if kv == "FOO=bar" {
			found = true
		}
	}
	if !found {
		t.Fatal("Environ() missing exported FOO=bar")
	}
}

func TestUnsetRemovesValueAndExport(t *testing.T) {
	tbl := &Table{values: map[string]string{}, exported: map[string]bool{}}
	tbl.Set("FOO", "bar")
	tbl.Export("FOO")
	tbl.Unset("FOO")

	if _, ok := tbl.Get("FOO"); ok {
		t.Fatal("Get(FOO) after Unset = ok, want not found")
	}
	if tbl.Exported("FOO") {
		t.Fatal("Exported(FOO) after Unset = true, want false")
	}
}

func TestExportOnUnsetVariableCreatesEmpty(t *testing.T) {
	tbl := &Table{values: map[string]string{}, exported: map[string]bool{}}
	tbl.Export("NEWVAR")

	v, ok := tbl.Get("NEWVAR")
	if !ok || v != "" {
		t.Fatalf("Get(NEWVAR) = (%q, %v), want (\"\", true)", v, ok)
	}
}
