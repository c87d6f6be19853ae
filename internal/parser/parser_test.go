package parser

import "testing"

type fakeVars map[string]string

func (f fakeVars) Get(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

func TestParseSimpleCommand(t *testing.T) {
	p, err := Parse("echo hello world", nil)
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if len(p.Commands) != 1 {
		t.Fatalf("len(Commands) = %d, want 1", len(p.Commands))
	}
	want := []string{"echo", "hello", "world"}
	got := p.Commands[0].Argv
	if len(got) != len(want) {
		t.Fatalf("Argv = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Argv = %v, want %v", got, want)
		}
	}
	if p.Background {
		t.Fatal("Background = true, want false")
	}
}

func TestParseEmptyLine(t *testing.T) {
	p, err := Parse("   ", nil)
	if err != nil || p != nil {
		t.Fatalf("Parse(empty) = (%v, %v), want (nil, nil)", p, err)
	}
}

func TestParseBackgroundOperator(t *testing.T) {
	p, err := Parse("sleep 10 &", nil)
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if !p.Background {
		t.Fatal("Background = false, want true")
	}
	if len(p.Commands[0].Argv) != 2 {
		t.Fatalf("Argv = %v, want [sleep 10]", p.Commands[0].Argv)
	}
}

func TestParsePipeline(t *testing.T) {
	p, err := Parse("ls | wc -l", nil)
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if len(p.Commands) != 2 {
		t.Fatalf("len(Commands) = %d, want 2", len(p.Commands))
	}
}

func TestParseRedirection(t *testing.T) {
	p, err := Parse("cat < in.txt > out.txt", nil)
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	cmd := p.Commands[0]
	if cmd.RedirectIn != "in.txt" || cmd.RedirectOut != "out.txt" || cmd.Append {
		t.Fatalf("cmd = %+v, want RedirectIn=in.txt RedirectOut=out.txt Append=false", cmd)
	}
}

func TestParseAppendRedirection(t *testing.T) {
	p, err := Parse("cat >> out.txt", nil)
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if !p.Commands[0].Append {
		t.Fatal("Append = false, want true")
	}
}

func TestParseMissingFilenameAfterRedirection(t *testing.T) {
	_, err := Parse("cat >", nil)
	if err == nil {
		t.Fatal("Parse() = nil error, want ParseError")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("err = %T, want *ParseError", err)
	}
}

func TestParseVarSubstitution(t *testing.T) {
	vars := fakeVars{"NAME": "world"}
	p, err := Parse("echo hello $NAME", vars)
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if p.Commands[0].Argv[2] != "world" {
		t.Fatalf("Argv[2] = %q, want world", p.Commands[0].Argv[2])
	}
}

func TestParseUnknownVar(t *testing.T) {
	vars := fakeVars{}
	_, err := Parse("echo $MISSING", vars)
	if err == nil {
		t.Fatal("Parse() = nil error, want ParseError for unknown variable")
	}
}
