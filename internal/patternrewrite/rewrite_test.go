package patternrewrite

import "testing"

func TestRewriteFaultyEscape(t *testing.T) {
	got := Rewrite(`\goblin \screams`)
	want := `goblin screams`
	if got != want {
		t.Fatalf("Rewrite() = %q, want %q", got, want)
	}
}

func TestRewritePreservesRealEscapes(t *testing.T) {
	got := Rewrite(`foo\.bar\(baz\)`)
	want := `foo\.bar\(baz\)`
	if got != want {
		t.Fatalf("Rewrite() = %q, want %q", got, want)
	}
}

func TestRewriteEmptyExpr(t *testing.T) {
	got := Rewrite(`^The (dwarf|()) screams`)
	want := `^The (dwarf)? screams`
	if got != want {
		t.Fatalf("Rewrite() = %q, want %q", got, want)
	}
}

func TestRewriteIdempotent(t *testing.T) {
	inputs := []string{
		`\goblin \screams`,
		`^The (dwarf|()) screams`,
		`^already (fine)? pattern$`,
		`no special chars here`,
	}
	for _, in := range inputs {
		once := Rewrite(in)
		twice := Rewrite(once)
		if once != twice {
			t.Fatalf("Rewrite not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}
