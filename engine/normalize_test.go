package engine

import "testing"

func TestNormalize(t *testing.T) {
	n := newNormalizer()
	for _, tc := range []struct{ in, want string }{
		{"a.b.C", "a/b/C"},
		{"a/b/C", "a/b/C"},
		{"C", "C"},
		{"", ""},
		{"a.b/C", "a/b/C"},
	} {
		if got := n.Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := newNormalizer()
	for _, in := range []string{"a.b.C", "a/b/C", "x.y.z.W"} {
		once := n.Normalize(in)
		if twice := n.Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestNormalizeMemoizes(t *testing.T) {
	n := newNormalizer()
	n.Normalize("a.b.C")
	n.Normalize("a.b.C")
	n.Normalize("d.E")
	if got := n.size(); got != 2 {
		t.Errorf("cache size = %d, want 2", got)
	}
	// The canonical form of an already-seen input adds its own entry.
	n.Normalize("a/b/C")
	if got := n.size(); got != 3 {
		t.Errorf("cache size = %d, want 3", got)
	}
}
