package vfs

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"root", "/", "/"},
		{"relative", "App.jsx", "/App.jsx"},
		{"trailing slash", "/src/", "/src"},
		{"repeated separators", "//src///components//Button.jsx", "/src/components/Button.jsx"},
		{"dot segments", "/./src/./App.jsx", "/src/App.jsx"},
		{"dot dot inside", "/src/components/../App.jsx", "/src/App.jsx"},
		{"dot dot to root", "/src/..", "/"},
		{"only slashes", "////", "/"},
		{"single dot", ".", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) failed: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, raw := range []string{"", "..", "/../etc/passwd", "/src/../../x", "a\x00b"} {
		_, err := Normalize(raw)
		if !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Normalize(%q) error = %v, want ErrInvalidPath", raw, err)
		}
	}
}

func TestNormalize_SpellingsCollide(t *testing.T) {
	spellings := []string{"/src/App.jsx", "src/App.jsx", "//src//App.jsx/", "/src/lib/../App.jsx", "./src/./App.jsx"}
	for _, s := range spellings {
		got, err := Normalize(s)
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", s, err)
		}
		if got != "/src/App.jsx" {
			t.Errorf("Normalize(%q) = %q", s, got)
		}
	}
}

func TestPathHelpers(t *testing.T) {
	if Parent("/a/b") != "/a" || Parent("/a") != "/" || Parent("/") != "/" {
		t.Error("Parent returned unexpected values")
	}
	if Base("/a/b.txt") != "b.txt" || Base("/") != "/" {
		t.Error("Base returned unexpected values")
	}
	if Join("/", "a") != "/a" || Join("/a", "b") != "/a/b" {
		t.Error("Join returned unexpected values")
	}
	if !IsWithin("/a/b", "/a") || !IsWithin("/a", "/a") || IsWithin("/ab", "/a") {
		t.Error("IsWithin returned unexpected values")
	}
}
