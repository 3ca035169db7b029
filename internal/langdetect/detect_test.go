package langdetect

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		path    string
		content string
		want    string
	}{
		{"/styles/theme.css", "body {}", "CSS"},
		{"/README.md", "# Title", "Markdown"},
		{"/Dockerfile", "FROM alpine", "Dockerfile"},
		{"/server.go", "package main", "Go"},
		{"/bin/run", "#!/usr/bin/env python\nprint(1)", "Python"},
	}
	for _, tt := range tests {
		if got := Detect(tt.path, tt.content); got != tt.want {
			t.Errorf("Detect(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestIsMarkdown(t *testing.T) {
	if !IsMarkdown("/docs/guide.md") {
		t.Error("expected .md to be markdown")
	}
	if IsMarkdown("/App.jsx") {
		t.Error("expected .jsx not to be markdown")
	}
}

func TestIsVendor(t *testing.T) {
	if !IsVendor("/node_modules/react/index.js") {
		t.Error("expected node_modules to be vendored")
	}
	if IsVendor("/App.jsx") {
		t.Error("expected App.jsx not to be vendored")
	}
}
