package extract

import "testing"

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		name    string
		content string
		ext     string
		file    string
		want    string
	}{
		{"html title anywhere", "<html>\n" + repeatLines(20) + "<TITLE> My\n Page </TITLE>", ".html", "index.html", "My Page"},
		{"markdown heading", "intro text that is long enough? no\n# Hello", ".md", "readme.md", "Hello"},
		{"heading beats first line", "# Hello", ".md", "readme.md", "Hello"},
		{"comment marker", "package main\n// title: Entry Point\n", ".go", "main.go", "Entry Point"},
		{"hash comment marker", "# title: Build Script\necho hi", ".sh", "build.sh", "Build Script"},
		{"block comment marker", "/* Title: Styles */\nbody {}", ".css", "site.css", "Styles"},
		{"json title", `{"name": "pkg", "title": "Package"}`, ".json", "package.json", "Package"},
		{"json name", `{"name": "my-pkg"}`, ".json", "package.json", "my-pkg"},
		{"json displayName", `{"displayName": "Ext"}`, ".json", "x.json", "Ext"},
		{"json parse failure falls through", "{broken\n", ".json", "x.json", "{broken"},
		{"yaml name", "name: service\nversion: 2\n", ".yaml", "svc.yaml", "service"},
		{"first short line", "\n\n  hello world  \nmore", ".txt", "notes.txt", "hello world"},
		{"long first line falls back", longLine(150), ".txt", "long.txt", "long.txt"},
		{"empty content", "", ".txt", "empty.txt", "empty.txt"},
		{"heading past ten lines ignored", repeatBlank(10) + "# Late", ".md", "late.md", "late.md"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DeriveTitle(c.content, c.ext, c.file); got != c.want {
				t.Errorf("DeriveTitle = %q, want %q", got, c.want)
			}
		})
	}
}

func repeatLines(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += "<p>filler</p>\n"
	}
	return s
}

func repeatBlank(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += "\n"
	}
	return s
}

func longLine(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}
