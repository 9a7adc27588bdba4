package sanitize

import (
	"strings"
	"testing"
)

func TestHTML_StripsEventHandlersAndStyle(t *testing.T) {
	in := `<p onclick="alert('xss')" style="color:red">hello</p>`
	out := HTML(in)

	if strings.Contains(out, "onclick") {
		t.Errorf("onclick handler survived sanitization: %q", out)
	}
	if strings.Contains(out, "style") {
		t.Errorf("style attribute survived sanitization: %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("text content lost: %q", out)
	}
}

func TestHTML_NeutralizesJavascriptURLs(t *testing.T) {
	cases := []string{
		`<a href="javascript:alert(1)">click</a>`,
		`<a href="JAVASCRIPT:alert(1)">click</a>`,
		`<img src="javascript:alert(1)">`,
	}
	for _, in := range cases {
		out := HTML(in)
		if strings.Contains(strings.ToLower(out), "javascript:") {
			t.Errorf("javascript: URL survived in %q -> %q", in, out)
		}
	}
}

func TestHTML_AllowsDataImageURLs(t *testing.T) {
	in := `<img src="data:image/png;base64,iVBORw0KGgo=" alt="dot">`
	out := HTML(in)

	if !strings.Contains(out, "data:image/png") {
		t.Errorf("data image URL was stripped: %q", out)
	}
	if !strings.Contains(out, `alt="dot"`) {
		t.Errorf("alt attribute was stripped: %q", out)
	}
}

func TestHTML_StripsScriptAndIframe(t *testing.T) {
	in := `<p>before</p><script>alert(1)</script><iframe src="https://evil.example"></iframe><p>after</p>`
	out := HTML(in)

	if strings.Contains(out, "<script") || strings.Contains(out, "alert(1)") {
		t.Errorf("script tag or body survived: %q", out)
	}
	if strings.Contains(out, "<iframe") {
		t.Errorf("iframe survived: %q", out)
	}
	if !strings.Contains(out, "<p>before</p>") || !strings.Contains(out, "<p>after</p>") {
		t.Errorf("surrounding paragraphs lost: %q", out)
	}
}

func TestHTML_KeepsFormattingTags(t *testing.T) {
	in := `<h2>Title</h2><p><strong>bold</strong> and <em>italic</em></p><ul><li>one</li></ul><pre><code>x := 1</code></pre>`
	out := HTML(in)

	for _, tag := range []string{"<h2>", "<strong>", "<em>", "<ul>", "<li>", "<pre>", "<code>"} {
		if !strings.Contains(out, tag) {
			t.Errorf("allowed tag %s removed: %q", tag, out)
		}
	}
}

func TestHTML_AddsNoopenerToExternalLinks(t *testing.T) {
	in := `<a href="https://example.com/post">read</a>`
	out := HTML(in)

	if !strings.Contains(out, `target="_blank"`) {
		t.Errorf("external link missing target=_blank: %q", out)
	}
	if !strings.Contains(out, "noopener") {
		t.Errorf("external link missing rel=noopener: %q", out)
	}
}

func TestHTML_EmptyInput(t *testing.T) {
	if got := HTML(""); got != "" {
		t.Errorf("HTML(\"\") = %q, want empty", got)
	}
}

func TestPlainText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"tags stripped", "<p><strong>bold</strong> text</p>", "bold text"},
		{"empty", "", ""},
		{"no markup", "plain sentence", "plain sentence"},
		{"nested lists", "<ul><li>a</li><li>b</li></ul>", "ab"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PlainText(tc.in); got != tc.want {
				t.Errorf("PlainText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
