package storagefmt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConvertCodeFenceRoundTrip(t *testing.T) {
	src := "```go\nfmt.Println(\"a < b && c\")\n```\n"

	page, err := Convert([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	want := `<ac:structured-macro ac:name="code"><ac:parameter ac:name="language">go</ac:parameter><ac:plain-text-body><![CDATA[fmt.Println("a < b && c")]]></ac:plain-text-body></ac:structured-macro>`
	if !strings.Contains(page.Body, want) {
		t.Fatalf("code macro not found in body:\n%s", page.Body)
	}
}

func TestConvertCodeFenceBodyIsVerbatim(t *testing.T) {
	// Inline markdown inside a fence must survive untouched.
	src := "```\n**not bold** and `not code` and [not a link](x)\n```\n"

	page, err := Convert([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if !strings.Contains(page.Body, "<![CDATA[**not bold** and `not code` and [not a link](x)]]>") {
		t.Fatalf("fence body was reinterpreted:\n%s", page.Body)
	}
	if strings.Contains(page.Body, "<strong>not bold</strong>") {
		t.Fatalf("fence body rendered as markdown:\n%s", page.Body)
	}
}

func TestConvertCodeFenceWithoutLanguage(t *testing.T) {
	page, err := Convert([]byte("```\nplain\n```\n"), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if strings.Contains(page.Body, `ac:name="language"`) {
		t.Fatalf("expected no language parameter:\n%s", page.Body)
	}
	if !strings.Contains(page.Body, "<![CDATA[plain]]>") {
		t.Fatalf("missing CDATA body:\n%s", page.Body)
	}
}

func TestConvertCDATATerminatorIsSplit(t *testing.T) {
	page, err := Convert([]byte("```\na ]]> b\n```\n"), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if !strings.Contains(page.Body, "<![CDATA[a ]]]]><![CDATA[> b]]>") {
		t.Fatalf("CDATA terminator not split:\n%s", page.Body)
	}
}

func TestConvertDuplicateHeadingsGetSuffixedAnchors(t *testing.T) {
	src := "## Setup\n\ntext\n\n## Setup\n\nmore\n"

	page, err := Convert([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	first := `<ac:parameter ac:name="">setup</ac:parameter>`
	second := `<ac:parameter ac:name="">setup-1</ac:parameter>`
	if !strings.Contains(page.Body, first) {
		t.Fatalf("first anchor missing:\n%s", page.Body)
	}
	if !strings.Contains(page.Body, second) {
		t.Fatalf("suffixed anchor missing:\n%s", page.Body)
	}
}

func TestConvertAnchorSuffixAvoidsNaturalCollision(t *testing.T) {
	// The generated "setup-1" suffix must not collide with a heading whose
	// own slug is already "setup-1".
	src := "## Setup\n\na\n\n## Setup\n\nb\n\n## Setup 1\n\nc\n"

	page, err := Convert([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	for _, anchor := range []string{"setup", "setup-1", "setup-1-1"} {
		want := `<ac:parameter ac:name="">` + anchor + `</ac:parameter>`
		if got := strings.Count(page.Body, want); got != 1 {
			t.Errorf("anchor %q appears %d times, want exactly once:\n%s", anchor, got, page.Body)
		}
	}
}

func TestConvertInternalLinkUsesAnchor(t *testing.T) {
	src := "## Getting Started\n\nSee [the intro](#getting-started).\n"

	page, err := Convert([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	want := `<ac:link ac:anchor="getting-started"><ac:plain-text-link-body><![CDATA[the intro]]></ac:plain-text-link-body></ac:link>`
	if !strings.Contains(page.Body, want) {
		t.Fatalf("anchor link missing:\n%s", page.Body)
	}
}

func TestConvertTablePadsShortRows(t *testing.T) {
	src := strings.Join([]string{
		"| a | b | c | d |",
		"| --- | --- | --- | --- |",
		"| 1 | 2 |",
	}, "\n") + "\n"

	page, err := Convert([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if !strings.Contains(page.Body, "<tr><td>1</td><td>2</td><td></td><td></td></tr>") {
		t.Fatalf("short row not padded to header width:\n%s", page.Body)
	}
}

func TestConvertMalformedTableDelimiter(t *testing.T) {
	src := "para\n\n| a | b |\n| --- | -- - |\n| 1 | 2 |\n"

	_, err := Convert([]byte(src), t.TempDir())

	var malformed *MalformedMarkdownError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedMarkdownError, got %v", err)
	}
	if malformed.Line != 4 {
		t.Fatalf("expected line 4, got %d (%v)", malformed.Line, malformed)
	}
}

func TestConvertUnterminatedFence(t *testing.T) {
	src := "intro\n\n```go\nfunc main() {}\n"

	_, err := Convert([]byte(src), t.TempDir())

	var malformed *MalformedMarkdownError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedMarkdownError, got %v", err)
	}
	if malformed.Line != 3 {
		t.Fatalf("expected the fence's line 3, got %d", malformed.Line)
	}
}

func TestConvertIndentedCodeBlockStartingWithFenceChars(t *testing.T) {
	// A 4-space-indented code block is literal content even if its first
	// line looks like a fence opener.
	src := "para\n\n    ```go\n    fmt.Println(1)\n\nafter\n"

	page, err := Convert([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if !strings.Contains(page.Body, "fmt.Println(1)") {
		t.Fatalf("indented code lost:\n%s", page.Body)
	}
	if !strings.Contains(page.Body, "<p>after</p>") {
		t.Fatalf("content after the indented block lost:\n%s", page.Body)
	}
}

func TestConvertFenceBodyWithIndentedFenceLine(t *testing.T) {
	// An indented ``` inside a fence is body text, not the closer.
	src := "```\n    ```\n```\n"

	page, err := Convert([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if !strings.Contains(page.Body, "<![CDATA[    ```]]>") {
		t.Fatalf("indented fence line not kept as content:\n%s", page.Body)
	}
}

func TestConvertUnterminatedFenceInsideBlockquote(t *testing.T) {
	src := "> intro\n>\n> ```go\n> code\n"

	_, err := Convert([]byte(src), t.TempDir())

	var malformed *MalformedMarkdownError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedMarkdownError, got %v", err)
	}
	if malformed.Line != 3 {
		t.Fatalf("expected the fence's line 3, got %d", malformed.Line)
	}
}

func TestConvertMissingAssetNamesThePath(t *testing.T) {
	dir := t.TempDir()

	_, err := Convert([]byte("![diagram](./img/missing.png)\n"), dir)

	var missing *AssetMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected AssetMissingError, got %v", err)
	}
	if missing.Ref != "./img/missing.png" {
		t.Fatalf("expected the path as written, got %q", missing.Ref)
	}
	if missing.Path != filepath.Join(dir, "img", "missing.png") {
		t.Fatalf("expected resolved path under sourceDir, got %q", missing.Path)
	}
}

func TestConvertRecordsAssets(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "img/chart.png")

	page, err := Convert([]byte("![a chart](img/chart.png)\n"), dir)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if got := page.Assets["chart.png"]; got != filepath.Join(dir, "img", "chart.png") {
		t.Fatalf("asset not recorded, got %#v", page.Assets)
	}
	want := `<ac:image ac:alt="a chart"><ri:attachment ri:filename="chart.png" /></ac:image>`
	if !strings.Contains(page.Body, want) {
		t.Fatalf("attachment reference missing:\n%s", page.Body)
	}
}

func TestConvertDuplicateAssetFilenames(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "a/logo.png")
	writeAsset(t, dir, "b/logo.png")

	_, err := Convert([]byte("![x](a/logo.png)\n\n![y](b/logo.png)\n"), dir)

	var dup *DuplicateAssetError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateAssetError, got %v", err)
	}
	if dup.Filename != "logo.png" {
		t.Fatalf("unexpected filename %q", dup.Filename)
	}
}

func TestConvertExternalImageIsNotAnAsset(t *testing.T) {
	page, err := Convert([]byte("![ext](https://example.com/x.png)\n"), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if len(page.Assets) != 0 {
		t.Fatalf("external image recorded as asset: %#v", page.Assets)
	}
	if !strings.Contains(page.Body, `<ri:url ri:value="https://example.com/x.png" />`) {
		t.Fatalf("external image reference missing:\n%s", page.Body)
	}
}

func TestConvertPanels(t *testing.T) {
	cases := []struct {
		name string
		src  string
		kind string
		text string
	}{
		{"note marker", "> Note: remember to flush\n", "note", "remember to flush"},
		{"warning marker", "> Warning: here be dragons\n", "warning", "here be dragons"},
		{"info marker", "> Info: plain facts\n", "info", "plain facts"},
		{"bare quote", "> just a quote\n", "info", "just a quote"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := Convert([]byte(tc.src), t.TempDir())
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}

			open := `<ac:structured-macro ac:name="` + tc.kind + `"><ac:rich-text-body>`
			if !strings.Contains(page.Body, open) {
				t.Fatalf("expected %s panel:\n%s", tc.kind, page.Body)
			}
			if !strings.Contains(page.Body, tc.text) {
				t.Fatalf("panel body lost its text:\n%s", page.Body)
			}
		})
	}
}

func TestConvertPanelMarkerIsStripped(t *testing.T) {
	page, err := Convert([]byte("> Warning: mind the gap\n"), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if strings.Contains(page.Body, "Warning:") {
		t.Fatalf("marker text leaked into the panel body:\n%s", page.Body)
	}
}

func TestConvertLiftsLeadingTitle(t *testing.T) {
	src := "# Release Notes\n\nFirst paragraph.\n"

	page, err := Convert([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if page.Title != "Release Notes" {
		t.Fatalf("expected lifted title, got %q", page.Title)
	}
	if strings.Contains(page.Body, "Release Notes") {
		t.Fatalf("title still present in body:\n%s", page.Body)
	}
}

func TestConvertInlineFormatting(t *testing.T) {
	src := "Some *subtle* and **loud** text with `code` and a [link](https://example.com).\n"

	page, err := Convert([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	for _, want := range []string{
		"<em>subtle</em>",
		"<strong>loud</strong>",
		"<code>code</code>",
		`<a href="https://example.com">link</a>`,
	} {
		if !strings.Contains(page.Body, want) {
			t.Fatalf("expected %s in body:\n%s", want, page.Body)
		}
	}
}

func TestConvertEscapesText(t *testing.T) {
	page, err := Convert([]byte("a < b & \"c\"\n"), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if !strings.Contains(page.Body, "a &lt; b &amp; &quot;c&quot;") {
		t.Fatalf("text not XML-escaped:\n%s", page.Body)
	}
}

func TestConvertLists(t *testing.T) {
	src := "1. first\n2. second\n\n- top\n- other\n"

	page, err := Convert([]byte(src), t.TempDir())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if !strings.Contains(page.Body, "<ol><li>first</li><li>second</li></ol>") {
		t.Fatalf("ordered list wrong:\n%s", page.Body)
	}
	if !strings.Contains(page.Body, "<ul><li>top</li><li>other</li></ul>") {
		t.Fatalf("unordered list wrong:\n%s", page.Body)
	}
}

func TestParseFrontMatter(t *testing.T) {
	src := "---\ntitle: Custom Title\nlabels:\n  - howto\n---\n# Ignored\n\nbody\n"

	fm, rest, err := ParseFrontMatter([]byte(src))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	if fm.Title != "Custom Title" {
		t.Fatalf("title mismatch, got %q", fm.Title)
	}
	if len(fm.Labels) != 1 || fm.Labels[0] != "howto" {
		t.Fatalf("labels mismatch: %#v", fm.Labels)
	}
	if !strings.Contains(string(rest), "# Ignored") {
		t.Fatalf("body not returned: %q", string(rest))
	}
}

func TestParseFrontMatterAbsent(t *testing.T) {
	src := "# Just a Doc\n\nbody\n"

	fm, rest, err := ParseFrontMatter([]byte(src))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if fm.Title != "" {
		t.Fatalf("unexpected title %q", fm.Title)
	}
	if string(rest) != src {
		t.Fatalf("document without front matter was altered: %q", string(rest))
	}
}

func writeAsset(t *testing.T, dir, rel string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("not really a png"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}
