package storagefmt

import (
	"fmt"
	"strings"
)

// render turns a Document into Confluence storage-format XHTML.  The macro
// shapes here are load-bearing: Confluence rejects or mangles bodies that
// deviate, so change them only against a real instance.
func render(doc *Document) string {
	var b strings.Builder
	for _, block := range doc.Blocks {
		renderBlock(&b, block)
		b.WriteString("\n")
	}
	return b.String()
}

func renderBlock(b *strings.Builder, block Block) {
	switch block := block.(type) {
	case Heading:
		level := block.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		fmt.Fprintf(b, "<h%d>", level)
		// The anchor macro is what makes #fragment links inside the
		// document land somewhere.
		b.WriteString(`<ac:structured-macro ac:name="anchor"><ac:parameter ac:name="">`)
		b.WriteString(xmlEscape(block.Anchor))
		b.WriteString(`</ac:parameter></ac:structured-macro>`)
		renderInlines(b, block.Content)
		fmt.Fprintf(b, "</h%d>", level)

	case Paragraph:
		b.WriteString("<p>")
		renderInlines(b, block.Content)
		b.WriteString("</p>")

	case CodeBlock:
		renderCodeMacro(b, block)

	case List:
		renderList(b, block)

	case Table:
		renderTable(b, block)

	case Image:
		renderImage(b, block)

	case Panel:
		fmt.Fprintf(b, `<ac:structured-macro ac:name="%s"><ac:rich-text-body>`, block.Kind)
		for _, inner := range block.Body {
			renderBlock(b, inner)
		}
		b.WriteString(`</ac:rich-text-body></ac:structured-macro>`)

	case ThematicBreak:
		b.WriteString("<hr/>")

	case HTMLBlock:
		b.WriteString(block.Text)
	}
}

// renderCodeMacro emits the code macro exactly as Confluence stores it: an
// optional language parameter and the literal body in CDATA.  The body is
// never entity-escaped; a literal "]]>" is handled by splitting the CDATA
// section.
func renderCodeMacro(b *strings.Builder, block CodeBlock) {
	b.WriteString(`<ac:structured-macro ac:name="code">`)
	if block.Language != "" {
		b.WriteString(`<ac:parameter ac:name="language">`)
		b.WriteString(xmlEscape(block.Language))
		b.WriteString(`</ac:parameter>`)
	}
	b.WriteString(`<ac:plain-text-body>`)
	writeCDATA(b, block.Text)
	b.WriteString(`</ac:plain-text-body></ac:structured-macro>`)
}

func renderList(b *strings.Builder, list List) {
	tag := "ul"
	if list.Ordered {
		tag = "ol"
	}
	b.WriteString("<" + tag)
	if list.Ordered && list.Start != 1 {
		fmt.Fprintf(b, ` start="%d"`, list.Start)
	}
	b.WriteString(">")
	for _, item := range list.Items {
		b.WriteString("<li>")
		for _, inner := range item {
			// Paragraph wrappers inside list items make Confluence add
			// blank lines between every bullet, so item-level prose is
			// rendered bare.
			if para, ok := inner.(Paragraph); ok {
				renderInlines(b, para.Content)
				continue
			}
			renderBlock(b, inner)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</" + tag + ">")
}

func renderTable(b *strings.Builder, table Table) {
	b.WriteString("<table><tbody>")
	if len(table.Header) > 0 {
		b.WriteString("<tr>")
		for _, cell := range table.Header {
			b.WriteString("<th>")
			renderInlines(b, cell)
			b.WriteString("</th>")
		}
		b.WriteString("</tr>")
	}
	for _, row := range table.Rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>")
			renderInlines(b, cell)
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
}

func renderImage(b *strings.Builder, img Image) {
	b.WriteString("<ac:image")
	if img.Alt != "" {
		fmt.Fprintf(b, ` ac:alt="%s"`, xmlEscape(img.Alt))
	}
	b.WriteString(">")
	if img.URL != "" {
		fmt.Fprintf(b, `<ri:url ri:value="%s" />`, xmlEscape(img.URL))
	} else {
		fmt.Fprintf(b, `<ri:attachment ri:filename="%s" />`, xmlEscape(img.Filename))
	}
	b.WriteString("</ac:image>")
}

func renderInlines(b *strings.Builder, content []Inline) {
	for _, in := range content {
		renderInline(b, in)
	}
}

func renderInline(b *strings.Builder, in Inline) {
	switch in := in.(type) {
	case Text:
		b.WriteString(xmlEscape(in.Value))
		// Newlines become explicit breaks, matching GitHub-style hard
		// wrapping, so author line breaks survive the trip.
		if in.HardBreak || in.SoftBreak {
			b.WriteString("<br/>")
		}

	case Emph:
		b.WriteString("<em>")
		renderInlines(b, in.Content)
		b.WriteString("</em>")

	case Strong:
		b.WriteString("<strong>")
		renderInlines(b, in.Content)
		b.WriteString("</strong>")

	case Strike:
		b.WriteString("<del>")
		renderInlines(b, in.Content)
		b.WriteString("</del>")

	case Code:
		b.WriteString("<code>")
		b.WriteString(xmlEscape(in.Value))
		b.WriteString("</code>")

	case Link:
		if in.Anchor != "" {
			fmt.Fprintf(b, `<ac:link ac:anchor="%s"><ac:plain-text-link-body>`, xmlEscape(in.Anchor))
			writeCDATA(b, inlineText(in.Content))
			b.WriteString(`</ac:plain-text-link-body></ac:link>`)
			return
		}
		fmt.Fprintf(b, `<a href="%s">`, xmlEscape(in.Target))
		renderInlines(b, in.Content)
		b.WriteString("</a>")

	case InlineImage:
		renderImage(b, in.Image)

	case RawHTML:
		b.WriteString(selfCloseVoids(in.Value))
	}
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}

// writeCDATA wraps s in a CDATA section.  A literal "]]>" inside s would
// terminate the section early, so it is split across two sections.
func writeCDATA(b *strings.Builder, s string) {
	b.WriteString("<![CDATA[")
	b.WriteString(strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>"))
	b.WriteString("]]>")
}

var voidCloser = strings.NewReplacer(
	"<br>", "<br/>",
	"<hr>", "<hr/>",
)

// selfCloseVoids patches the HTML void elements that XHTML insists on seeing
// self-closed.  Raw HTML is otherwise passed through as the author wrote it.
func selfCloseVoids(s string) string {
	return voidCloser.Replace(s)
}
