package storagefmt

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// parse builds the Document tree for one Markdown source.  Image paths are
// resolved (and stat'ed) here, relative to sourceDir, so a missing file stops
// us long before any network traffic.
func parse(src []byte, sourceDir string) (*Document, error) {
	if err := prescan(src); err != nil {
		return nil, err
	}

	gm := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	)
	root := gm.Parser().Parse(text.NewReader(src))

	p := &treeParser{
		src:       src,
		sourceDir: sourceDir,
		slugs:     newSlugger(),
		assets:    map[string]string{},
	}

	blocks, err := p.blocks(root)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Blocks: blocks,
		Assets: p.assets,
	}

	// A leading level-1 heading is the page title, not body content.  The
	// original behaviour of this tool: the title line never appears twice.
	if len(doc.Blocks) > 0 {
		if h, ok := doc.Blocks[0].(Heading); ok && h.Level == 1 {
			doc.Title = inlineText(h.Content)
			doc.Blocks = doc.Blocks[1:]
		}
	}

	return doc, nil
}

type treeParser struct {
	src       []byte
	sourceDir string
	slugs     *slugger
	assets    map[string]string
}

func (p *treeParser) blocks(parent ast.Node) ([]Block, error) {
	var out []Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		b, err := p.block(n)
		if err != nil {
			return nil, err
		}
		if b != nil {
			out = append(out, b)
		}
	}
	return out, nil
}

// block is the classifier: each goldmark node maps to exactly one Block
// variant, most specific pattern first (image-only paragraph before
// paragraph, admonition quote before plain quote).
func (p *treeParser) block(n ast.Node) (Block, error) {
	switch n := n.(type) {
	case *ast.Heading:
		content, err := p.inlines(n)
		if err != nil {
			return nil, err
		}
		return Heading{
			Level:   n.Level,
			Content: content,
			Anchor:  p.slugs.anchorFor(inlineText(content)),
		}, nil

	case *ast.Paragraph:
		if img, ok, err := p.soleImage(n); err != nil {
			return nil, err
		} else if ok {
			return img, nil
		}
		content, err := p.inlines(n)
		if err != nil {
			return nil, err
		}
		return Paragraph{Content: content}, nil

	case *ast.TextBlock:
		// Tight list items hold their content in a TextBlock.
		content, err := p.inlines(n)
		if err != nil {
			return nil, err
		}
		return Paragraph{Content: content}, nil

	case *ast.FencedCodeBlock:
		return CodeBlock{
			Language: string(n.Language(p.src)),
			Text:     p.rawLines(n),
		}, nil

	case *ast.CodeBlock:
		return CodeBlock{Text: p.rawLines(n)}, nil

	case *ast.List:
		var items [][]Block
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			item, err := p.blocks(c)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		start := n.Start
		if start == 0 {
			start = 1
		}
		return List{Ordered: n.IsOrdered(), Start: start, Items: items}, nil

	case *ast.Blockquote:
		body, err := p.blocks(n)
		if err != nil {
			return nil, err
		}
		kind, body := classifyPanel(body)
		return Panel{Kind: kind, Body: body}, nil

	case *east.Table:
		return p.table(n)

	case *ast.ThematicBreak:
		return ThematicBreak{}, nil

	case *ast.HTMLBlock:
		html := p.rawLines(n)
		if n.HasClosure() {
			html += string(n.ClosureLine.Value(p.src))
		}
		return HTMLBlock{Text: html}, nil

	default:
		// Unknown node kinds (e.g. future extensions) are dropped rather
		// than guessed at.
		return nil, nil
	}
}

// soleImage detects a paragraph whose only child is an image, which we
// promote to a block-level Image.
func (p *treeParser) soleImage(n *ast.Paragraph) (Block, bool, error) {
	if n.ChildCount() != 1 {
		return nil, false, nil
	}
	img, ok := n.FirstChild().(*ast.Image)
	if !ok {
		return nil, false, nil
	}
	block, err := p.image(img)
	if err != nil {
		return nil, false, err
	}
	return block, true, nil
}

func (p *treeParser) image(n *ast.Image) (Image, error) {
	dest := string(n.Destination)
	alt, err := p.inlines(n)
	if err != nil {
		return Image{}, err
	}

	if strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://") {
		return Image{URL: dest, Alt: inlineText(alt)}, nil
	}

	resolved := filepath.Join(p.sourceDir, filepath.FromSlash(dest))
	if _, err := os.Stat(resolved); err != nil {
		return Image{}, &AssetMissingError{Ref: dest, Path: resolved}
	}

	filename := filepath.Base(resolved)
	if prev, ok := p.assets[filename]; ok && prev != resolved {
		return Image{}, &DuplicateAssetError{
			Filename:   filename,
			FirstPath:  prev,
			SecondPath: resolved,
		}
	}
	p.assets[filename] = resolved

	return Image{Filename: filename, Path: resolved, Alt: inlineText(alt)}, nil
}

func (p *treeParser) table(n *east.Table) (Block, error) {
	var header [][]Inline
	var rows [][][]Inline

	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells [][]Inline
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			content, err := p.inlines(cell)
			if err != nil {
				return nil, err
			}
			cells = append(cells, content)
		}

		if _, ok := row.(*east.TableHeader); ok {
			header = cells
			continue
		}

		// Ragged rows are an authoring mistake we paper over: pad short
		// rows out to the header width instead of failing.
		for len(cells) < len(header) {
			cells = append(cells, []Inline{})
		}
		rows = append(rows, cells)
	}

	return Table{Header: header, Rows: rows}, nil
}

// rawLines concatenates a node's source segments verbatim, minus the final
// newline (the closing fence supplies its own line ending).
func (p *treeParser) rawLines(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(p.src))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (p *treeParser) inlines(parent ast.Node) ([]Inline, error) {
	var out []Inline
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		in, err := p.inline(n)
		if err != nil {
			return nil, err
		}
		if in != nil {
			out = append(out, in)
		}
	}
	return out, nil
}

func (p *treeParser) inline(n ast.Node) (Inline, error) {
	switch n := n.(type) {
	case *ast.Text:
		return Text{
			Value:     string(n.Segment.Value(p.src)),
			HardBreak: n.HardLineBreak(),
			SoftBreak: n.SoftLineBreak(),
		}, nil

	case *ast.String:
		return Text{Value: string(n.Value)}, nil

	case *ast.Emphasis:
		content, err := p.inlines(n)
		if err != nil {
			return nil, err
		}
		if n.Level >= 2 {
			return Strong{Content: content}, nil
		}
		return Emph{Content: content}, nil

	case *east.Strikethrough:
		content, err := p.inlines(n)
		if err != nil {
			return nil, err
		}
		return Strike{Content: content}, nil

	case *ast.CodeSpan:
		var b strings.Builder
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				b.Write(t.Segment.Value(p.src))
			}
		}
		return Code{Value: b.String()}, nil

	case *ast.Link:
		content, err := p.inlines(n)
		if err != nil {
			return nil, err
		}
		dest := string(n.Destination)
		if frag, ok := strings.CutPrefix(dest, "#"); ok {
			return Link{Anchor: slugify(frag), Content: content}, nil
		}
		return Link{Target: dest, Content: content}, nil

	case *ast.AutoLink:
		url := string(n.URL(p.src))
		label := string(n.Label(p.src))
		if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(url, "mailto:") {
			url = "mailto:" + url
		}
		return Link{
			Target:  url,
			Content: []Inline{Text{Value: label}},
		}, nil

	case *ast.Image:
		img, err := p.image(n)
		if err != nil {
			return nil, err
		}
		return InlineImage{Image: img}, nil

	case *ast.RawHTML:
		var b strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(p.src))
		}
		return RawHTML{Value: b.String()}, nil

	default:
		return nil, nil
	}
}

// panelMarkers in precedence order; the most specific (longest) marker wins,
// which here just means they're checked in this order.
var panelMarkers = []struct {
	prefix string
	kind   PanelKind
}{
	{"warning:", PanelWarning},
	{"note:", PanelNote},
	{"info:", PanelInfo},
}

// classifyPanel decides what kind of panel a blockquote becomes.  A leading
// marker word picks the kind and is stripped from the body; everything else
// is an info panel.
func classifyPanel(body []Block) (PanelKind, []Block) {
	if len(body) == 0 {
		return PanelInfo, body
	}
	para, ok := body[0].(Paragraph)
	if !ok || len(para.Content) == 0 {
		return PanelInfo, body
	}
	lead, ok := para.Content[0].(Text)
	if !ok {
		return PanelInfo, body
	}

	for _, m := range panelMarkers {
		if len(lead.Value) < len(m.prefix) {
			continue
		}
		if !strings.EqualFold(lead.Value[:len(m.prefix)], m.prefix) {
			continue
		}

		lead.Value = strings.TrimLeft(lead.Value[len(m.prefix):], " ")
		content := para.Content[1:]
		if lead.Value != "" {
			content = append([]Inline{lead}, content...)
		}
		stripped := body[1:]
		if len(content) > 0 {
			stripped = append([]Block{Paragraph{Content: content}}, stripped...)
		}
		return m.kind, stripped
	}

	return PanelInfo, body
}

// inlineText flattens inline content to plain text, for slugs and CDATA link
// bodies.
func inlineText(content []Inline) string {
	var b strings.Builder
	for _, in := range content {
		switch in := in.(type) {
		case Text:
			b.WriteString(in.Value)
			if in.SoftBreak || in.HardBreak {
				b.WriteString(" ")
			}
		case Code:
			b.WriteString(in.Value)
		case Emph:
			b.WriteString(inlineText(in.Content))
		case Strong:
			b.WriteString(inlineText(in.Content))
		case Strike:
			b.WriteString(inlineText(in.Content))
		case Link:
			b.WriteString(inlineText(in.Content))
		case InlineImage:
			b.WriteString(in.Image.Alt)
		}
	}
	return strings.TrimSpace(b.String())
}
