package storagefmt

// Document is the block tree produced by parsing one Markdown file.  It is
// built once and never mutated afterwards; rendering only reads it.
type Document struct {
	// Title is the text of a leading level-1 heading, if the document had
	// one.  The heading itself is not part of Blocks, because Confluence
	// renders the page title above the body already.
	Title string

	Blocks []Block

	// Assets maps attachment filename to the resolved local path of every
	// local image the document references.
	Assets map[string]string
}

// Block is one block-level element of a Document.  The concrete types below
// are the only implementations.
type Block interface {
	block()
}

type Heading struct {
	Level   int
	Content []Inline

	// Anchor is the generated identifier for in-document links, unique
	// within the Document.
	Anchor string
}

type Paragraph struct {
	Content []Inline
}

// CodeBlock carries the literal fence body.  The text is never re-parsed as
// Markdown.
type CodeBlock struct {
	Language string
	Text     string
}

type List struct {
	Ordered bool
	Start   int
	Items   [][]Block
}

// Table holds one []Inline per cell.  Rows shorter than the header have
// already been padded with empty cells by the parser.
type Table struct {
	Header [][]Inline
	Rows   [][][]Inline
}

// Image is a block-level image (a paragraph containing nothing else).  Either
// Filename/Path are set (local file, uploaded as an attachment later) or URL
// is set (external image, left alone).
type Image struct {
	Filename string
	Path     string
	URL      string
	Alt      string
}

type PanelKind string

const (
	PanelInfo    PanelKind = "info"
	PanelNote    PanelKind = "note"
	PanelWarning PanelKind = "warning"
)

type Panel struct {
	Kind PanelKind
	Body []Block
}

type ThematicBreak struct{}

// HTMLBlock is raw HTML passed through untouched.
type HTMLBlock struct {
	Text string
}

func (Heading) block()       {}
func (Paragraph) block()     {}
func (CodeBlock) block()     {}
func (List) block()          {}
func (Table) block()         {}
func (Image) block()         {}
func (Panel) block()         {}
func (ThematicBreak) block() {}
func (HTMLBlock) block()     {}

// Inline is one span of content inside a block.
type Inline interface {
	inline()
}

type Text struct {
	Value string

	// Break settings describe what followed the text on the source line.
	HardBreak bool
	SoftBreak bool
}

type Emph struct {
	Content []Inline
}

type Strong struct {
	Content []Inline
}

type Strike struct {
	Content []Inline
}

// Code is an inline code span, rendered verbatim.
type Code struct {
	Value string
}

// Link is either an external link (Target set) or an in-document anchor link
// (Anchor set to a heading identifier).
type Link struct {
	Target  string
	Anchor  string
	Content []Inline
}

// InlineImage is an image that shares a paragraph with other content.
type InlineImage struct {
	Image Image
}

type RawHTML struct {
	Value string
}

func (Text) inline()        {}
func (Emph) inline()        {}
func (Strong) inline()      {}
func (Strike) inline()      {}
func (Code) inline()        {}
func (Link) inline()        {}
func (InlineImage) inline() {}
func (RawHTML) inline()     {}

// RenderedPage is what the publish step consumes: the storage-format body and
// the local files it expects to find attached to the page.
type RenderedPage struct {
	Title  string
	Body   string
	Assets map[string]string
}
