package model

import "slices"

// BlockType is the markdown construct a single line belongs to.
type BlockType int

const (
	BlockParagraph BlockType = iota
	BlockHeading
	BlockCodeFence
	BlockBlockquote
	BlockListItem
)

func (t BlockType) String() string {
	switch t {
	case BlockHeading:
		return "heading"
	case BlockCodeFence:
		return "code_fence"
	case BlockBlockquote:
		return "blockquote"
	case BlockListItem:
		return "list_item"
	default:
		return "paragraph"
	}
}

// ParsedLine is the classification of one source line.
type ParsedLine struct {
	BlockType BlockType
	Level     int    // 1..6, headings only
	Language  string // code fence markers only
	Prefix    string // markdown marker, re-attached on reconstruction
	Content   string
	IsEmpty   bool
}

// Line returns the source line the classification was built from.
func (p ParsedLine) Line() string {
	return p.Prefix + p.Content
}

// OpKind is the line-level edit category.
type OpKind int

const (
	OpEqual OpKind = iota
	OpInsert
	OpDelete
	OpModify
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpModify:
		return "modify"
	default:
		return "equal"
	}
}

func (k OpKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DiffOp is one step of a line alignment. Indexes are zero based and -1 on
// the side the line does not exist on.
type DiffOp struct {
	Kind     OpKind
	OldLine  string
	NewLine  string
	OldIndex int
	NewIndex int
}

// HasOld reports whether the op carries a line from the old text.
func (op DiffOp) HasOld() bool { return op.Kind != OpInsert }

// HasNew reports whether the op carries a line from the new text.
func (op DiffOp) HasNew() bool { return op.Kind != OpDelete }

// SpanMark marks a span as unchanged, added or removed.
type SpanMark int

const (
	MarkNone SpanMark = iota
	MarkAddition
	MarkDeletion
)

func (m SpanMark) String() string {
	switch m {
	case MarkAddition:
		return "addition"
	case MarkDeletion:
		return "deletion"
	default:
		return ""
	}
}

// Placeholder is the text of the span given to blocks with no visible text.
const Placeholder = "\u00a0"

// Span is a run of text with a uniform mark.
type Span struct {
	Text        string
	Mark        SpanMark
	Placeholder bool
}

// Side selects the old or the new text of a comparison.
type Side int

const (
	SideOld Side = iota
	SideNew
)

// Origin records which op produced a block and the markdown prefix the block
// had on each side.
type Origin struct {
	Op        OpKind
	OldPrefix string
	NewPrefix string
}

// On reports whether the block exists in the text of the given side.
func (o Origin) On(side Side) bool {
	if side == SideOld {
		return o.Op != OpInsert
	}
	return o.Op != OpDelete
}

// Prefix returns the markdown prefix of the block on the given side.
func (o Origin) Prefix(side Side) string {
	if side == SideOld {
		return o.OldPrefix
	}
	return o.NewPrefix
}

// Block is one rendered unit of an AnnotatedDocument. The set of block kinds
// is closed: Heading, CodeFence, Blockquote, ListItem and Paragraph.
type Block interface {
	Type() BlockType
	isBlock()
}

type Heading struct {
	Origin
	Level int
	Spans []Span
}

// CodeFence is a whole fenced region. Text is the code as displayed; the raw
// lines of each side, fence markers included, are kept for reconstruction.
type CodeFence struct {
	Language string
	Text     string
	OldLines []string
	NewLines []string
}

type Blockquote struct {
	Origin
	Spans []Span
}

type ListItem struct {
	Origin
	Spans []Span
}

type Paragraph struct {
	Origin
	Spans []Span
}

func (Heading) Type() BlockType    { return BlockHeading }
func (CodeFence) Type() BlockType  { return BlockCodeFence }
func (Blockquote) Type() BlockType { return BlockBlockquote }
func (ListItem) Type() BlockType   { return BlockListItem }
func (Paragraph) Type() BlockType  { return BlockParagraph }

func (Heading) isBlock()    {}
func (CodeFence) isBlock()  {}
func (Blockquote) isBlock() {}
func (ListItem) isBlock()   {}
func (Paragraph) isBlock()  {}

// NewBlock builds the block matching a line classification. Code fence
// classifications yield a single-line fence holding the line on both sides.
func NewBlock(p ParsedLine, origin Origin, spans []Span) Block {
	switch p.BlockType {
	case BlockHeading:
		return Heading{Origin: origin, Level: p.Level, Spans: spans}
	case BlockBlockquote:
		return Blockquote{Origin: origin, Spans: spans}
	case BlockListItem:
		return ListItem{Origin: origin, Spans: spans}
	case BlockCodeFence:
		line := p.Line()
		return CodeFence{Language: p.Language, OldLines: []string{line}, NewLines: []string{line}}
	default:
		return Paragraph{Origin: origin, Spans: spans}
	}
}

// BlockOrigin returns the origin of a line block. Code fences report false.
func BlockOrigin(b Block) (Origin, bool) {
	switch b := b.(type) {
	case Heading:
		return b.Origin, true
	case Blockquote:
		return b.Origin, true
	case ListItem:
		return b.Origin, true
	case Paragraph:
		return b.Origin, true
	default:
		return Origin{}, false
	}
}

// Spans returns the spans of a block. A code fence is a single unmarked span.
func Spans(b Block) []Span {
	switch b := b.(type) {
	case Heading:
		return b.Spans
	case Blockquote:
		return b.Spans
	case ListItem:
		return b.Spans
	case Paragraph:
		return b.Spans
	case CodeFence:
		if b.Text == "" {
			return []Span{{Text: Placeholder, Placeholder: true}}
		}
		return []Span{{Text: b.Text}}
	default:
		return nil
	}
}

// AnnotatedDocument is the ordered block sequence handed to renderers.
type AnnotatedDocument struct {
	Blocks []Block
}

// HasChanges reports whether any block differs between the two sides. A
// block whose only change is its line prefix still counts.
func (d AnnotatedDocument) HasChanges() bool {
	for _, b := range d.Blocks {
		if fence, ok := b.(CodeFence); ok {
			if !slices.Equal(fence.OldLines, fence.NewLines) {
				return true
			}
			continue
		}
		if origin, ok := BlockOrigin(b); ok && origin.Op != OpEqual {
			return true
		}
		for _, s := range Spans(b) {
			if s.Mark != MarkNone {
				return true
			}
		}
	}
	return false
}

// Summary holds the results of a command for display.
type Summary struct {
	File    string
	Version string
	Added   int
	Changed int
	Deleted int
	Message string
}
