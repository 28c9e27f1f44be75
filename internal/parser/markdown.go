package parser

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CodeBlock is a fenced code block found by the markdown parser.
type CodeBlock struct {
	Lang    string `json:"lang"`
	Content string `json:"content"`
	// Line is the 1-based line of the block's first content line, or 0 for
	// an empty block.
	Line int `json:"line"`
}

// Preview is the HTML rendering of a markdown text.
type Preview struct {
	HTML       string      `json:"html"`
	CodeBlocks []CodeBlock `json:"code_blocks"`
}

var markdown = goldmark.New()

// RenderPreview renders markdown to HTML and lists its fenced code blocks.
func RenderPreview(source []byte) (Preview, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(source, &buf); err != nil {
		return Preview{}, fmt.Errorf("failed to render markdown: %w", err)
	}
	blocks, err := ExtractCodeBlocks(source)
	if err != nil {
		return Preview{}, err
	}
	return Preview{HTML: buf.String(), CodeBlocks: blocks}, nil
}

// ExtractCodeBlocks walks the markdown AST and collects every fenced code block.
func ExtractCodeBlocks(source []byte) ([]CodeBlock, error) {
	blocks := []CodeBlock{}
	root := markdown.Parser().Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		block := CodeBlock{Lang: string(fenced.Language(source))}

		var content bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			if i == 0 {
				block.Line = bytes.Count(source[:seg.Start], []byte("\n")) + 1
			}
			content.Write(seg.Value(source))
		}
		block.Content = content.String()

		blocks = append(blocks, block)
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil, err
	}
	return blocks, nil
}
