package parser

import (
	"regexp"
	"strings"

	"github.com/sokinpui/revise/model"
)

// Patterns are tried in this order; the first match wins.
var (
	fenceRegex      = regexp.MustCompile("^```([\\w+#.-]*)[ \\t]*$")
	headingRegex    = regexp.MustCompile(`^(#{1,6}[ \t])(.*\S.*)$`)
	blockquoteRegex = regexp.MustCompile(`^>[ \t]?`)
	bulletRegex     = regexp.MustCompile(`^[-*+][ \t]`)
	orderedRegex    = regexp.MustCompile(`^\d+\.[ \t]+`)
)

// Classify assigns a single line to a block type and splits it into the
// markdown prefix and the content. Prefix+Content reproduces the line for
// every non-empty classification.
func Classify(line string) model.ParsedLine {
	if strings.TrimSpace(line) == "" {
		return model.ParsedLine{BlockType: model.BlockParagraph, IsEmpty: true}
	}

	if m := fenceRegex.FindStringSubmatch(line); m != nil {
		return model.ParsedLine{
			BlockType: model.BlockCodeFence,
			Language:  m[1],
			Content:   line,
		}
	}

	if m := headingRegex.FindStringSubmatch(line); m != nil {
		return model.ParsedLine{
			BlockType: model.BlockHeading,
			Level:     strings.Count(m[1], "#"),
			Prefix:    m[1],
			Content:   m[2],
		}
	}

	if loc := blockquoteRegex.FindStringIndex(line); loc != nil {
		return split(model.BlockBlockquote, line, loc[1])
	}
	if loc := bulletRegex.FindStringIndex(line); loc != nil {
		return split(model.BlockListItem, line, loc[1])
	}
	if loc := orderedRegex.FindStringIndex(line); loc != nil {
		return split(model.BlockListItem, line, loc[1])
	}

	return model.ParsedLine{BlockType: model.BlockParagraph, Content: line}
}

func split(t model.BlockType, line string, at int) model.ParsedLine {
	return model.ParsedLine{BlockType: t, Prefix: line[:at], Content: line[at:]}
}

// IsFence reports whether the line opens or closes a fenced code block.
func IsFence(line string) bool {
	return fenceRegex.MatchString(line)
}
