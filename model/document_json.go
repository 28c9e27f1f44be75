package model

import "encoding/json"

type spanJSON struct {
	Text string `json:"text"`
	Mark string `json:"mark,omitempty"`
}

type blockJSON struct {
	BlockType string     `json:"block_type"`
	Op        string     `json:"op,omitempty"`
	Level     int        `json:"level,omitempty"`
	Language  string     `json:"language,omitempty"`
	Prefix    string     `json:"prefix,omitempty"`
	Spans     []spanJSON `json:"spans"`
}

// MarshalJSON encodes the document as the flat block list renderers consume.
func (d AnnotatedDocument) MarshalJSON() ([]byte, error) {
	out := make([]blockJSON, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		bj := blockJSON{BlockType: b.Type().String()}
		switch b := b.(type) {
		case Heading:
			bj.Level = b.Level
		case CodeFence:
			bj.Language = b.Language
		}
		if origin, ok := BlockOrigin(b); ok {
			bj.Op = origin.Op.String()
			if origin.Op == OpDelete {
				bj.Prefix = origin.OldPrefix
			} else {
				bj.Prefix = origin.NewPrefix
			}
		}
		for _, s := range Spans(b) {
			bj.Spans = append(bj.Spans, spanJSON{Text: s.Text, Mark: s.Mark.String()})
		}
		out = append(out, bj)
	}
	return json.Marshal(out)
}
