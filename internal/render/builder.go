package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Builder edits an HTML fragment as a sequence of top-level blocks. It
// deliberately exposes only block-level operations so callers never depend
// on traversal order inside the fragment.
type Builder struct {
	doc *goquery.Document
}

// NewBuilder parses an HTML fragment into a Builder.
func NewBuilder(fragment string) (*Builder, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	return &Builder{doc: doc}, nil
}

// PrependBlock inserts markup ahead of the first block.
func (b *Builder) PrependBlock(markup string) {
	b.doc.Find("body").PrependHtml(markup)
}

// AppendBlock inserts markup after the last block.
func (b *Builder) AppendBlock(markup string) {
	b.doc.Find("body").AppendHtml(markup)
}

// WrapFirst inserts text at the start of the first block's content.
func (b *Builder) WrapFirst(text string) {
	blocks := b.blocks()
	if blocks.Length() == 0 {
		b.PrependBlock(text)
		return
	}
	blocks.First().PrependHtml(text)
}

// WrapLast appends text to the end of the last block's content.
func (b *Builder) WrapLast(text string) {
	blocks := b.blocks()
	if blocks.Length() == 0 {
		b.AppendBlock(text)
		return
	}
	blocks.Last().AppendHtml(text)
}

// HTML serializes the fragment back to a string.
func (b *Builder) HTML() (string, error) {
	out, err := b.doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("serialize fragment: %w", err)
	}
	return out, nil
}

func (b *Builder) blocks() *goquery.Selection {
	return b.doc.Find("body").Children()
}
