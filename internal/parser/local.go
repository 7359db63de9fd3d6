package parser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// LocalParser reads PDF, markdown and plain text files without a remote service.
type LocalParser struct {
	md goldmark.Markdown
}

func NewLocalParser() *LocalParser {
	return &LocalParser{md: goldmark.New()}
}

func (p *LocalParser) Parse(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		pages, err := pdfPages(content)
		if err != nil {
			return nil, fmt.Errorf("parse pdf %s: %w", name, err)
		}
		return &Document{Name: name, Pages: pages}, nil
	case ".md", ".markdown":
		return &Document{
			Name:  name,
			Title: p.markdownTitle(content),
			Pages: []Page{{Number: 1, Markdown: string(content)}},
		}, nil
	case ".txt", ".text":
		return &Document{Name: name, Pages: []Page{{Number: 1, Markdown: string(content)}}}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, name)
	}
}

func pdfPages(content []byte) ([]Page, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("empty PDF content")
	}
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var pages []Page
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			continue // unreadable page
		}
		txt = strings.TrimSpace(txt)
		if txt == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Markdown: txt})
	}
	return pages, nil
}

// markdownTitle returns the text of the first heading, or "" if there is none.
func (p *LocalParser) markdownTitle(src []byte) string {
	doc := p.md.Parser().Parse(text.NewReader(src))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var sb strings.Builder
		lines := h.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(src))
		}
		title = strings.TrimSpace(sb.String())
		return ast.WalkStop, nil
	})
	return title
}
