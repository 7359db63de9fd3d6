package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agenthands/docintel/internal/config"
)

// ErrUnsupportedType is returned for files the parser cannot read.
var ErrUnsupportedType = errors.New("unsupported document type")

type Page struct {
	Number   int
	Markdown string
}

type Document struct {
	Name  string
	Title string
	Pages []Page
}

// Text joins the page contents with a blank line, skipping empty pages.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		if strings.TrimSpace(p.Markdown) == "" {
			continue
		}
		parts = append(parts, p.Markdown)
	}
	return strings.Join(parts, "\n\n")
}

type Parser interface {
	Parse(ctx context.Context, path string) (*Document, error)
}

func New(cfg config.ParserConfig) (Parser, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "local":
		return NewLocalParser(), nil
	case "llamaparse":
		if cfg.LlamaAPIKey == "" {
			return nil, fmt.Errorf("llamaparse requires an api key")
		}
		return NewLlamaParseClient(cfg.LlamaAPIKey, cfg.BaseURL,
			time.Duration(cfg.PollIntervalMS)*time.Millisecond,
			time.Duration(cfg.TimeoutS)*time.Second), nil
	default:
		return nil, fmt.Errorf("unsupported parser provider: %s", cfg.Provider)
	}
}
