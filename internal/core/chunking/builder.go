package chunking

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/agenthands/docintel/internal/config"
	"github.com/agenthands/docintel/internal/core/model"
)

// Separators are tried in order: paragraph, line, sentence, word, then a hard cut.
var Separators = []string{"\n\n", "\n", ". ", " ", ""}

type Builder struct {
	parent textsplitter.RecursiveCharacter
	child  textsplitter.RecursiveCharacter
	newID  func() string
}

func NewBuilder(cfg config.ChunkingConfig) *Builder {
	return &Builder{
		parent: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ParentSize),
			textsplitter.WithChunkOverlap(cfg.ParentOverlap),
			textsplitter.WithSeparators(Separators),
		),
		child: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChildSize),
			textsplitter.WithChunkOverlap(cfg.ChildOverlap),
			textsplitter.WithSeparators(Separators),
		),
		newID: func() string { return uuid.New().String() },
	}
}

// Build splits text into parent windows and splits each parent into child windows.
// Every child carries the ID of the parent it was cut from. Blank text yields no chunks.
func (b *Builder) Build(text, source string) ([]model.ParentChunk, []model.ChildChunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, nil
	}

	parentTexts, err := b.parent.SplitText(text)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to split parent chunks: %w", err)
	}

	var parents []model.ParentChunk
	var children []model.ChildChunk
	for _, pt := range parentTexts {
		if strings.TrimSpace(pt) == "" {
			continue
		}
		parent := model.ParentChunk{
			ID:     b.newID(),
			Index:  len(parents),
			Text:   pt,
			Source: source,
		}
		parents = append(parents, parent)

		childTexts, err := b.child.SplitText(pt)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to split child chunks of parent %d: %w", parent.Index, err)
		}
		for _, ct := range childTexts {
			if strings.TrimSpace(ct) == "" {
				continue
			}
			children = append(children, model.ChildChunk{
				Index:    len(children),
				Text:     ct,
				ParentID: parent.ID,
				Source:   source,
			})
		}
	}

	return parents, children, nil
}
