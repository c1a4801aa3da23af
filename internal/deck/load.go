/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package deck

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type assetPrompt struct {
	Text string `json:"text"`
	Pick int    `json:"pick"`
}

type assetPack struct {
	Name     string `json:"name"`
	Answers  []int  `json:"answers"`
	Prompts  []int  `json:"prompts"`
	Official bool   `json:"official"`
}

type assetDocument struct {
	Answers []string      `json:"answers"`
	Prompts []assetPrompt `json:"prompts"`
	Packs   []assetPack   `json:"packs"`
}

// Load parses a JSON deck asset into a ready-to-use combiner. Blank cards
// and unnamed packs are skipped rather than treated as fatal; only an
// unreadable or syntactically invalid document is an error.
//
// Skipping entries would shift the positions later cards load into, so
// blank cards keep their slot but are never referenced: pack indices
// pointing at them are dropped during load.
func Load(r io.Reader) (*Combiner, error) {
	var doc assetDocument

	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing deck asset: %w", err)
	}

	catalog := Catalog{
		Answers: doc.Answers,
		Prompts: make([]Prompt, len(doc.Prompts)),
	}

	for i, p := range doc.Prompts {
		pick := p.Pick
		if pick < 1 {
			pick = 1
		}
		catalog.Prompts[i] = Prompt{
			Text: p.Text,
			Pick: pick,
		}
	}

	packs := make([]Pack, 0, len(doc.Packs))
	for _, p := range doc.Packs {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		packs = append(packs, Pack{
			Name:          p.Name,
			AnswerIndices: pruneIndices(p.Answers, blankAnswers(catalog.Answers)),
			PromptIndices: pruneIndices(p.Prompts, blankPrompts(catalog.Prompts)),
			Official:      p.Official,
		})
	}

	return NewCombiner(catalog, packs), nil
}

func blankAnswers(answers []string) map[int]bool {
	blank := make(map[int]bool)
	for i, text := range answers {
		if strings.TrimSpace(text) == "" {
			blank[i] = true
		}
	}
	return blank
}

func blankPrompts(prompts []Prompt) map[int]bool {
	blank := make(map[int]bool)
	for i, p := range prompts {
		if strings.TrimSpace(p.Text) == "" {
			blank[i] = true
		}
	}
	return blank
}

func pruneIndices(indices []int, blank map[int]bool) []int {
	kept := make([]int, 0, len(indices))
	for _, i := range indices {
		if blank[i] {
			continue
		}
		kept = append(kept, i)
	}
	return kept
}
