package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/extractor.txt
var extractorRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Extractor string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Extractor: strings.TrimSpace(extractorRaw),
	}
}
