package domain

import "strings"

// EngineGemini is the only generative engine a style may declare. Any other
// value (or none) routes the job through the local compositor.
const EngineGemini = "gemini"

// PalettePlaceholder is the literal token style prompts carry where the
// palette should be substituted.
const PalettePlaceholder = "{{palette}}"

// MinVariants is the product floor: every job yields at least two variants.
const MinVariants = 2

// StyleParams is decoded from the styles.params jsonb column.
type StyleParams struct {
	Engine   string `json:"engine,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	Negative string `json:"negative,omitempty"`
	Variants int    `json:"variants,omitempty"`
}

// Style is a named, read-only visual configuration row.
type Style struct {
	Key    string
	Label  string
	Params StyleParams
}

// PromptFor substitutes the palette, joined as a human-readable list, into
// the style's prompt template.
func (s Style) PromptFor(palette []string) string {
	return strings.ReplaceAll(s.Params.Prompt, PalettePlaceholder, strings.Join(palette, ", "))
}

// VariantCount returns the number of variants to request, never below the
// product floor of two.
func (s Style) VariantCount() int {
	if s.Params.Variants > MinVariants {
		return s.Params.Variants
	}
	return MinVariants
}

// WantsAI reports whether the style asks for the generative engine.
func (s Style) WantsAI() bool {
	return s.Params.Engine == EngineGemini
}
