package analysis

import "strings"

// Provenance tags a result with the embedding family it most likely came from.
type Provenance struct {
	Family string

	// Basis names what decided the family: "model", "dimension" or "none".
	Basis string
}

// Provenance families.
const (
	FamilyOpenAI               = "openai"
	FamilyCohere               = "cohere"
	FamilyNomic                = "nomic"
	FamilyMixedbread           = "mixedbread"
	FamilyBGE                  = "bge"
	FamilySentenceTransformers = "sentence-transformers"
	FamilyUnknown              = "unknown"
)

type provenanceRule struct {
	family  string
	basis   string
	matches func(model string, dimension int) bool
}

// provenanceRules is evaluated top to bottom and the first match wins.
// Explicit model names take precedence over dimension shapes.
var provenanceRules = []provenanceRule{
	{FamilyOpenAI, "model", modelPrefix("text-embedding-")},
	{FamilyCohere, "model", modelPrefix("embed-english", "embed-multilingual")},
	{FamilyNomic, "model", modelPrefix("nomic-embed", "nomic-ai/")},
	{FamilyMixedbread, "model", modelPrefix("mxbai-embed", "mixedbread-ai/")},
	{FamilyBGE, "model", modelPrefix("bge-", "baai/bge")},
	{FamilySentenceTransformers, "model", modelPrefix("sentence-transformers/", "all-minilm", "all-mpnet")},
	{FamilyOpenAI, "dimension", dimensionIn(1536, 3072)},
	{FamilySentenceTransformers, "dimension", dimensionIn(384)},
}

// ClassifyProvenance maps an embedding model name and vector dimension to a
// provenance family using a fixed, ordered rule list.
func ClassifyProvenance(model string, dimension int) Provenance {
	normalized := strings.ToLower(strings.TrimSpace(model))
	for _, rule := range provenanceRules {
		if rule.matches(normalized, dimension) {
			return Provenance{Family: rule.family, Basis: rule.basis}
		}
	}
	return Provenance{Family: FamilyUnknown, Basis: "none"}
}

func (p Provenance) String() string {
	if p.Basis == "none" || p.Basis == "" {
		return p.Family
	}
	return p.Family + " (by " + p.Basis + ")"
}

func modelPrefix(prefixes ...string) func(string, int) bool {
	return func(model string, _ int) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(model, prefix) {
				return true
			}
		}
		return false
	}
}

func dimensionIn(dimensions ...int) func(string, int) bool {
	return func(_ string, dimension int) bool {
		for _, candidate := range dimensions {
			if dimension == candidate {
				return true
			}
		}
		return false
	}
}
