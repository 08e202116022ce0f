package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCapabilities_UnknownTagsAreInert(t *testing.T) {
	caps := ParseCapabilities([]string{"web_search", "teleportation", " Code_Execution ", "web_search"})
	assert.Equal(t, []Capability{CapabilityWebSearch, CapabilityCodeExecution}, caps)
	assert.Empty(t, ParseCapabilities(nil))
}

func TestCatalog(t *testing.T) {
	catalog := NewCatalog(DefaultModels)

	def, ok := catalog.Lookup(DefaultModelID)
	assert.True(t, ok)
	assert.Equal(t, "GPT OSS 120B", def.Name)

	compound, ok := catalog.Lookup("groq/compound")
	assert.True(t, ok)
	assert.True(t, compound.Has(CapabilityWebSearch))
	assert.False(t, compound.Has(CapabilityVision))

	_, ok = catalog.Lookup("missing")
	assert.False(t, ok)

	t.Run("Merge appends unknown remote ids", func(t *testing.T) {
		merged := catalog.Merge([]RemoteModel{
			{ID: "llama-3.1-8b-instant"},
			{ID: "whisper-large-v3", Capabilities: []string{"audio"}},
			{ID: "meta-llama/llama-4-scout-17b-16e-instruct", Capabilities: []string{"vision"}},
		})

		models := merged.Models()
		assert.Len(t, models, len(DefaultModels)+2)
		assert.Equal(t, "whisper-large-v3", models[len(DefaultModels)].Name)
		assert.Empty(t, models[len(DefaultModels)].Capabilities)

		scout, ok := merged.Lookup("meta-llama/llama-4-scout-17b-16e-instruct")
		assert.True(t, ok)
		assert.True(t, scout.Has(CapabilityVision))

		// The source catalog is untouched.
		assert.Len(t, catalog.Models(), len(DefaultModels))
	})
}
