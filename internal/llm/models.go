package llm

import (
	"slices"
	"strings"
)

// DefaultModelID is the model selected for a fresh install.
const DefaultModelID = "openai/gpt-oss-120b"

// Capability is a feature tag attached to a model descriptor.
type Capability string

const (
	CapabilityVision        Capability = "vision"
	CapabilityWebSearch     Capability = "web_search"
	CapabilityCodeExecution Capability = "code_execution"
	CapabilityReasoning     Capability = "reasoning"
)

var knownCapabilities = []Capability{
	CapabilityVision,
	CapabilityWebSearch,
	CapabilityCodeExecution,
	CapabilityReasoning,
}

// ParseCapabilities converts free-form tags to capabilities. Unknown tags are
// dropped, since the remote catalog may grow new ones.
func ParseCapabilities(tags []string) []Capability {
	var caps []Capability
	for _, tag := range tags {
		c := Capability(strings.ToLower(strings.TrimSpace(tag)))
		if slices.Contains(knownCapabilities, c) && !slices.Contains(caps, c) {
			caps = append(caps, c)
		}
	}
	return caps
}

// ModelDescriptor describes a selectable model.
type ModelDescriptor struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Capabilities []Capability `json:"capabilities,omitempty"`
}

// Has reports whether the model advertises capability c.
func (d ModelDescriptor) Has(c Capability) bool {
	return slices.Contains(d.Capabilities, c)
}

// DefaultModels is the built-in catalog.
var DefaultModels = []ModelDescriptor{
	{ID: "llama-3.1-8b-instant", Name: "Llama 3.1 8B Instant"},
	{ID: "llama-3.3-70b-versatile", Name: "Llama 3.3 70B Versatile"},
	{ID: "openai/gpt-oss-120b", Name: "GPT OSS 120B", Capabilities: []Capability{CapabilityReasoning}},
	{ID: "openai/gpt-oss-20b", Name: "GPT OSS 20B", Capabilities: []Capability{CapabilityReasoning}},
	{ID: "groq/compound", Name: "Groq Compound", Capabilities: []Capability{CapabilityWebSearch, CapabilityCodeExecution}},
	{ID: "groq/compound-mini", Name: "Groq Compound Mini", Capabilities: []Capability{CapabilityWebSearch, CapabilityCodeExecution}},
}

// Catalog is an ordered, id-unique list of model descriptors.
type Catalog struct {
	models []ModelDescriptor
}

// NewCatalog returns a catalog holding models in order. Later duplicates of an
// id are ignored.
func NewCatalog(models []ModelDescriptor) *Catalog {
	c := &Catalog{}
	for _, m := range models {
		c.add(m)
	}
	return c
}

func (c *Catalog) add(m ModelDescriptor) bool {
	if m.ID == "" {
		return false
	}
	if _, ok := c.Lookup(m.ID); ok {
		return false
	}
	if m.Name == "" {
		m.Name = m.ID
	}
	c.models = append(c.models, m)
	return true
}

// Lookup finds a model by id.
func (c *Catalog) Lookup(id string) (ModelDescriptor, bool) {
	for _, m := range c.models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelDescriptor{}, false
}

// Models returns a copy of the catalog entries.
func (c *Catalog) Models() []ModelDescriptor {
	return slices.Clone(c.models)
}

// Merge returns a new catalog with the entries of c followed by the remote
// ids it does not already know.
func (c *Catalog) Merge(remote []RemoteModel) *Catalog {
	merged := NewCatalog(c.models)
	for _, r := range remote {
		merged.add(ModelDescriptor{ID: r.ID, Name: r.ID, Capabilities: ParseCapabilities(r.Capabilities)})
	}
	return merged
}
