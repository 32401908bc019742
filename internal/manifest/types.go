package manifest

import (
	"go.yaml.in/yaml/v3"
)

// Manifest is a single agent's nanobot.yaml declaration: the capabilities it
// publishes, the agent definitions it contributes, and the helper-process
// launch configuration for its MCP servers. The merged project manifest uses
// the same shape.
type Manifest struct {
	Publish    Publish                 `yaml:"publish"`
	Agents     map[string]any          `yaml:"agents"`
	MCPServers map[string]ServerConfig `yaml:"mcpServers"`
	MinVersion string                  `yaml:"minVersion,omitempty"`
}

// Publish lists the capabilities a manifest exposes. Tools, resources, and
// resourceTemplates are plain names/URIs; prompts may additionally appear as
// single-key mappings (see PromptEntry). Entrypoint names the primary agent
// a consumer should invoke by default.
type Publish struct {
	Tools             []string      `yaml:"tools"`
	Prompts           []PromptEntry `yaml:"prompts"`
	Resources         []string      `yaml:"resources"`
	ResourceTemplates []string      `yaml:"resourceTemplates"`
	Entrypoint        string        `yaml:"entrypoint,omitempty"`
}

// UnmarshalYAML accepts the documented mapping form as well as the legacy
// bare-list form, where the whole publish value is the tools list.
func (p *Publish) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		return node.Decode(&p.Tools)
	}
	type plain Publish
	return node.Decode((*plain)(p))
}

// PromptEntry is one element of publish.prompts. A plain string is taken
// verbatim; a single-key mapping {key: value} normalizes to value, or to the
// literal template string "{key}" when value is null. Anything else decodes
// with Valid false and is dropped during the merge.
type PromptEntry struct {
	Value string `yaml:"-"`
	Valid bool   `yaml:"-"`
}

// Prompt returns a valid PromptEntry for the given name. Test and scaffold
// helper; parsed entries come from UnmarshalYAML.
func Prompt(name string) PromptEntry {
	return PromptEntry{Value: name, Valid: true}
}

func (p *PromptEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		p.Value = node.Value
		p.Valid = true
	case yaml.MappingNode:
		// Exactly one key/value pair; Content holds them flattened.
		if len(node.Content) != 2 {
			return nil
		}
		key, val := node.Content[0], node.Content[1]
		if val.Tag == "!!null" {
			p.Value = "{" + key.Value + "}"
		} else {
			p.Value = val.Value
		}
		p.Valid = true
	}
	return nil
}

func (p PromptEntry) MarshalYAML() (any, error) {
	return p.Value, nil
}

// ServerConfig is one named mcpServers launch declaration. Manifest entries
// that are null or not a mapping decode to the zero value with Declared left
// false, so the merge can skip them without a dynamic type check.
type ServerConfig struct {
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Extra   map[string]any    `yaml:",inline"`

	Declared bool `yaml:"-"`
}

func (s *ServerConfig) UnmarshalYAML(node *yaml.Node) error {
	// Null nodes never reach this method (the decoder leaves the zero
	// value), so only non-mapping garbage needs rejecting here.
	if node.Kind != yaml.MappingNode {
		return nil
	}
	type plain ServerConfig
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	s.Declared = true
	return nil
}
