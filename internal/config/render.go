package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

const mask = "********"

// Masked returns a copy with secrets replaced.
func (c Config) Masked() Config {
	if c.Mail.Password != "" {
		c.Mail.Password = mask
	}
	if c.LLM.APIKey != "" {
		c.LLM.APIKey = mask
	}
	return c
}

// YAML renders the effective configuration with secrets masked.
func (c Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c.Masked())
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

// Schema returns the JSON Schema of Config.
func Schema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            false,
		ExpandedStruct:            true,
	}
	schema := reflector.Reflect(&Config{})
	schema.Title = "client-sim configuration"
	schema.Description = "Environment driven configuration of the client simulator"

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return out, nil
}
