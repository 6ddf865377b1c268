// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskcore

import "fmt"

// AgentProvider identifies the organization operating an agent.
type AgentProvider struct {
	Organization string `json:"organization" toml:"organization"`
	URL          string `json:"url,omitzero" toml:"url"`
}

// AgentCapabilities advertises the optional protocol features an agent
// supports.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming" toml:"streaming"`
	PushNotifications bool `json:"pushNotifications" toml:"push_notifications"`
}

// AgentSkill describes one capability of an agent.
type AgentSkill struct {
	ID          string   `json:"id" toml:"id"`
	Name        string   `json:"name" toml:"name"`
	Description string   `json:"description,omitzero" toml:"description"`
	Tags        []string `json:"tags,omitzero" toml:"tags"`
	Examples    []string `json:"examples,omitzero" toml:"examples"`
	InputModes  []string `json:"inputModes,omitzero" toml:"input_modes"`
	OutputModes []string `json:"outputModes,omitzero" toml:"output_modes"`
}

// Validate ensures the AgentSkill is valid.
func (s AgentSkill) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("agent skill ID cannot be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("agent skill name cannot be empty")
	}
	return nil
}

// AgentCard is the self-description an agent serves from
// agent/getCard.
type AgentCard struct {
	Name               string            `json:"name" toml:"name"`
	Description        string            `json:"description,omitzero" toml:"description"`
	URL                string            `json:"url" toml:"url"`
	Provider           *AgentProvider    `json:"provider,omitzero" toml:"provider"`
	Version            string            `json:"version" toml:"version"`
	Capabilities       AgentCapabilities `json:"capabilities" toml:"capabilities"`
	DefaultInputModes  []string          `json:"defaultInputModes,omitzero" toml:"default_input_modes"`
	DefaultOutputModes []string          `json:"defaultOutputModes,omitzero" toml:"default_output_modes"`
	Skills             []AgentSkill      `json:"skills" toml:"skills"`
}

// Validate ensures the AgentCard is valid.
func (c AgentCard) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("agent card name cannot be empty")
	}
	if c.URL == "" {
		return fmt.Errorf("agent card URL cannot be empty")
	}
	if c.Version == "" {
		return fmt.Errorf("agent card version cannot be empty")
	}
	for i, skill := range c.Skills {
		if err := skill.Validate(); err != nil {
			return fmt.Errorf("agent skill at index %d is invalid: %w", i, err)
		}
	}
	return nil
}
