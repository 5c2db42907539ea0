// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the runtime configuration for the swarm service:
// a YAML file (optional), overlaid with .env/.env.local, overlaid with a
// small set of documented environment variables that always win. Each
// sub-config follows the same SetDefaults/Validate shape.
package config

import (
	"fmt"

	"github.com/agentswarm/core/pkg/auth"
	"github.com/agentswarm/core/pkg/checkpoint"
	"github.com/agentswarm/core/pkg/observability"
	"github.com/agentswarm/core/pkg/workflow"
)

// Config is the root configuration tree for the swarm service.
type Config struct {
	Server        ServerConfig         `yaml:"server,omitempty"`
	Workflow      WorkflowConfig       `yaml:"workflow,omitempty"`
	Checkpoint    CheckpointConfig     `yaml:"checkpoint,omitempty"`
	Collaborators CollaboratorsConfig  `yaml:"collaborators,omitempty"`
	Audit         AuditConfig          `yaml:"audit,omitempty"`
	Auth          AuthConfig           `yaml:"auth,omitempty"`
	Observability observability.Config `yaml:"observability,omitempty"`
}

// SetDefaults fills in every sub-config's zero values.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Workflow.SetDefaults()
	c.Checkpoint.SetDefaults()
	c.Collaborators.SetDefaults()
	c.Audit.SetDefaults()
	c.Auth.SetDefaults()
	c.Observability.SetDefaults()
}

// Validate checks every sub-config, returning the first error found
// wrapped with the sub-config's name.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Workflow.Validate(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if err := c.Checkpoint.Validate(); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := c.Collaborators.Validate(); err != nil {
		return fmt.Errorf("collaborators: %w", err)
	}
	if err := c.Audit.Validate(); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}

// EngineConfig converts WorkflowConfig into the shape pkg/workflow's
// engine actually consumes.
func (c *Config) EngineConfig() workflow.Config {
	return c.Workflow.EngineConfig()
}

// AuthSettings converts AuthConfig into the decoupled settings shape
// pkg/auth consumes, so pkg/config never has to import pkg/auth's JWKS
// machinery, only its narrow Settings contract.
func (c *Config) AuthSettings() auth.Settings {
	return c.Auth.Settings()
}

// CheckpointStore builds the checkpoint.Store named by Checkpoint.Backend.
func (c *Config) CheckpointStore() (checkpoint.Store, error) {
	return c.Checkpoint.NewStore()
}

// AuthValidator builds the auth.TokenValidator named by AuthConfig, or
// (nil, nil) when auth is disabled.
func (c *Config) AuthValidator() (auth.TokenValidator, error) {
	return auth.NewValidatorFromSettings(c.AuthSettings())
}
