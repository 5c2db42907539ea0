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

package config

import (
	"fmt"
	"time"

	"github.com/agentswarm/core/pkg/workflow"
)

// WorkflowConfig configures the phase engine's retry and deadline
// behavior. Mirrors the MAX_RETRIES and WORKFLOW_TIMEOUT_SECONDS
// environment variables.
type WorkflowConfig struct {
	// MaxRetries bounds the debug/retry loop a phase can take before
	// the workflow is marked failed.
	// Default: 3
	MaxRetries int `yaml:"max_retries,omitempty"`

	// TimeoutSeconds is the wall-clock budget for an entire workflow
	// run, from start to finalization.
	// Default: 1800
	TimeoutSeconds int `yaml:"workflow_timeout_seconds,omitempty"`
}

// SetDefaults applies default values to WorkflowConfig.
func (c *WorkflowConfig) SetDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = workflow.DefaultMaxRetries
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 1800
	}
}

// Validate checks the WorkflowConfig for errors.
func (c *WorkflowConfig) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("workflow_timeout_seconds must be > 0, got %d", c.TimeoutSeconds)
	}
	return nil
}

// EngineConfig converts WorkflowConfig into the workflow engine's own
// Config shape.
func (c *WorkflowConfig) EngineConfig() workflow.Config {
	return workflow.Config{
		MaxRetries:        c.MaxRetries,
		GlobalTimeout:     time.Duration(c.TimeoutSeconds) * time.Second,
		CollectionTimeout: 30 * time.Second,
	}
}
