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

	"github.com/agentswarm/core/pkg/checkpoint"
)

// CheckpointBackend names a checkpoint.Store implementation.
type CheckpointBackend string

const (
	// CheckpointBackendMemory loses all checkpoints on restart.
	CheckpointBackendMemory CheckpointBackend = "memory"

	// CheckpointBackendKV is the external key-value store (sqlite)
	// that survives process restarts.
	CheckpointBackendKV CheckpointBackend = "kv"
)

// CheckpointConfig configures workflow checkpoint persistence (§4.4).
// Mirrors the CHECKPOINT_BACKEND environment variable.
type CheckpointConfig struct {
	// Backend selects the Store implementation: "memory" (default) or
	// "kv".
	Backend CheckpointBackend `yaml:"backend,omitempty"`

	// Path is the sqlite file path used when Backend is "kv".
	// Default: "checkpoints.db"
	Path string `yaml:"path,omitempty"`
}

// SetDefaults applies default values to CheckpointConfig.
func (c *CheckpointConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = CheckpointBackendMemory
	}
	if c.Backend == CheckpointBackendKV && c.Path == "" {
		c.Path = "checkpoints.db"
	}
}

// Validate checks the CheckpointConfig for errors.
func (c *CheckpointConfig) Validate() error {
	switch c.Backend {
	case CheckpointBackendMemory, CheckpointBackendKV:
		return nil
	default:
		return fmt.Errorf("invalid backend %q (valid: memory, kv)", c.Backend)
	}
}

// NewStore builds the checkpoint.Store named by Backend.
func (c *CheckpointConfig) NewStore() (checkpoint.Store, error) {
	switch c.Backend {
	case CheckpointBackendKV:
		return checkpoint.NewSQLiteStore(c.Path)
	default:
		return checkpoint.NewMemoryStore(), nil
	}
}
