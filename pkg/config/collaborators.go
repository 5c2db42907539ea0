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
	"net/url"
)

// CollaboratorsConfig locates the external collaborator services the
// core treats as opaque (§6 "Collaborator interfaces consumed by the
// core"): the language-model completion endpoint and the repository
// fetch gateway. Mirrors the LLM_ENDPOINT and REPO_ENDPOINT environment
// variables. Left empty, the runtime falls back to the local in-process
// stand-ins in pkg/collaborators.
type CollaboratorsConfig struct {
	// LLMEndpoint is the base URL of the "POST /complete" language
	// model collaborator.
	LLMEndpoint string `yaml:"llm_endpoint,omitempty"`

	// RepoEndpoint is the base URL of the "GET /repo/tree" and
	// "GET /repo/file" repository fetch collaborator.
	RepoEndpoint string `yaml:"repo_endpoint,omitempty"`
}

// SetDefaults applies default values to CollaboratorsConfig.
func (c *CollaboratorsConfig) SetDefaults() {}

// Validate checks the CollaboratorsConfig for errors.
func (c *CollaboratorsConfig) Validate() error {
	if err := validURL("llm_endpoint", c.LLMEndpoint); err != nil {
		return err
	}
	if err := validURL("repo_endpoint", c.RepoEndpoint); err != nil {
		return err
	}
	return nil
}

// Local returns true when no remote collaborator endpoints are
// configured, meaning the runtime should use the local stand-ins.
func (c *CollaboratorsConfig) Local() bool {
	return c.LLMEndpoint == "" && c.RepoEndpoint == ""
}

func validURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid URL %q: %w", field, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: %q must be an http(s) URL", field, raw)
	}
	return nil
}
