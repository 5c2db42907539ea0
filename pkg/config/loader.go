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
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from path (if non-empty), applies .env/
// .env.local, then the documented environment variables, then defaults,
// then validates. path may be empty, in which case Config starts from
// its zero value and is built up entirely from the environment.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		rawMap, err := parseBytes(data)
		if err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		expanded := expandEnvVarsInData(rawMap)
		expandedMap, ok := expanded.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("config file %s must decode to a mapping", path)
		}

		if err := decodeConfig(expandedMap, cfg); err != nil {
			return nil, fmt.Errorf("decode config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// parseBytes parses raw bytes into a map. YAML is tried first since it
// is a superset of JSON.
func parseBytes(data []byte) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := yaml.Unmarshal(data, &result); err == nil {
		return result, nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("not valid YAML or JSON: %w", err)
	}
	return result, nil
}

// decodeConfig decodes a map into a Config struct using mapstructure,
// matching keys against the "yaml" struct tags.
func decodeConfig(input map[string]interface{}, output *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	return decoder.Decode(input)
}

// applyEnvOverrides applies the documented environment variables on top
// of whatever the config file (or defaults) already set. These always
// win, matching a 12-factor deployment where the file ships a baseline
// and the environment supplies the per-deployment values.
func applyEnvOverrides(cfg *Config) {
	if v, ok := envInt("MAX_RETRIES"); ok {
		cfg.Workflow.MaxRetries = v
	}
	if v, ok := envInt("WORKFLOW_TIMEOUT_SECONDS"); ok {
		cfg.Workflow.TimeoutSeconds = v
	}
	if v := os.Getenv("CHECKPOINT_BACKEND"); v != "" {
		cfg.Checkpoint.Backend = CheckpointBackend(v)
	}
	if v := os.Getenv("LLM_ENDPOINT"); v != "" {
		cfg.Collaborators.LLMEndpoint = v
	}
	if v := os.Getenv("REPO_ENDPOINT"); v != "" {
		cfg.Collaborators.RepoEndpoint = v
	}
	if v := os.Getenv("AUDIT_DB_URL"); v != "" {
		cfg.Audit.DBURL = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORS.applyCORSOriginsEnv(v)
	}
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}
