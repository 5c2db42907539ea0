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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SubmitCmd posts a task to a running server's /tasks/create route.
type SubmitCmd struct {
	Server    string   `help:"Server base URL." default:"http://localhost:8080"`
	Objective string   `help:"Task objective." required:""`
	Tenant    string   `help:"Tenant id (x-tenant-id header)." required:""`
	Actor     string   `help:"Actor id (x-actor-id header)." required:""`
	Tools     []string `help:"Allowed tool names."`
	MaxIter   int      `name:"max-iterations" help:"Maximum iterations."`
}

func (c *SubmitCmd) Run(cli *CLI) error {
	body, _ := json.Marshal(map[string]any{
		"objective":      c.Objective,
		"max_iterations": c.MaxIter,
		"tools_allowed":  c.Tools,
	})

	url := strings.TrimSuffix(c.Server, "/") + "/tasks/create"
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-tenant-id", c.Tenant)
	req.Header.Set("x-actor-id", c.Actor)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submit: server returned %s: %s", resp.Status, out)
	}

	fmt.Println(string(out))
	return nil
}
