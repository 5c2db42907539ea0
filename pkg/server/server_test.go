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

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/bus"
	"github.com/agentswarm/core/pkg/checkpoint"
	"github.com/agentswarm/core/pkg/config"
	"github.com/agentswarm/core/pkg/swarm"
	"github.com/agentswarm/core/pkg/task"
	"github.com/agentswarm/core/pkg/workflow"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	b := bus.New()
	t.Cleanup(b.Shutdown)

	m := swarm.New(b, checkpoint.NewHooks(checkpoint.NewMemoryStore()), workflow.DefaultConfig())
	echo := agent.NewBaseAgent("repository_analyst-1", "repository_analyst", "repository_analyst",
		agent.DefaultResourceLimits(), []string{"handle_repository_analysis"},
		func(ctx context.Context, tk *task.Task, mem *agent.Memory) (map[string]any, error) {
			return map[string]any{"structure": "layered"}, nil
		})
	echo.Start()
	require.NoError(t, m.RegisterAgent("repository_analyst", echo))
	require.NoError(t, m.Initialize())

	cfg := config.ServerConfig{}
	cfg.SetDefaults()
	return New(cfg, m, nil, nil, nil, nil)
}

func TestCreateTaskRequiresTenantAndActorHeaders(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(createTaskRequest{Objective: "analyze the repo"})
	req := httptest.NewRequest(http.MethodPost, "/tasks/create", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTaskAndFetchStatus(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(createTaskRequest{Objective: "analyze the repository structure"})
	req := httptest.NewRequest(http.MethodPost, "/tasks/create", bytes.NewReader(body))
	req.Header.Set(headerTenantID, "tenant-1")
	req.Header.Set(headerActorID, "actor-1")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var created createTaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.TaskID)

	var result swarm.Result
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		getReq := httptest.NewRequest(http.MethodGet, "/tasks/"+created.TaskID, nil)
		getRec := httptest.NewRecorder()
		s.ServeHTTP(getRec, getReq)
		require.Equal(t, http.StatusOK, getRec.Code)
		require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &result))
		if result.Status == "completed" || result.Status == "failed" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, "completed", result.Status)
}

func TestGetUnknownTaskReturns404(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/tasks/does-not-exist", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthReportsActiveTaskCount(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
}

func TestListTasksReturnsJSONArray(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var results []swarm.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
}
