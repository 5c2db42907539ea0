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
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	auditpkg "github.com/agentswarm/core/pkg/audit"
	"github.com/agentswarm/core/pkg/swarm"
)

const (
	headerTenantID = "x-tenant-id"
	headerActorID  = "x-actor-id"
)

// createTaskRequest mirrors §6's /tasks/create body.
type createTaskRequest struct {
	Objective     string         `json:"objective"`
	Context       map[string]any `json:"context,omitempty"`
	MaxIterations int            `json:"max_iterations,omitempty"`
	ToolsAllowed  []string       `json:"tools_allowed,omitempty"`
}

// createTaskResponse mirrors §6's /tasks/create result.
type createTaskResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	tenant := r.Header.Get(headerTenantID)
	actor := r.Header.Get(headerActorID)
	if tenant == "" || actor == "" {
		writeError(w, http.StatusBadRequest, "x-tenant-id and x-actor-id headers are required")
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Objective == "" {
		writeError(w, http.StatusBadRequest, "objective is required")
		return
	}

	swarmReq := swarm.ParseChatMessage(req.Objective, req.Context)
	if swarmReq.Context == nil {
		swarmReq.Context = map[string]any{}
	}
	swarmReq.Context["tenant"] = tenant
	swarmReq.Context["actor"] = actor
	if req.MaxIterations > 0 {
		swarmReq.Context["max_iterations"] = req.MaxIterations
	}
	if len(req.ToolsAllowed) > 0 {
		swarmReq.Context["tools_allowed"] = req.ToolsAllowed
	}

	taskID, err := s.manager.Submit(r.Context(), swarmReq)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.recordAudit(r, tenant, actor, "tasks.create", req.Objective, taskID, "")

	writeJSON(w, http.StatusOK, createTaskResponse{
		TaskID:  taskID,
		Status:  "running",
		Message: "task accepted",
	})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, ok := s.manager.Status(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown task")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.List())
}

type healthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	ActiveTasks int    `json:"active_tasks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Service:     "agentswarm",
		ActiveTasks: s.manager.ActiveCount(),
	})
}

// streamKeepAlive is §6's "/stream or /sse ... periodic keep-alive
// every 25 s".
const streamKeepAlive = 25 * time.Second

// handleStream serves a long-lived SSE connection, emitting a
// keep-alive comment tick on streamKeepAlive until the client
// disconnects. No event payload is defined at this layer; the
// front-end is expected to pair it with polling /tasks/{id}.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("server: write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// recordAudit writes a best-effort audit record; failures are logged,
// never surfaced (§7 "audit failures never fail the primary operation").
func (s *Server) recordAudit(r *http.Request, tenant, actor, tool, request, resourceRef, errMsg string) {
	rec := auditpkg.New(tenant, actor, "swarm-server", tool)
	rec.Request = request
	rec.ResourceRef = resourceRef
	rec.Err = errMsg
	rec.IP = r.RemoteAddr
	rec.UserAgent = r.UserAgent()

	if err := s.audit.Write(r.Context(), rec); err != nil {
		slog.Warn("server: audit write failed", "error", err)
	}
}
