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

func (s *Server) routes() {
	s.router.Post("/tasks/create", s.handleCreateTask)
	s.router.Get("/tasks/{id}", s.handleGetTask)
	s.router.Get("/tasks", s.handleListTasks)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/stream", s.handleStream)
	s.router.Get("/sse", s.handleStream)
}
