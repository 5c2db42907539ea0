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

// Package server exposes the swarm manager over HTTP (§6 "Inbound HTTP
// surface"): task submission, status/list lookup, health, and a
// long-lived keep-alive stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/agentswarm/core/pkg/audit"
	"github.com/agentswarm/core/pkg/auth"
	"github.com/agentswarm/core/pkg/config"
	"github.com/agentswarm/core/pkg/observability"
	"github.com/agentswarm/core/pkg/swarm"
)

// Server wraps a swarm.Manager with the HTTP surface the front-end
// talks to.
type Server struct {
	manager *swarm.Manager
	audit   audit.Sink
	cfg     config.ServerConfig
	router  chi.Router
	http    *http.Server
}

// New builds a Server. tracer/metrics may be nil (observability
// disabled); auditSink defaults to audit.NoopSink{} if nil; validator
// may be nil to run with no bearer-token enforcement (the default when
// AuthConfig.Enabled is false).
func New(cfg config.ServerConfig, manager *swarm.Manager, tracer *observability.Tracer, metrics *observability.Metrics, auditSink audit.Sink, validator auth.TokenValidator) *Server {
	if auditSink == nil {
		auditSink = audit.NoopSink{}
	}

	s := &Server{
		manager: manager,
		audit:   auditSink,
		cfg:     cfg,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
	}))
	r.Use(observability.HTTPMiddleware(tracer, metrics))
	r.Use(bearerAuthMiddleware(validator))

	s.router = r
	s.routes()

	return s
}

// ServeHTTP implements http.Handler, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start begins serving and blocks until the listener stops or ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Addr reports the address the server is configured to listen on,
// useful for tests that bind to an ephemeral port via httptest.
func (s *Server) Addr() string {
	return fmt.Sprintf("http://%s", s.cfg.Addr())
}
