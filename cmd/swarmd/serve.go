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
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentswarm/core/pkg/agent"
	"github.com/agentswarm/core/pkg/agents"
	"github.com/agentswarm/core/pkg/audit"
	"github.com/agentswarm/core/pkg/bus"
	"github.com/agentswarm/core/pkg/checkpoint"
	"github.com/agentswarm/core/pkg/collaborators"
	"github.com/agentswarm/core/pkg/config"
	"github.com/agentswarm/core/pkg/observability"
	"github.com/agentswarm/core/pkg/server"
	"github.com/agentswarm/core/pkg/swarm"
)

// ServeCmd starts the swarm's HTTP server.
type ServeCmd struct {
	Port int `help:"Override the configured listen port." default:"0"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("swarmd: shutting down")
		cancel()
	}()

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	obsMgr, err := observability.NewManager(ctx, &cfg.Observability)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer obsMgr.Shutdown(context.Background())

	checkpointStore, err := cfg.CheckpointStore()
	if err != nil {
		return fmt.Errorf("init checkpoint store: %w", err)
	}

	auditSink, err := newAuditSink(cfg.Audit)
	if err != nil {
		return fmt.Errorf("init audit sink: %w", err)
	}

	validator, err := cfg.AuthValidator()
	if err != nil {
		return fmt.Errorf("init auth validator: %w", err)
	}

	b := bus.New()
	defer b.Shutdown()

	manager := swarm.New(b, checkpoint.NewHooks(checkpointStore), cfg.EngineConfig())

	var repo collaborators.RepositoryFetcher = collaborators.NewLocalRepository(nil)
	if err := agents.RegisterDefaultAgents(manager, agent.DefaultResourceLimits(), repo); err != nil {
		return fmt.Errorf("register default agents: %w", err)
	}
	if err := manager.Initialize(); err != nil {
		return fmt.Errorf("initialize swarm manager: %w", err)
	}
	defer manager.Shutdown()

	srv := server.New(cfg.Server, manager, obsMgr.Tracer(), obsMgr.Metrics(), auditSink, validator)

	slog.Info("swarmd: listening", "addr", srv.Addr())
	return srv.Start(ctx)
}

func newAuditSink(cfg config.AuditConfig) (audit.Sink, error) {
	if cfg.DBURL == "" {
		return audit.NoopSink{}, nil
	}
	return audit.NewSQLSink(cfg.Driver(), cfg.DBURL)
}
