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

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// SQLSink is a database/sql-backed Sink. The driver is selected by the
// caller (postgres via lib/pq, mysql via go-sql-driver/mysql); the
// schema below is ANSI-SQL enough to work against both.
type SQLSink struct {
	db     *sql.DB
	driver string
}

// NewSQLSink opens driver (either "postgres" or "mysql") against dsn and
// ensures the audit_log table exists.
func NewSQLSink(driver, dsn string) (*SQLSink, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: ping %s: %w", driver, err)
	}

	if _, err := db.Exec(createTableSQL(driver)); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: create schema: %w", err)
	}

	return &SQLSink{db: db, driver: driver}, nil
}

func createTableSQL(driver string) string {
	idType := "TEXT"
	timeType := "TIMESTAMP"
	if driver == "mysql" {
		idType = "VARCHAR(64)"
	}
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS audit_log (
			id           %s PRIMARY KEY,
			at           %s NOT NULL,
			tenant       VARCHAR(255) NOT NULL,
			actor        VARCHAR(255) NOT NULL,
			service      VARCHAR(255) NOT NULL,
			tool         VARCHAR(255) NOT NULL,
			request      TEXT NOT NULL,
			response     TEXT,
			error        TEXT,
			provider     VARCHAR(255),
			resource_ref VARCHAR(255),
			ip           VARCHAR(64),
			user_agent   TEXT
		)`, idType, timeType)
}

// Write inserts rec. Callers must not fail the primary operation on a
// Write error (§7); they should log it instead.
func (s *SQLSink) Write(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, s.insertSQL(),
		rec.ID, rec.At.UTC().Format(time.RFC3339Nano), rec.Tenant, rec.Actor, rec.Service, rec.Tool,
		rec.Request, rec.Response, rec.Err, rec.Provider, rec.ResourceRef, rec.IP, rec.UserAgent)
	if err != nil {
		return fmt.Errorf("audit: insert record: %w", err)
	}
	return nil
}

// insertSQL returns the parameterized insert for the sink's driver;
// lib/pq requires numbered placeholders ($1, $2, ...) where
// go-sql-driver/mysql accepts "?".
func (s *SQLSink) insertSQL() string {
	const columns = `(id, at, tenant, actor, service, tool, request, response, error, provider, resource_ref, ip, user_agent)`
	if s.driver == "postgres" {
		return `INSERT INTO audit_log ` + columns + ` VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	}
	return `INSERT INTO audit_log ` + columns + ` VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
}

// Close releases the underlying database connection.
func (s *SQLSink) Close() error {
	return s.db.Close()
}
