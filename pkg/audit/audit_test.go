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

import "testing"

func TestNewStampsIDAndTimestamp(t *testing.T) {
	rec := New("tenant-1", "actor-1", "swarm", "complete")

	if rec.ID == "" {
		t.Error("expected a non-empty ID")
	}
	if rec.At.IsZero() {
		t.Error("expected a non-zero At timestamp")
	}
	if rec.Tenant != "tenant-1" || rec.Actor != "actor-1" {
		t.Errorf("got tenant=%q actor=%q, want tenant-1/actor-1", rec.Tenant, rec.Actor)
	}
}

func TestNoopSinkNeverErrors(t *testing.T) {
	var sink Sink = NoopSink{}
	if err := sink.Write(t.Context(), New("t", "a", "s", "tool")); err != nil {
		t.Fatalf("NoopSink.Write: %v", err)
	}
}

func TestInsertSQLUsesDriverPlaceholderStyle(t *testing.T) {
	pg := &SQLSink{driver: "postgres"}
	if got := pg.insertSQL(); got[len(got)-4:] != "$13)" {
		t.Errorf("postgres insertSQL = %q, want numbered placeholders", got)
	}

	mysql := &SQLSink{driver: "mysql"}
	if got := mysql.insertSQL(); got[len(got)-4:] != "?, ?" && got[len(got)-2:] != "?)" {
		t.Errorf("mysql insertSQL = %q, want ? placeholders", got)
	}
}
