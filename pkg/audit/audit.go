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

// Package audit records an append-only trail of every outbound
// collaborator invocation (§6 "Audit sink — append-only insert of an
// invocation record"). Audit failures are logged, never surfaced to the
// caller: "audit failures never fail the primary operation" (§7).
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is one audit entry. Response and Err are mutually exclusive;
// exactly one is set once the invocation completes.
type Record struct {
	ID          string    `json:"id"`
	At          time.Time `json:"at"`
	Tenant      string    `json:"tenant"`
	Actor       string    `json:"actor"`
	Service     string    `json:"service"`
	Tool        string    `json:"tool"`
	Request     string    `json:"request"`
	Response    string    `json:"response,omitempty"`
	Err         string    `json:"error,omitempty"`
	Provider    string    `json:"provider"`
	ResourceRef string    `json:"resource_ref,omitempty"`
	IP          string    `json:"ip,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
}

// New stamps a Record's ID and timestamp, leaving every other field to
// the caller.
func New(tenant, actor, service, tool string) Record {
	return Record{
		ID:      uuid.NewString(),
		At:      time.Now(),
		Tenant:  tenant,
		Actor:   actor,
		Service: service,
		Tool:    tool,
	}
}

// Sink is the append-only audit trail contract.
type Sink interface {
	Write(ctx context.Context, rec Record) error
}
