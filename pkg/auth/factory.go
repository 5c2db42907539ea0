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

package auth

import (
	"fmt"
	"time"
)

// Settings is the subset of server configuration auth needs, decoupled
// from any particular config-loading mechanism so pkg/config can build
// one from YAML or environment without this package importing it back.
type Settings struct {
	Enabled         bool
	JWKSURL         string
	Issuer          string
	Audience        string
	RefreshInterval time.Duration
}

// NewValidatorFromSettings builds a TokenValidator, or returns (nil, nil)
// when authentication is disabled.
func NewValidatorFromSettings(s Settings) (TokenValidator, error) {
	if !s.Enabled {
		return nil, nil
	}
	if s.JWKSURL == "" {
		return nil, fmt.Errorf("auth: jwks_url is required when auth is enabled")
	}

	validator, err := NewJWTValidator(JWTValidatorConfig{
		JWKSURL:         s.JWKSURL,
		Issuer:          s.Issuer,
		Audience:        s.Audience,
		RefreshInterval: s.RefreshInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: create JWT validator: %w", err)
	}
	return validator, nil
}
