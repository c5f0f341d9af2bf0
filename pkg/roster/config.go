// Copyright 2024 The jackal Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package roster

import "time"

const defaultFlickerTimeout = time.Second

// Config contains roster engine configuration.
type Config struct {
	// FlickerTimeout is the window during which a subscription request withdrawal
	// is held back waiting for the server to assert it again.
	FlickerTimeout time.Duration `fig:"flicker_timeout" default:"1s"`

	// VendorRoster enables the google:roster extension (blocked, hidden and pinned items).
	VendorRoster bool `fig:"vendor_roster"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{FlickerTimeout: defaultFlickerTimeout}
}
