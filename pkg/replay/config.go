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

package replay

import (
	"path/filepath"

	"github.com/jackal-xmpp/rostersync/pkg/roster"
	"github.com/kkyr/fig"
)

// LoggerConfig contains logger configuration.
type LoggerConfig struct {
	Level  string `fig:"level" default:"info"`
	Format string `fig:"format" default:"logfmt"`
}

// Config contains replay configuration.
type Config struct {
	Logger LoggerConfig `fig:"logger"`

	// JID is the account whose roster is replayed.
	JID string `fig:"jid" validate:"required"`

	// HTTPPort enables the metrics and pprof endpoint when greater than zero.
	HTTPPort int `fig:"http_port"`

	MaxStanzaSize int `fig:"max_stanza_size" default:"32768"`

	Roster roster.Config `fig:"roster"`
}

// LoadConfig reads a replay configuration file.
func LoadConfig(configFile string) (*Config, error) {
	var cfg Config
	file := filepath.Base(configFile)
	dir := filepath.Dir(configFile)

	err := fig.Load(&cfg, fig.File(file), fig.Dirs(dir))
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
