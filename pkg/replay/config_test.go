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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// given
	dir := t.TempDir()
	file := filepath.Join(dir, "replay.yaml")

	require.NoError(t, os.WriteFile(file, []byte(`
jid: ortuman@jackal.im/yard
http_port: 6061
logger:
  level: debug
roster:
  flicker_timeout: 250ms
  vendor_roster: true
`), 0644))

	// when
	cfg, err := LoadConfig(file)

	// then
	require.NoError(t, err)
	require.Equal(t, "ortuman@jackal.im/yard", cfg.JID)
	require.Equal(t, 6061, cfg.HTTPPort)
	require.Equal(t, "debug", cfg.Logger.Level)
	require.Equal(t, "logfmt", cfg.Logger.Format)
	require.Equal(t, 32768, cfg.MaxStanzaSize)
	require.Equal(t, time.Millisecond*250, cfg.Roster.FlickerTimeout)
	require.True(t, cfg.Roster.VendorRoster)
}

func TestLoadConfig_Defaults(t *testing.T) {
	// given
	dir := t.TempDir()
	file := filepath.Join(dir, "replay.yaml")
	require.NoError(t, os.WriteFile(file, []byte("jid: ortuman@jackal.im\n"), 0644))

	// when
	cfg, err := LoadConfig(file)

	// then
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Logger.Level)
	require.Equal(t, 0, cfg.HTTPPort)
	require.Equal(t, time.Second, cfg.Roster.FlickerTimeout)
	require.False(t, cfg.Roster.VendorRoster)
}

func TestLoadConfig_MissingJID(t *testing.T) {
	// given
	dir := t.TempDir()
	file := filepath.Join(dir, "replay.yaml")
	require.NoError(t, os.WriteFile(file, []byte("http_port: 6061\n"), 0644))

	// when
	_, err := LoadConfig(file)

	// then
	require.Error(t, err)
}
