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

package command

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newTestRootCommand(out *bytes.Buffer, cmds ...*cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "rosterctl"}
	root.PersistentFlags().Duration("command-timeout", time.Second*5, "")
	root.AddCommand(cmds...)
	root.SetOut(out)
	return root
}

func TestVersionCommand(t *testing.T) {
	// given
	buf := &bytes.Buffer{}
	root := newTestRootCommand(buf, NewVersionCommand())
	root.SetArgs([]string{"version"})

	// when
	err := root.Execute()

	// then
	require.NoError(t, err)
	require.Regexp(t, `^rosterctl version: v\d+\.\d+\.\d+\n$`, buf.String())
}

func TestReplayCommand(t *testing.T) {
	// given
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	transcriptFile := filepath.Join(dir, "transcript.xml")

	require.NoError(t, os.WriteFile(cfgFile, []byte("jid: ortuman@jackal.im\nlogger:\n  level: off\n"), 0644))
	require.NoError(t, os.WriteFile(transcriptFile, []byte(`
<iq type='set' id='push1'>
  <query xmlns='jabber:iq:roster'><item jid='noelia@jackal.im' subscription='from'/></query>
</iq>
<cmd xmlns='urn:rostersync:replay' op='members' list='publish'/>
`), 0644))

	buf := &bytes.Buffer{}
	root := newTestRootCommand(buf, NewReplayCommand())
	root.SetArgs([]string{"replay", "--config", cfgFile, transcriptFile})

	// when
	err := root.Execute()

	// then
	require.NoError(t, err)
	require.Contains(t, buf.String(), "** members_changed list=publish added=[noelia@jackal.im]")
	require.Contains(t, buf.String(), "== list=publish members=[noelia@jackal.im]")
}
