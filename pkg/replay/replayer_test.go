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
	"bytes"
	"context"
	"strings"
	"testing"

	kitlog "github.com/go-kit/log"
	"github.com/jackal-xmpp/rostersync/pkg/hook"
	"github.com/jackal-xmpp/rostersync/pkg/roster"
	"github.com/stretchr/testify/require"
)

const testTranscript = `
<cmd xmlns='urn:rostersync:replay' op='request'/>
<iq type='result' id='roster1'>
  <query xmlns='jabber:iq:roster'>
    <item jid='noelia@jackal.im' subscription='both' name='Noelia'><group>Friends</group></item>
    <item jid='juliet@jackal.im' subscription='to'/>
  </query>
</iq>
<presence from='juliet@jackal.im/balcony'/>
<cmd xmlns='urn:rostersync:replay' op='await'/>
<cmd xmlns='urn:rostersync:replay' op='name' jid='noelia@jackal.im' name='Noe'/>
<cmd xmlns='urn:rostersync:replay' op='reject-next' reason='forbidden'/>
<cmd xmlns='urn:rostersync:replay' op='name' jid='noelia@jackal.im' name='Noelia Ruiz'/>
<presence from='romeo@jackal.im/orchard' type='subscribe'><status>hi!</status></presence>
<cmd xmlns='urn:rostersync:replay' op='members' list='publish'/>
<cmd xmlns='urn:rostersync:replay' op='members' group='Friends'/>
<cmd xmlns='urn:rostersync:replay' op='remove-group' jid='noelia@jackal.im' group='Nowhere'/>
<cmd xmlns='urn:rostersync:replay' op='dump'/>
`

func newTestReplayer(t *testing.T, cfg Config) (*Replayer, *bytes.Buffer) {
	t.Helper()

	buf := &bytes.Buffer{}
	r, err := New(cfg, buf, kitlog.NewNopLogger())
	require.NoError(t, err)
	return r, buf
}

func testConfig() Config {
	var cfg Config
	cfg.JID = "ortuman@jackal.im/yard"
	cfg.Roster.VendorRoster = true
	return cfg
}

func TestReplayer_Run(t *testing.T) {
	// given
	r, buf := newTestReplayer(t, testConfig())

	// when
	err := r.Run(context.Background(), strings.NewReader(testTranscript))

	// then
	require.NoError(t, err)

	_, err = r.eng.Received(context.Background())
	require.ErrorIs(t, err, roster.ErrClosed)
	require.False(t, r.hk.HasHandlers(hook.RosterListMembersChanged))
	require.False(t, r.hk.HasHandlers(hook.RosterReceived))

	out := buf.String()
	require.Contains(t, out, "** groups_created \"Friends\"")
	require.Contains(t, out, "** members_changed list=publish added=[noelia@jackal.im]")
	require.Contains(t, out, "** presence_unknown [noelia@jackal.im,juliet@jackal.im]")
	require.Contains(t, out, "** received [noelia@jackal.im,juliet@jackal.im]")
	require.Contains(t, out, "** nickname_changed noelia@jackal.im name=\"Noe\"")
	require.Contains(t, out, "!! name: roster: permission denied: edit rejected (forbidden)")
	require.Contains(t, out, "** members_changed list=publish local_pending=[romeo@jackal.im] actor=romeo@jackal.im reason=remote message=\"hi!\"")
	require.Contains(t, out, "== list=publish members=[noelia@jackal.im] local_pending=[romeo@jackal.im] remote_pending=[]")
	require.Contains(t, out, "== group=\"Friends\" members=[noelia@jackal.im]")
	require.Contains(t, out, "!! remove-group: roster: invalid argument: unknown group")
	require.Contains(t, out, "== noelia@jackal.im subscription=both ask=false type=normal name=\"Noe\" groups=[Friends]")
	require.Contains(t, out, "-- not handled by roster")

	// the rejected rename never reaches the roster
	require.NotContains(t, out, "name=\"Noelia Ruiz\" groups")
}

func TestReplayer_UnknownCommand(t *testing.T) {
	// given
	r, _ := newTestReplayer(t, testConfig())

	// when
	err := r.Run(context.Background(), strings.NewReader(`<cmd xmlns='urn:rostersync:replay' op='explode'/>`))

	// then
	require.Error(t, err)
}

func TestReplayer_MalformedTranscript(t *testing.T) {
	// given
	r, _ := newTestReplayer(t, testConfig())

	// when
	err := r.Run(context.Background(), strings.NewReader(`<iq type='set' id='1'><query xmlns='jabber:iq:roster'>`))

	// then
	require.Error(t, err)
}

func TestReplayer_InvalidAccount(t *testing.T) {
	// given
	cfg := testConfig()
	cfg.JID = ""

	// when
	r, err := New(cfg, &bytes.Buffer{}, kitlog.NewNopLogger())

	// then
	require.Error(t, err)
	require.Nil(t, r)
}
