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

import (
	"context"
	"testing"
	"time"

	"github.com/jackal-xmpp/rostersync/pkg/handle"
	"github.com/jackal-xmpp/rostersync/pkg/hook"
	rostermodel "github.com/jackal-xmpp/rostersync/pkg/model/roster"
	"github.com/stretchr/testify/require"
)

const testFlickerTimeout = time.Millisecond * 50

func flickerConfig() Config {
	cfg := DefaultConfig()
	cfg.FlickerTimeout = testFlickerTimeout
	return cfg
}

func (te *testEngine) subscribeDeltas() []*hook.RosterMembersInfo {
	te.mu.Lock()
	defer te.mu.Unlock()
	return listDeltas(te.events, rostermodel.Subscribe)
}

func TestFlicker_WithdrawalDeferred(t *testing.T) {
	// given
	te := newTestEngine(t, flickerConfig(), nil)
	noelia := te.contact(t, "noelia@jackal.im")

	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "none", ask: true}))

	deltas := listDeltas(te.takeEvents(), rostermodel.Subscribe)
	require.Len(t, deltas, 1)
	require.Equal(t, []handle.Handle{noelia}, deltas[0].RemotePending)

	// when
	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "none"}))

	// then
	require.Len(t, te.subscribeDeltas(), 0)

	ri, ok := te.item(t, noelia)
	require.True(t, ok)
	require.Equal(t, rostermodel.Ask, ri.Subscribe)

	require.Eventually(t, func() bool { return len(te.subscribeDeltas()) == 1 }, time.Second, time.Millisecond*5)

	deltas = te.subscribeDeltas()
	require.Equal(t, []handle.Handle{noelia}, deltas[0].Removed)

	ri, _ = te.item(t, noelia)
	require.Equal(t, rostermodel.No, ri.Subscribe)
}

func TestFlicker_Reasserted(t *testing.T) {
	// given
	te := newTestEngine(t, flickerConfig(), nil)
	noelia := te.contact(t, "noelia@jackal.im")

	// when
	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "none", ask: true}))
	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "none"}))
	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "none", ask: true}))

	time.Sleep(testFlickerTimeout * 3)

	// then
	deltas := te.subscribeDeltas()
	require.Len(t, deltas, 1)
	require.Equal(t, []handle.Handle{noelia}, deltas[0].RemotePending)

	ri, ok := te.item(t, noelia)
	require.True(t, ok)
	require.Equal(t, rostermodel.Ask, ri.Subscribe)
}

func TestFlicker_ImmediateRemoval(t *testing.T) {
	// given
	te := newTestEngine(t, flickerConfig(), nil)
	noelia := te.contact(t, "noelia@jackal.im")

	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "to"}))
	te.takeEvents()

	// when
	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "none"}))

	// then
	deltas := te.subscribeDeltas()
	require.Len(t, deltas, 1)
	require.Equal(t, []handle.Handle{noelia}, deltas[0].Removed)
}

func TestFlicker_NoDemotion(t *testing.T) {
	// given
	te := newTestEngine(t, flickerConfig(), nil)
	noelia := te.contact(t, "noelia@jackal.im")

	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "both"}))
	te.takeEvents()

	// when
	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "from", ask: true}))

	// then
	require.Len(t, te.subscribeDeltas(), 0)

	ri, _ := te.item(t, noelia)
	require.Equal(t, rostermodel.Yes, ri.Subscribe)
}

func TestFlicker_RepeatedRequest(t *testing.T) {
	// given
	te := newTestEngine(t, flickerConfig(), nil)

	// when
	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "none", ask: true}))
	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "none", ask: true}))

	time.Sleep(testFlickerTimeout * 3)

	// then
	require.Len(t, te.subscribeDeltas(), 1)
}

func TestFlicker_CanceledOnDisconnect(t *testing.T) {
	// given
	te := newTestEngine(t, flickerConfig(), nil)

	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "none", ask: true}))
	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "none"}))
	te.takeEvents()

	// when
	require.NoError(t, te.Disconnect(context.Background()))
	time.Sleep(testFlickerTimeout * 3)

	// then
	require.Len(t, te.takeEvents(), 0)
}

func TestFlicker_CanceledOnClose(t *testing.T) {
	// given
	te := newTestEngine(t, flickerConfig(), nil)

	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "none", ask: true}))
	te.process(t, pushIQ(t, testItem{jid: "noelia@jackal.im", subscription: "none"}))
	te.takeEvents()

	// when
	require.NoError(t, te.Close(context.Background()))
	time.Sleep(testFlickerTimeout * 3)

	// then
	require.Len(t, te.takeEvents(), 0)
}
