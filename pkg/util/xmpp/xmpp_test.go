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

package xmpputil

import (
	"testing"

	"github.com/jackal-xmpp/stravaganza/v2"
	stanzaerror "github.com/jackal-xmpp/stravaganza/v2/errors/stanza"
	"github.com/jackal-xmpp/stravaganza/v2/jid"
	"github.com/stretchr/testify/require"
)

func TestMakePresence(t *testing.T) {
	// given
	to, _ := jid.NewWithString("noelia@jackal.im", true)

	// when
	p := MakePresence(nil, to, stravaganza.SubscribeType, "let me in")

	// then
	require.NotNil(t, p)

	require.Equal(t, "", p.Attribute(stravaganza.From))
	require.Equal(t, to.String(), p.Attribute(stravaganza.To))
	require.Equal(t, stravaganza.SubscribeType, p.Attribute(stravaganza.Type))
	require.Equal(t, "let me in", p.Child("status").Text())
}

func TestMakePresence_NoStatus(t *testing.T) {
	// given
	from, _ := jid.NewWithString("ortuman@jackal.im", true)
	to, _ := jid.NewWithString("noelia@jackal.im", true)

	// when
	p := MakePresence(from, to, stravaganza.UnsubscribedType, "")

	// then
	require.Equal(t, from.String(), p.Attribute(stravaganza.From))
	require.Nil(t, p.Child("status"))
}

func TestMakeResultIQ(t *testing.T) {
	// given
	iq, _ := stravaganza.NewIQBuilder().
		WithAttribute(stravaganza.ID, "iq1234").
		WithAttribute(stravaganza.Type, stravaganza.SetType).
		WithChild(
			stravaganza.NewBuilder("query").
				WithAttribute(stravaganza.Namespace, "jabber:iq:roster").
				Build(),
		).
		BuildIQ()

	// when
	resIQ := MakeResultIQ(iq, nil)

	// then
	require.NotNil(t, resIQ)
	require.Equal(t, stravaganza.ResultType, resIQ.Attribute(stravaganza.Type))
	require.Equal(t, "iq1234", resIQ.Attribute(stravaganza.ID))
	require.Len(t, resIQ.AllChildren(), 0)
}

func TestErrorReason(t *testing.T) {
	// given
	iq := MakeErrorIQ("iq1234", "auth", stanzaerror.Forbidden)

	// when
	reason, _, ok := ErrorReason(iq)

	// then
	require.True(t, ok)
	require.Equal(t, stanzaerror.Forbidden, reason)
	require.Equal(t, "iq1234", iq.Attribute(stravaganza.ID))
}

func TestErrorReason_WithText(t *testing.T) {
	// given
	elem := stravaganza.NewBuilder("iq").
		WithAttribute(stravaganza.Type, stravaganza.ErrorType).
		WithChild(
			stravaganza.NewBuilder("error").
				WithChild(stravaganza.NewBuilder("text").
					WithAttribute(stravaganza.Namespace, stanzaErrorNamespace).
					WithText("bad item").
					Build()).
				WithChild(stravaganza.NewBuilder("not-acceptable").
					WithAttribute(stravaganza.Namespace, stanzaErrorNamespace).
					Build()).
				Build(),
		).
		Build()

	// when
	reason, text, ok := ErrorReason(elem)
	_, _, ok2 := ErrorReason(stravaganza.NewBuilder("iq").Build())

	// then
	require.True(t, ok)
	require.Equal(t, stanzaerror.NotAcceptable, reason)
	require.Equal(t, "bad item", text)
	require.False(t, ok2)
}
