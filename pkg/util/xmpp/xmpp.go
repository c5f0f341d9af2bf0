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
	"github.com/jackal-xmpp/stravaganza/v2"
	stanzaerror "github.com/jackal-xmpp/stravaganza/v2/errors/stanza"
	"github.com/jackal-xmpp/stravaganza/v2/jid"
)

const stanzaErrorNamespace = "urn:ietf:params:xml:ns:xmpp-stanzas"

// MakeResultIQ creates a new result stanza derived from iq.
func MakeResultIQ(iq *stravaganza.IQ, queryChild stravaganza.Element) *stravaganza.IQ {
	b := iq.ResultBuilder()
	if queryChild != nil {
		b.WithChild(queryChild)
	}
	resIQ, _ := b.BuildIQ()
	return resIQ
}

// MakePresence creates presence of type typ addressed to toJID.
// fromJID may be nil, in which case the server stamps the sender address.
// A non-empty status is carried as a <status/> child.
func MakePresence(fromJID, toJID *jid.JID, typ, status string) *stravaganza.Presence {
	b := stravaganza.NewPresenceBuilder()
	if fromJID != nil {
		b.WithAttribute(stravaganza.From, fromJID.String())
	}
	b.WithAttribute(stravaganza.To, toJID.String())
	if len(typ) > 0 {
		b.WithAttribute(stravaganza.Type, typ)
	}
	if len(status) > 0 {
		b.WithChild(
			stravaganza.NewBuilder("status").
				WithText(status).
				Build(),
		)
	}
	pr, _ := b.BuildPresence()
	return pr
}

// MakeErrorIQ creates an error IQ replying to the request identified by id.
func MakeErrorIQ(id, errType string, reason stanzaerror.Reason) *stravaganza.IQ {
	iq, _ := stravaganza.NewIQBuilder().
		WithAttribute(stravaganza.ID, id).
		WithAttribute(stravaganza.Type, stravaganza.ErrorType).
		WithChild(
			stravaganza.NewBuilder("error").
				WithAttribute(stravaganza.Type, errType).
				WithChild(
					stravaganza.NewBuilder(string(reason)).
						WithAttribute(stravaganza.Namespace, stanzaErrorNamespace).
						Build(),
				).
				Build(),
		).
		BuildIQ()
	return iq
}

// ErrorReason returns the defined condition and text of an error stanza.
// ok is false when stanza carries no recognizable error condition.
func ErrorReason(stanza stravaganza.Element) (reason stanzaerror.Reason, text string, ok bool) {
	errEl := stanza.Child("error")
	if errEl == nil {
		return "", "", false
	}
	for _, child := range errEl.AllChildren() {
		if child.Attribute(stravaganza.Namespace) != stanzaErrorNamespace {
			continue
		}
		if child.Name() == "text" {
			text = child.Text()
			continue
		}
		if len(reason) == 0 {
			reason = stanzaerror.Reason(child.Name())
		}
	}
	return reason, text, len(reason) > 0
}
