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

	"github.com/go-kit/log/level"
	"github.com/jackal-xmpp/rostersync/pkg/hook"
	rostermodel "github.com/jackal-xmpp/rostersync/pkg/model/roster"
	xmpputil "github.com/jackal-xmpp/rostersync/pkg/util/xmpp"
	"github.com/jackal-xmpp/stravaganza/v2"
	"github.com/jackal-xmpp/stravaganza/v2/jid"
)

func (e *Engine) processPresence(ctx context.Context, pr *stravaganza.Presence) bool {
	typ := pr.Attribute(stravaganza.Type)
	switch typ {
	case stravaganza.SubscribeType, stravaganza.UnsubscribeType, stravaganza.SubscribedType, stravaganza.UnsubscribedType:
		break
	default:
		return false
	}
	from := pr.Attribute(stravaganza.From)
	if len(from) == 0 {
		return false
	}
	fromJID, err := jid.NewWithString(from, false)
	if err != nil {
		level.Warn(e.logger).Log("msg", "discarding subscription presence", "from", from, "err", err)
		return true
	}
	bareJID := fromJID.ToBareJID()
	if bareJID.String() == e.selfJID.String() {
		return false
	}
	contact, err := e.contacts.Ensure(bareJID.String())
	if err != nil {
		level.Warn(e.logger).Log("msg", "discarding subscription presence", "from", from, "err", err)
		return true
	}
	it := e.ensureItem(contact, bareJID)

	cs := newChangeSet()
	cs.touch(it)

	var ackType string
	switch typ {
	case stravaganza.SubscribeType:
		if it.publish != rostermodel.Yes {
			status := pr.Status()
			it.publish = rostermodel.Ask
			it.publishRequest = status
			cs.annotate(rostermodel.Publish, contact, hook.ReasonRemoteRequest, status)
		}

	case stravaganza.UnsubscribeType:
		if it.publish != rostermodel.No {
			it.publish = rostermodel.No
			it.publishRequest = ""
			cs.annotate(rostermodel.Publish, contact, hook.ReasonRemoteRequest, "")
			ackType = stravaganza.UnsubscribedType
		}

	case stravaganza.SubscribedType:
		if it.subscribe != rostermodel.Yes {
			e.cancelFlicker(it)
			it.subscribe = rostermodel.Yes
			cs.annotate(rostermodel.Subscribe, contact, hook.ReasonRemoteRequest, "")
			ackType = stravaganza.SubscribeType
		}

	case stravaganza.UnsubscribedType:
		if it.subscribe != rostermodel.No {
			e.cancelFlicker(it)
			it.subscribe = rostermodel.No
			cs.annotate(rostermodel.Subscribe, contact, hook.ReasonRemoteRequest, "")
			ackType = stravaganza.UnsubscribeType
		}
	}
	level.Debug(e.logger).Log("msg", "subscription presence received", "from", bareJID.String(), "type", typ)

	e.emit(ctx, cs)

	// acknowledge state changes only, so that both ends never loop
	if len(ackType) > 0 {
		if err := e.sender.SendElement(ctx, xmpputil.MakePresence(nil, bareJID, ackType, "")); err != nil {
			level.Warn(e.logger).Log("msg", "failed to acknowledge subscription presence", "to", bareJID.String(), "err", err)
		}
	}
	e.releaseItem(it)
	return true
}
