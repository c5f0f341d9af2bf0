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
	"github.com/jackal-xmpp/rostersync/pkg/handle"
	"github.com/jackal-xmpp/rostersync/pkg/hook"
	rostermodel "github.com/jackal-xmpp/rostersync/pkg/model/roster"
	xmpputil "github.com/jackal-xmpp/rostersync/pkg/util/xmpp"
	"github.com/jackal-xmpp/stravaganza/v2"
	"github.com/jackal-xmpp/stravaganza/v2/jid"
)

// itemUpdate is the new server state of a roster item.
type itemUpdate struct {
	subscription rostermodel.Subscription
	ask          bool
	vendor       bool
	vendorType   rostermodel.VendorType
	name         string
	groups       handle.Set

	// fromPush is unset when the update comes from an acknowledged local edit.
	// Local edits never carry subscription request changes.
	fromPush bool
}

func (e *Engine) processIQ(ctx context.Context, iq *stravaganza.IQ) bool {
	id := iq.Attribute(stravaganza.ID)
	if iq.IsResult() || iq.IsError() {
		if ed := e.pendingEdits[id]; ed != nil {
			e.processEditReply(ctx, iq, ed)
			return true
		}
		if len(e.fetchID) > 0 && id == e.fetchID && iq.IsError() {
			e.fetchID = ""
			reason, _, _ := xmpputil.ErrorReason(iq)
			level.Warn(e.logger).Log("msg", "failed to fetch roster", "reason", reason)
			return true
		}
	}
	query := iq.ChildNamespace("query", rostermodel.Namespace)
	if query == nil {
		return false
	}
	if !e.isSelfAddressed(iq) {
		level.Warn(e.logger).Log("msg", "discarding roster IQ from foreign sender", "from", iq.Attribute(stravaganza.From))
		return true
	}
	switch {
	case iq.IsResult():
		if id == e.fetchID {
			e.fetchID = ""
		}
		e.processPush(ctx, query, true)

	case iq.IsSet():
		e.processPush(ctx, query, false)
		if err := e.sender.SendElement(ctx, xmpputil.MakeResultIQ(iq, nil)); err != nil {
			level.Warn(e.logger).Log("msg", "failed to acknowledge roster push", "id", id, "err", err)
		}

	default:
		return false
	}
	return true
}

func (e *Engine) isSelfAddressed(stanza stravaganza.Stanza) bool {
	from := stanza.Attribute(stravaganza.From)
	if len(from) == 0 {
		return true
	}
	j, err := jid.NewWithString(from, false)
	if err != nil {
		return false
	}
	return j.ToBareJID().String() == e.selfJID.String()
}

// processPush applies every item contained in a roster query.
func (e *Engine) processPush(ctx context.Context, query stravaganza.Element, initial bool) {
	var prefix string
	if e.cfg.VendorRoster {
		prefix = rostermodel.QueryVendorPrefix(query)
	}
	vendor := len(prefix) > 0
	cs := newChangeSet()

	var valid, invalid int
	for _, elem := range query.AllChildren() {
		d, err := rostermodel.NewDescriptor(elem, prefix)
		if err != nil {
			level.Warn(e.logger).Log("msg", "skipping invalid roster item", "jid", elem.Attribute("jid"), "err", err)
			invalid++
			continue
		}
		contact, err := e.contacts.Ensure(d.JID.String())
		if err != nil {
			level.Warn(e.logger).Log("msg", "skipping invalid roster item", "jid", d.JID.String(), "err", err)
			invalid++
			continue
		}
		it := e.ensureItem(contact, d.JID.ToBareJID())
		e.updateItem(it, itemUpdate{
			subscription: d.Subscription,
			ask:          d.Ask,
			vendor:       vendor,
			vendorType:   d.VendorType,
			name:         d.Name,
			groups:       e.ensureGroups(d.Groups, cs),
			fromPush:     true,
		}, cs)
		valid++

		level.Debug(e.logger).Log("msg", "roster item updated", "jid", d.JID.String(),
			"subscription", d.Subscription, "ask", d.Ask, "vendor_type", d.VendorType.String(),
			"publish", it.publish.String(), "subscribe", it.subscribe.String(), "stored", it.stored,
		)
	}
	reportPush(initial, valid, invalid)

	e.emit(ctx, cs)

	for _, it := range cs.order {
		e.releaseItem(it)
	}
	if initial && !e.received {
		e.markReceived(ctx)
	}
}

func (e *Engine) markReceived(ctx context.Context) {
	e.received = true

	unknown := handle.NewSet()
	listed := handle.NewSet()
	for _, it := range e.items {
		if it.listed {
			listed.Add(it.contact)
		}
		if it.subscribe != rostermodel.Yes {
			continue
		}
		if e.presences != nil && e.presences.HasPresence(it.contact) {
			continue
		}
		unknown.Add(it.contact)
	}
	if unknown.Len() > 0 {
		e.runHook(ctx, hook.RosterPresenceUnknown, &hook.RosterContactsInfo{Contacts: unknown.Slice()})
	}
	e.runHook(ctx, hook.RosterReceived, &hook.RosterContactsInfo{Contacts: listed.Slice()})

	for _, ch := range e.rosterWaiters {
		ch <- nil
	}
	e.rosterWaiters = nil

	level.Info(e.logger).Log("msg", "roster received", "items", listed.Len())
}

// ensureGroups resolves group names into handles, recording those never seen before.
func (e *Engine) ensureGroups(names []string, cs *changeSet) handle.Set {
	groups := handle.NewSet()
	for _, name := range names {
		g, err := e.groups.Ensure(name)
		if err != nil {
			level.Warn(e.logger).Log("msg", "skipping invalid roster group", "group", name, "err", err)
			continue
		}
		if !e.knownGroups.Has(g) {
			e.knownGroups.Add(g)
			cs.groupCreated(g)
		}
		groups.Add(g)
	}
	return groups
}

// shouldKeep tells whether a google:roster item is meant to be shown.
func shouldKeep(it *item) bool {
	switch {
	case it.vendorType == rostermodel.Hidden:
		return false
	case it.ask:
		return true
	default:
		return it.subscription != rostermodel.None
	}
}

// updateItem applies upd to it and derives its list memberships.
func (e *Engine) updateItem(it *item, upd itemUpdate, cs *changeSet) {
	cs.touch(it)

	remove := upd.subscription == rostermodel.Remove
	if remove {
		it.subscription = rostermodel.None
		it.ask = false
		it.name = ""
		it.groups = handle.NewSet()
	} else {
		it.subscription = upd.subscription
		it.ask = upd.ask
		it.name = upd.name
		it.groups = upd.groups
	}
	if upd.vendor {
		it.vendorType = upd.vendorType
	}
	it.listed = !remove

	keep := !upd.vendor || shouldKeep(it)

	// publish
	switch upd.subscription {
	case rostermodel.From, rostermodel.Both:
		if keep {
			it.publish = rostermodel.Yes
			it.publishRequest = ""
		} else {
			it.publish = rostermodel.No
		}
	case rostermodel.None, rostermodel.To:
		if it.publish != rostermodel.Ask {
			it.publish = rostermodel.No
		}
	case rostermodel.Remove:
		it.publish = rostermodel.No
		it.publishRequest = ""
	}

	// subscribe
	switch upd.subscription {
	case rostermodel.To, rostermodel.Both:
		e.cancelFlicker(it)
		if keep {
			it.subscribe = rostermodel.Yes
		} else {
			it.subscribe = rostermodel.No
		}
	case rostermodel.None, rostermodel.From:
		if upd.fromPush {
			e.guardSubscribe(it)
		}
	case rostermodel.Remove:
		e.cancelFlicker(it)
		it.subscribe = rostermodel.No
	}

	// stored
	switch {
	case remove:
		it.stored = false
	case upd.vendor && it.subscribe != rostermodel.Ask && !keep:
		it.stored = false
	default:
		it.stored = true
	}

	// deny
	switch {
	case remove:
		it.blocked = false
	case upd.vendor:
		it.blocked = it.vendorType == rostermodel.Blocked
	}
}
