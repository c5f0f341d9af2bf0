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
	"sort"

	"github.com/jackal-xmpp/rostersync/pkg/handle"
	rostermodel "github.com/jackal-xmpp/rostersync/pkg/model/roster"
	"github.com/jackal-xmpp/stravaganza/v2/jid"
)

type item struct {
	contact handle.Handle
	jid     *jid.JID

	subscription rostermodel.Subscription
	ask          bool
	vendorType   rostermodel.VendorType
	name         string
	groups       handle.Set

	publish        rostermodel.SubscriptionState
	publishRequest string
	subscribe      rostermodel.SubscriptionState
	stored         bool
	blocked        bool

	// listed is set while the server roster holds an entry for the contact.
	listed bool

	inFlight *edit
	queued   *edit
	flicker  *flickerGuard
}

func newItem(contact handle.Handle, j *jid.JID) *item {
	return &item{
		contact:      contact,
		jid:          j,
		subscription: rostermodel.None,
		groups:       handle.NewSet(),
	}
}

// isVisible tells whether the item belongs to any list or has an edit on its way.
func (it *item) isVisible() bool {
	return it.listed ||
		it.publish != rostermodel.No ||
		it.subscribe != rostermodel.No ||
		it.stored ||
		it.blocked ||
		it.inFlight != nil
}

func (it *item) listState(l rostermodel.List) rostermodel.SubscriptionState {
	switch l {
	case rostermodel.Publish:
		return it.publish
	case rostermodel.Subscribe:
		return it.subscribe
	case rostermodel.Stored:
		return boolState(it.stored)
	case rostermodel.Deny:
		return boolState(it.blocked)
	}
	return rostermodel.No
}

func boolState(b bool) rostermodel.SubscriptionState {
	if b {
		return rostermodel.Yes
	}
	return rostermodel.No
}

func (e *Engine) lookupItem(contact handle.Handle) *item {
	return e.items[contact]
}

// ensureItem returns the item associated to contact, creating it if needed.
func (e *Engine) ensureItem(contact handle.Handle, j *jid.JID) *item {
	if it := e.items[contact]; it != nil {
		return it
	}
	it := newItem(contact, j)
	e.items[contact] = it
	return it
}

// ensureItemByHandle behaves like ensureItem resolving the contact address from the registry.
func (e *Engine) ensureItemByHandle(contact handle.Handle) (*item, error) {
	if it := e.items[contact]; it != nil {
		return it, nil
	}
	if !e.contacts.IsValid(contact) {
		return nil, ErrUnknownContact
	}
	j, err := jid.NewWithString(e.contacts.Inspect(contact), true)
	if err != nil {
		return nil, err
	}
	return e.ensureItem(contact, j), nil
}

// releaseItem deletes an item once it is no longer referenced by the roster or by any edit.
func (e *Engine) releaseItem(it *item) {
	if it.isVisible() || it.queued != nil {
		return
	}
	e.cancelFlicker(it)
	delete(e.items, it.contact)
}

func (e *Engine) groupNames(groups handle.Set) []string {
	if groups.Len() == 0 {
		return nil
	}
	names := make([]string, 0, groups.Len())
	for _, g := range groups.Slice() {
		if name := e.groups.Inspect(g); len(name) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (e *Engine) snapshot(it *item) rostermodel.Item {
	return rostermodel.Item{
		Contact:      it.contact,
		JID:          it.jid.String(),
		Subscription: it.subscription,
		Ask:          it.ask,
		VendorType:   it.vendorType,
		Name:         it.name,
		Groups:       e.groupNames(it.groups),
		Publish:      it.publish,
		Subscribe:    it.subscribe,
		Stored:       it.stored,
		Blocked:      it.blocked,
		EditPending:  it.inFlight != nil || it.queued != nil,
	}
}
