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
	"time"

	"github.com/jackal-xmpp/rostersync/pkg/handle"
	rostermodel "github.com/jackal-xmpp/rostersync/pkg/model/roster"
)

// edit represents a locally requested change to a roster item.
type edit struct {
	contact handle.Handle

	// create forces a wire request even if nothing else differs.
	create bool

	subscription  rostermodel.Subscription
	vendorType    rostermodel.VendorType
	hasVendorType bool
	name          *string

	addGroups     handle.Set
	removeGroups  handle.Set
	replaceGroups bool

	id      string
	sentAt  time.Time
	waiters []chan error
}

func newEdit(contact handle.Handle) *edit {
	return &edit{
		contact:      contact,
		addGroups:    handle.NewSet(),
		removeGroups: handle.NewSet(),
	}
}

func (ed *edit) setCreate() { ed.create = true }

func (ed *edit) setSubscription(sub rostermodel.Subscription) { ed.subscription = sub }

func (ed *edit) setVendorType(vt rostermodel.VendorType) {
	ed.vendorType = vt
	ed.hasVendorType = true
}

func (ed *edit) setName(name string) { ed.name = &name }

// addGroup requests contact membership into g. A pending removal from g is canceled instead.
func (ed *edit) addGroup(g handle.Handle) {
	if ed.removeGroups.Has(g) {
		ed.removeGroups.Remove(g)
		return
	}
	ed.addGroups.Add(g)
}

// removeGroup requests contact removal from g. A pending addition to g is canceled instead.
func (ed *edit) removeGroup(g handle.Handle) {
	if ed.addGroups.Has(g) {
		ed.addGroups.Remove(g)
		return
	}
	ed.removeGroups.Add(g)
}

// setGroups requests the contact to be member of exactly groups.
func (ed *edit) setGroups(groups []handle.Handle) {
	ed.replaceGroups = true
	ed.addGroups = handle.NewSet(groups...)
	ed.removeGroups = handle.NewSet()
}

func (ed *edit) addWaiter() <-chan error {
	ch := make(chan error, 1)
	ed.waiters = append(ed.waiters, ch)
	return ch
}

func (ed *edit) resolve(err error) {
	for _, ch := range ed.waiters {
		ch <- err
	}
	ed.waiters = nil
}

// shadow is the state an item would have once an edit is applied.
type shadow struct {
	subscription rostermodel.Subscription
	vendorType   rostermodel.VendorType
	name         string
	groups       handle.Set
}

// apply computes the shadow of it under ed.
// cancelSubscriptions is set when a removal has been requested for a blocked contact: deleting the
// entry would unblock it, so both subscription directions are withdrawn instead.
func (ed *edit) apply(it *item) (sh shadow, altered, cancelSubscriptions bool) {
	sh = shadow{
		subscription: it.subscription,
		vendorType:   it.vendorType,
		name:         it.name,
		groups:       it.groups.Clone(),
	}
	if ed.create {
		altered = true
	}
	if ed.hasVendorType && ed.vendorType != sh.vendorType {
		sh.vendorType = ed.vendorType
		altered = true
	}
	if ed.subscription == rostermodel.Remove && it.listed {
		if sh.vendorType == rostermodel.Blocked {
			cancelSubscriptions = true
		} else {
			sh.subscription = rostermodel.Remove
			altered = true
		}
	}
	if sh.subscription == rostermodel.Remove {
		return sh, altered, cancelSubscriptions
	}
	if ed.name != nil && *ed.name != sh.name {
		sh.name = *ed.name
		altered = true
	}
	groups := sh.groups.Clone()
	if ed.replaceGroups {
		groups = handle.NewSet()
	}
	for g := range ed.addGroups {
		groups.Add(g)
	}
	for g := range ed.removeGroups {
		groups.Remove(g)
	}
	if !groups.Equal(sh.groups) {
		sh.groups = groups
		altered = true
	}
	return sh, altered, cancelSubscriptions
}
