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
	"time"

	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/jackal-xmpp/rostersync/pkg/handle"
	rostermodel "github.com/jackal-xmpp/rostersync/pkg/model/roster"
	xmpputil "github.com/jackal-xmpp/rostersync/pkg/util/xmpp"
	"github.com/jackal-xmpp/stravaganza/v2"
)

// editOp merges a single change into ed. It returns false when the change does not apply to it.
type editOp func(it *item, ed *edit) bool

// EnsureContact makes sure the server roster holds an entry for contact.
// Hidden entries are turned into normal ones.
func (e *Engine) EnsureContact(ctx context.Context, contact handle.Handle) error {
	return e.mutate(ctx, contact, ensureOp)
}

// RemoveContact removes contact from the server roster.
// Blocked contacts are never removed: their subscriptions are canceled instead,
// so that the block is preserved.
func (e *Engine) RemoveContact(ctx context.Context, contact handle.Handle) error {
	return e.mutate(ctx, contact, func(_ *item, ed *edit) bool {
		ed.setSubscription(rostermodel.Remove)
		return true
	})
}

// SetBlocked blocks or unblocks contact. It requires the google:roster extension.
func (e *Engine) SetBlocked(ctx context.Context, contact handle.Handle, blocked bool) error {
	if !e.cfg.VendorRoster {
		return ErrNotAvailable
	}
	vt := rostermodel.Normal
	if blocked {
		vt = rostermodel.Blocked
	}
	return e.mutate(ctx, contact, func(_ *item, ed *edit) bool {
		ed.setVendorType(vt)
		return true
	})
}

// SetName sets the roster name of contact. An empty name clears it.
func (e *Engine) SetName(ctx context.Context, contact handle.Handle, name string) error {
	return e.mutate(ctx, contact, func(_ *item, ed *edit) bool {
		ed.setName(name)
		return true
	})
}

// AddToGroup adds contact to group g.
func (e *Engine) AddToGroup(ctx context.Context, contact, g handle.Handle) error {
	if err := e.checkGroups(g); err != nil {
		return err
	}
	return e.mutate(ctx, contact, func(_ *item, ed *edit) bool {
		ed.addGroup(g)
		return true
	})
}

// RemoveFromGroup removes contact from group g.
func (e *Engine) RemoveFromGroup(ctx context.Context, contact, g handle.Handle) error {
	if err := e.checkGroups(g); err != nil {
		return err
	}
	return e.mutate(ctx, contact, func(_ *item, ed *edit) bool {
		ed.removeGroup(g)
		return true
	})
}

// SetGroups sets the exact group membership of contact.
func (e *Engine) SetGroups(ctx context.Context, contact handle.Handle, groups []handle.Handle) error {
	if err := e.checkGroups(groups...); err != nil {
		return err
	}
	return e.mutate(ctx, contact, func(_ *item, ed *edit) bool {
		ed.setGroups(groups)
		return true
	})
}

func (e *Engine) checkGroups(groups ...handle.Handle) error {
	for _, g := range groups {
		if !e.groups.IsValid(g) {
			return ErrUnknownGroup
		}
	}
	return nil
}

func ensureOp(it *item, ed *edit) bool {
	if it.listed && it.vendorType != rostermodel.Hidden {
		return false
	}
	ed.setCreate()
	ed.setVendorType(rostermodel.Normal)
	return true
}

// mutate requests an edit and waits for its round trip, if one was sent.
func (e *Engine) mutate(ctx context.Context, contact handle.Handle, op editOp) error {
	var waitCh <-chan error
	var err error
	if doErr := e.do(ctx, func() {
		waitCh, err = e.requestEdit(ctx, contact, op)
	}); doErr != nil {
		return doErr
	}
	if err != nil || waitCh == nil {
		return err
	}
	select {
	case err := <-waitCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// requestEdit applies op to contact. When an edit is already in flight the change is merged
// into the queued edit and a nil channel is returned.
func (e *Engine) requestEdit(ctx context.Context, contact handle.Handle, op editOp) (<-chan error, error) {
	it, err := e.ensureItemByHandle(contact)
	if err != nil {
		return nil, err
	}
	if it.inFlight != nil {
		ed := it.queued
		if ed == nil {
			ed = newEdit(contact)
		}
		if !op(it, ed) {
			return nil, nil
		}
		it.queued = ed
		reportEdit(editOutcomeQueued)
		return nil, nil
	}
	ed := newEdit(contact)
	if !op(it, ed) {
		e.releaseItem(it)
		return nil, nil
	}
	return e.sendEdit(ctx, it, ed)
}

// sendEdit puts ed in flight, unless it does not change anything.
func (e *Engine) sendEdit(ctx context.Context, it *item, ed *edit) (<-chan error, error) {
	sh, altered, cancelSubscriptions := ed.apply(it)
	if cancelSubscriptions {
		if err := e.cancelSubscriptions(ctx, it); err != nil {
			return nil, err
		}
	}
	if !altered {
		reportEdit(editOutcomeUnchanged)
		ed.resolve(nil)
		e.releaseItem(it)
		return nil, nil
	}
	ed.id = uuid.New().String()
	iq := e.encodeEdit(ed.id, it, sh)

	waitCh := ed.addWaiter()
	ed.sentAt = time.Now()
	it.inFlight = ed
	e.pendingEdits[ed.id] = ed

	if err := e.sender.SendElement(ctx, iq); err != nil {
		delete(e.pendingEdits, ed.id)
		it.inFlight = nil
		ed.waiters = nil
		reportEdit(editOutcomeFailed)
		e.releaseItem(it)
		return nil, err
	}
	reportEdit(editOutcomeSent)
	level.Debug(e.logger).Log("msg", "roster edit sent", "jid", it.jid.String(), "id", ed.id)
	return waitCh, nil
}

func (e *Engine) encodeEdit(id string, it *item, sh shadow) *stravaganza.IQ {
	d := &rostermodel.Descriptor{
		JID:          it.jid,
		Subscription: sh.subscription,
		VendorType:   sh.vendorType,
		Name:         sh.name,
		Groups:       e.groupNames(sh.groups),
	}
	iq, _ := stravaganza.NewIQBuilder().
		WithAttribute(stravaganza.ID, id).
		WithAttribute(stravaganza.Type, stravaganza.SetType).
		WithChild(
			rostermodel.NewQueryBuilder(e.cfg.VendorRoster).
				WithChild(d.Element(e.cfg.VendorRoster)).
				Build(),
		).
		BuildIQ()
	return iq
}

// cancelSubscriptions withdraws both subscription directions of it.
func (e *Engine) cancelSubscriptions(ctx context.Context, it *item) error {
	if it.subscription.SendsPresence() {
		if err := e.sender.SendElement(ctx, xmpputil.MakePresence(nil, it.jid, stravaganza.UnsubscribedType, "")); err != nil {
			return err
		}
	}
	if it.subscription.ReceivesPresence() {
		if err := e.sender.SendElement(ctx, xmpputil.MakePresence(nil, it.jid, stravaganza.UnsubscribeType, "")); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) processEditReply(ctx context.Context, iq *stravaganza.IQ, ed *edit) {
	delete(e.pendingEdits, ed.id)

	it := e.lookupItem(ed.contact)
	if it == nil || it.inFlight != ed {
		ed.resolve(ErrDisconnected)
		return
	}
	it.inFlight = nil

	if iq.IsResult() {
		cs := newChangeSet()
		e.finalizeEdit(it, ed, cs)
		e.emit(ctx, cs)

		reportEditReply(editOutcomeSuccess, ed.sentAt)
		ed.resolve(nil)
	} else {
		editErr := newEditError(iq)
		level.Info(e.logger).Log("msg", "roster edit rejected", "jid", it.jid.String(), "id", ed.id, "err", editErr)

		reportEditReply(editOutcomeRejected, ed.sentAt)
		ed.resolve(editErr)
	}
	if queued := it.queued; queued != nil {
		it.queued = nil
		if _, err := e.sendEdit(ctx, it, queued); err != nil {
			level.Warn(e.logger).Log("msg", "failed to send queued roster edit", "jid", it.jid.String(), "err", err)
		}
		return
	}
	e.releaseItem(it)
}

// finalizeEdit applies an acknowledged edit to the item.
func (e *Engine) finalizeEdit(it *item, ed *edit, cs *changeSet) {
	if ed.subscription == rostermodel.Remove && !it.listed {
		return // already removed by a push
	}
	sh, _, _ := ed.apply(it)

	groups := sh.groups
	for g := range groups {
		if !e.knownGroups.Has(g) {
			e.knownGroups.Add(g)
			cs.groupCreated(g)
		}
	}
	e.updateItem(it, itemUpdate{
		subscription: sh.subscription,
		ask:          it.ask,
		vendor:       e.cfg.VendorRoster,
		vendorType:   sh.vendorType,
		name:         sh.name,
		groups:       groups,
	}, cs)
}
