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

	"github.com/jackal-xmpp/rostersync/pkg/handle"
	"github.com/jackal-xmpp/rostersync/pkg/hook"
	rostermodel "github.com/jackal-xmpp/rostersync/pkg/model/roster"
	xmpputil "github.com/jackal-xmpp/rostersync/pkg/util/xmpp"
	"github.com/jackal-xmpp/stravaganza/v2"
)

// Subscribe requests a presence subscription to contact.
// Some servers only honor requests for contacts already present in the roster,
// so an entry is ensured first.
func (e *Engine) Subscribe(ctx context.Context, contact handle.Handle, message string) error {
	return e.sendSubscription(ctx, contact, stravaganza.SubscribeType, message)
}

// Unsubscribe cancels our presence subscription to contact.
func (e *Engine) Unsubscribe(ctx context.Context, contact handle.Handle, message string) error {
	return e.sendSubscription(ctx, contact, stravaganza.UnsubscribeType, message)
}

// Authorize allows contact to receive our presence.
func (e *Engine) Authorize(ctx context.Context, contact handle.Handle, message string) error {
	return e.sendSubscription(ctx, contact, stravaganza.SubscribedType, message)
}

// Unauthorize denies or revokes contact permission to receive our presence.
func (e *Engine) Unauthorize(ctx context.Context, contact handle.Handle, message string) error {
	return e.sendSubscription(ctx, contact, stravaganza.UnsubscribedType, message)
}

func (e *Engine) sendSubscription(ctx context.Context, contact handle.Handle, typ, message string) error {
	var err error
	if doErr := e.do(ctx, func() {
		err = e.processSubscriptionRequest(ctx, contact, typ, message)
	}); doErr != nil {
		return doErr
	}
	return err
}

func (e *Engine) processSubscriptionRequest(ctx context.Context, contact handle.Handle, typ, message string) error {
	it, err := e.ensureItemByHandle(contact)
	if err != nil {
		return err
	}
	if typ == stravaganza.SubscribeType {
		if _, err := e.requestEdit(ctx, contact, ensureOp); err != nil {
			return err
		}
	}
	if err := e.sender.SendElement(ctx, xmpputil.MakePresence(nil, it.jid, typ, message)); err != nil {
		return err
	}
	if typ == stravaganza.UnsubscribedType && it.publish == rostermodel.Ask {
		// servers do not reliably push this transition
		cs := newChangeSet()
		cs.touch(it)
		it.publish = rostermodel.No
		it.publishRequest = ""
		cs.annotate(rostermodel.Publish, e.selfHandle, hook.ReasonLocalRequest, message)
		e.emit(ctx, cs)
	}
	e.releaseItem(it)
	return nil
}
