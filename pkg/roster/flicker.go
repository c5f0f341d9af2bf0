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
	"github.com/jackal-xmpp/rostersync/pkg/handle"
	rostermodel "github.com/jackal-xmpp/rostersync/pkg/model/roster"
)

// flickerGuard holds back the removal of a remote-pending contact.
//
// Some servers report a subscription request as withdrawn right before asserting it again,
// producing a spurious removal from the subscribe list. Removals arriving while a guard is
// armed are deferred until it fires, at which point the live item is checked again.
type flickerGuard struct {
	tm *time.Timer
}

// guardSubscribe updates the subscribe state of an item reporting a none/from subscription.
func (e *Engine) guardSubscribe(it *item) {
	if it.ask {
		if it.subscribe == rostermodel.Yes {
			// never demote an established subscription to pending
			return
		}
		if it.flicker == nil {
			e.armFlicker(it)
		} else {
			e.cancelFlicker(it)
			reportFlicker(flickerCanceled)
		}
		it.subscribe = rostermodel.Ask
		return
	}
	if it.flicker != nil {
		level.Debug(e.logger).Log("msg", "delaying subscribe list removal", "jid", it.jid.String())
		reportFlicker(flickerDelayed)
		return
	}
	it.subscribe = rostermodel.No
}

func (e *Engine) armFlicker(it *item) {
	g := &flickerGuard{}
	contact := it.contact
	g.tm = time.AfterFunc(e.cfg.FlickerTimeout, func() {
		if e.closed.Load() {
			return
		}
		e.rq.Run(func() {
			e.flickerFired(context.Background(), contact, g)
		})
	})
	it.flicker = g
	reportFlicker(flickerArmed)
}

// cancelFlicker stops the guard timer of it, if any. Calling it more than once is harmless.
func (e *Engine) cancelFlicker(it *item) {
	if it.flicker == nil {
		return
	}
	it.flicker.tm.Stop()
	it.flicker = nil
}

func (e *Engine) flickerFired(ctx context.Context, contact handle.Handle, g *flickerGuard) {
	it := e.lookupItem(contact)
	if it == nil || it.flicker != g {
		return // canceled
	}
	it.flicker = nil
	reportFlicker(flickerExpired)

	if it.ask || (it.subscription != rostermodel.None && it.subscription != rostermodel.From) {
		return
	}
	if it.subscribe == rostermodel.No {
		return
	}
	cs := newChangeSet()
	cs.touch(it)
	it.subscribe = rostermodel.No

	level.Debug(e.logger).Log("msg", "subscription request withdrawn", "jid", it.jid.String())
	e.emit(ctx, cs)
	e.releaseItem(it)
}
