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
	"sort"
	"sync/atomic"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/jackal-xmpp/runqueue/v2"
	"github.com/jackal-xmpp/rostersync/pkg/handle"
	"github.com/jackal-xmpp/rostersync/pkg/hook"
	rostermodel "github.com/jackal-xmpp/rostersync/pkg/model/roster"
	"github.com/jackal-xmpp/stravaganza/v2"
	"github.com/jackal-xmpp/stravaganza/v2/jid"
)

// Engine keeps a local mirror of the server roster of a single account.
//
// Every stanza, edit reply and timer is processed serially on an internal run queue.
// Hook handlers are invoked from that run queue as well, hence they must not call back
// into blocking Engine methods.
type Engine struct {
	cfg       Config
	selfJID   *jid.JID
	contacts  handleRegistry
	groups    handleRegistry
	sender    stanzaSender
	presences presenceCache
	hk        *hook.Hooks
	logger    kitlog.Logger
	rq        *runqueue.RunQueue
	closed    atomic.Bool

	selfHandle    handle.Handle
	items         map[handle.Handle]*item
	knownGroups   handle.Set
	pendingEdits  map[string]*edit
	fetchID       string
	received      bool
	rosterWaiters []chan error
}

// New returns a roster engine for the account identified by selfJID.
// presences may be nil, in which case the presence of every contact is considered unknown.
func New(
	cfg Config,
	selfJID *jid.JID,
	contacts handleRegistry,
	groups handleRegistry,
	sender stanzaSender,
	presences presenceCache,
	hk *hook.Hooks,
	logger kitlog.Logger,
) *Engine {
	if cfg.FlickerTimeout <= 0 {
		cfg.FlickerTimeout = defaultFlickerTimeout
	}
	bareJID := selfJID.ToBareJID()
	selfHandle, _ := contacts.Ensure(bareJID.String())

	return &Engine{
		cfg:          cfg,
		selfJID:      bareJID,
		contacts:     contacts,
		groups:       groups,
		sender:       sender,
		presences:    presences,
		hk:           hk,
		logger:       kitlog.With(logger, "roster", bareJID.String()),
		rq:           runqueue.New("roster:" + bareJID.String()),
		selfHandle:   selfHandle,
		items:        make(map[handle.Handle]*item),
		knownGroups:  handle.NewSet(),
		pendingEdits: make(map[string]*edit),
	}
}

// RequestRoster sends the initial roster fetch request.
func (e *Engine) RequestRoster(ctx context.Context) error {
	var err error
	if doErr := e.do(ctx, func() {
		iq, _ := stravaganza.NewIQBuilder().
			WithAttribute(stravaganza.ID, uuid.New().String()).
			WithAttribute(stravaganza.Type, stravaganza.GetType).
			WithChild(rostermodel.NewQueryBuilder(e.cfg.VendorRoster).Build()).
			BuildIQ()

		e.fetchID = iq.Attribute(stravaganza.ID)
		err = e.sender.SendElement(ctx, iq)
	}); doErr != nil {
		return doErr
	}
	return err
}

// AwaitRoster blocks until the initial roster has been received.
func (e *Engine) AwaitRoster(ctx context.Context) error {
	ch := make(chan error, 1)
	if err := e.do(ctx, func() {
		if e.received {
			ch <- nil
			return
		}
		e.rosterWaiters = append(e.rosterWaiters, ch)
	}); err != nil {
		return err
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProcessStanza handles an incoming stanza.
// It returns false when the stanza is not related to the roster and should be handled elsewhere.
func (e *Engine) ProcessStanza(ctx context.Context, stanza stravaganza.Stanza) bool {
	var consumed bool
	if err := e.do(ctx, func() {
		switch st := stanza.(type) {
		case *stravaganza.IQ:
			consumed = e.processIQ(ctx, st)
		case *stravaganza.Presence:
			consumed = e.processPresence(ctx, st)
		}
	}); err != nil {
		return false
	}
	return consumed
}

// Disconnect fails every pending edit and roster waiter with ErrDisconnected,
// cancels all timers and clears the local roster.
func (e *Engine) Disconnect(ctx context.Context) error {
	return e.do(ctx, e.disconnect)
}

// Close disconnects the engine and stops its run queue.
// Any operation invoked afterwards returns ErrClosed.
func (e *Engine) Close(ctx context.Context) error {
	if e.closed.Load() {
		return nil
	}
	if err := e.Disconnect(ctx); err != nil {
		return err
	}
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	ch := make(chan struct{})
	e.rq.Stop(func() { close(ch) })

	select {
	case <-ch:
		level.Info(e.logger).Log("msg", "roster closed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) disconnect() {
	var failed int
	for _, it := range e.items {
		e.cancelFlicker(it)
		for _, ed := range []*edit{it.inFlight, it.queued} {
			if ed == nil {
				continue
			}
			failed += len(ed.waiters)
			ed.resolve(ErrDisconnected)
		}
	}
	for _, ch := range e.rosterWaiters {
		ch <- ErrDisconnected
	}
	e.items = make(map[handle.Handle]*item)
	e.knownGroups = handle.NewSet()
	e.pendingEdits = make(map[string]*edit)
	e.rosterWaiters = nil
	e.fetchID = ""
	e.received = false

	level.Info(e.logger).Log("msg", "roster disconnected", "failed_requests", failed)
}

// Received tells whether the initial roster has been received.
func (e *Engine) Received(ctx context.Context) (bool, error) {
	var received bool
	if err := e.do(ctx, func() { received = e.received }); err != nil {
		return false, err
	}
	return received, nil
}

// Item returns a snapshot of the roster entry associated to contact.
func (e *Engine) Item(ctx context.Context, contact handle.Handle) (rostermodel.Item, bool, error) {
	var ri rostermodel.Item
	var ok bool
	if err := e.do(ctx, func() {
		it := e.lookupItem(contact)
		if it == nil || !it.isVisible() {
			return
		}
		ri, ok = e.snapshot(it), true
	}); err != nil {
		return rostermodel.Item{}, false, err
	}
	return ri, ok, nil
}

// Items returns a snapshot of every roster entry sorted by contact handle.
func (e *Engine) Items(ctx context.Context) ([]rostermodel.Item, error) {
	var items []rostermodel.Item
	if err := e.do(ctx, func() {
		for _, it := range e.items {
			if !it.isVisible() {
				continue
			}
			items = append(items, e.snapshot(it))
		}
	}); err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Contact < items[j].Contact })
	return items, nil
}

// Members returns the current members, local pending and remote pending contacts of a list.
func (e *Engine) Members(ctx context.Context, l rostermodel.List) (members, localPending, remotePending []handle.Handle, err error) {
	err = e.do(ctx, func() {
		m, lp, rp := handle.NewSet(), handle.NewSet(), handle.NewSet()
		for _, it := range e.items {
			switch it.listState(l) {
			case rostermodel.Yes:
				m.Add(it.contact)
			case rostermodel.Ask:
				if l == rostermodel.Publish {
					lp.Add(it.contact)
				} else {
					rp.Add(it.contact)
				}
			}
		}
		members, localPending, remotePending = m.Slice(), lp.Slice(), rp.Slice()
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return members, localPending, remotePending, nil
}

// GroupMembers returns the contacts belonging to group g.
func (e *Engine) GroupMembers(ctx context.Context, g handle.Handle) ([]handle.Handle, error) {
	var members []handle.Handle
	if err := e.do(ctx, func() {
		m := handle.NewSet()
		for _, it := range e.items {
			if it.groups.Has(g) {
				m.Add(it.contact)
			}
		}
		members = m.Slice()
	}); err != nil {
		return nil, err
	}
	return members, nil
}

// do runs fn on the engine run queue and waits for its completion.
func (e *Engine) do(ctx context.Context, fn func()) error {
	if e.closed.Load() {
		return ErrClosed
	}
	done := make(chan struct{})
	e.rq.Run(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
