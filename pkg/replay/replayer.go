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

package replay

import (
	"context"
	"errors"
	"fmt"
	"io"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jackal-xmpp/rostersync/pkg/handle"
	"github.com/jackal-xmpp/rostersync/pkg/hook"
	xmppparser "github.com/jackal-xmpp/rostersync/pkg/parser"
	"github.com/jackal-xmpp/rostersync/pkg/roster"
	"github.com/jackal-xmpp/stravaganza/v2"
	"github.com/jackal-xmpp/stravaganza/v2/jid"
)

const defaultMaxStanzaSize = 32768

// Replayer feeds a stanza transcript into a roster engine connected to a loopback server.
//
// Output lines are prefixed by ">>" (inbound stanza), "<<" (outbound stanza), "**" (roster event),
// "##" (transcript command), "==" (query result), "!!" (error) and "--" (notice).
type Replayer struct {
	cfg    Config
	p      *printer
	logger kitlog.Logger

	contacts  *handle.Repository
	groups    *handle.Repository
	presences *presenceTracker
	loop      *loopback
	hk        *hook.Hooks
	events    *eventPrinter
	eng       *roster.Engine
}

// New returns a Replayer writing its transcript output to out.
func New(cfg Config, out io.Writer, logger kitlog.Logger) (*Replayer, error) {
	self, err := jid.NewWithString(cfg.JID, false)
	if err != nil {
		return nil, fmt.Errorf("replay: invalid account JID: %w", err)
	}
	p := &printer{out: out}
	contacts := handle.NewContactRepository()
	groups := handle.NewGroupRepository()

	hk := hook.NewHooks()
	ep := &eventPrinter{p: p, contacts: contacts}
	ep.register(hk)

	r := &Replayer{
		cfg:       cfg,
		p:         p,
		logger:    logger,
		contacts:  contacts,
		groups:    groups,
		presences: newPresenceTracker(contacts),
		loop:      newLoopback(p),
		hk:        hk,
		events:    ep,
	}
	r.eng = roster.New(cfg.Roster, self, contacts, groups, r.loop, r.presences, hk, logger)
	r.loop.deliver = func(stanza stravaganza.Stanza) {
		r.p.printf(">> %s", stanza.String())
		r.eng.ProcessStanza(context.Background(), stanza)
	}
	return r, nil
}

// Run replays every top-level element read from in.
func (r *Replayer) Run(ctx context.Context, in io.Reader) error {
	if r.cfg.HTTPPort > 0 {
		srv := newMetricsServer(fmt.Sprintf(":%d", r.cfg.HTTPPort), r.logger)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = srv.Stop(context.Background()) }()
	}
	defer func() {
		if err := r.eng.Close(context.Background()); err != nil {
			level.Warn(r.logger).Log("msg", "failed to close roster engine", "err", err)
		}
		r.events.unregister(r.hk)
	}()

	maxStanzaSize := r.cfg.MaxStanzaSize
	if maxStanzaSize <= 0 {
		maxStanzaSize = defaultMaxStanzaSize
	}
	p := xmppparser.New(in, maxStanzaSize)

	var steps int
	for {
		elem, err := p.Parse()
		switch {
		case errors.Is(err, io.EOF):
			level.Info(r.logger).Log("msg", "transcript replayed", "steps", steps)
			return nil
		case err != nil:
			return err
		}
		if err := r.step(ctx, elem); err != nil {
			return err
		}
		r.loop.wait()
		steps++
	}
}

func (r *Replayer) step(ctx context.Context, elem stravaganza.Element) error {
	if elem.Name() == "cmd" && elem.Attribute(stravaganza.Namespace) == commandNamespace {
		return r.runCommand(ctx, elem)
	}
	st, err := xmppparser.ToStanza(elem)
	if err != nil {
		r.p.printf("!! invalid stanza: %v", err)
		return nil
	}
	stanza, ok := st.(stravaganza.Stanza)
	if !ok {
		r.p.printf("-- ignored <%s/>", elem.Name())
		return nil
	}
	if pr, ok := stanza.(*stravaganza.Presence); ok {
		r.presences.track(pr)
	}
	r.p.printf(">> %s", stanza.String())
	if !r.eng.ProcessStanza(ctx, stanza) {
		r.p.printf("-- not handled by roster")
	}
	return nil
}
