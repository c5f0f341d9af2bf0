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
	"fmt"
	"io"
	"sync"

	rostermodel "github.com/jackal-xmpp/rostersync/pkg/model/roster"
	xmpputil "github.com/jackal-xmpp/rostersync/pkg/util/xmpp"
	"github.com/jackal-xmpp/stravaganza/v2"
	stanzaerror "github.com/jackal-xmpp/stravaganza/v2/errors/stanza"
)

// printer serializes transcript output lines.
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) printf(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// loopback plays the server side of the connection.
// Every outbound stanza is printed and roster sets are answered asynchronously.
type loopback struct {
	p       *printer
	deliver func(stravaganza.Stanza)

	mu       sync.Mutex
	failNext stanzaerror.Reason

	wg sync.WaitGroup
}

func newLoopback(p *printer) *loopback {
	return &loopback{p: p}
}

// SendElement satisfies the roster engine sender interface.
func (l *loopback) SendElement(_ context.Context, elem stravaganza.Element) error {
	l.p.printf("<< %s", elem.String())

	reply := l.replyTo(elem)
	if reply == nil {
		return nil
	}
	// replies must not be delivered from the engine run queue
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.deliver(reply)
	}()
	return nil
}

// rejectNext makes the next roster set fail with reason.
func (l *loopback) rejectNext(reason stanzaerror.Reason) {
	l.mu.Lock()
	l.failNext = reason
	l.mu.Unlock()
}

// wait blocks until every scheduled reply has been delivered.
func (l *loopback) wait() {
	l.wg.Wait()
}

func (l *loopback) replyTo(elem stravaganza.Element) *stravaganza.IQ {
	iq, ok := elem.(*stravaganza.IQ)
	if !ok || !iq.IsSet() || len(iq.Attribute(stravaganza.To)) > 0 {
		return nil
	}
	if iq.ChildNamespace("query", rostermodel.Namespace) == nil {
		return nil
	}
	l.mu.Lock()
	reason := l.failNext
	l.failNext = ""
	l.mu.Unlock()

	if len(reason) > 0 {
		return xmpputil.MakeErrorIQ(iq.Attribute(stravaganza.ID), "cancel", reason)
	}
	return xmpputil.MakeResultIQ(iq, nil)
}
