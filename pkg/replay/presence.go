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
	"sync"

	"github.com/jackal-xmpp/rostersync/pkg/handle"
	"github.com/jackal-xmpp/stravaganza/v2"
	"github.com/jackal-xmpp/stravaganza/v2/jid"
)

// presenceTracker remembers which contacts announced their availability during the replay.
type presenceTracker struct {
	contacts *handle.Repository

	mu   sync.RWMutex
	seen handle.Set
}

func newPresenceTracker(contacts *handle.Repository) *presenceTracker {
	return &presenceTracker{
		contacts: contacts,
		seen:     handle.NewSet(),
	}
}

// HasPresence tells whether an availability presence has been seen for contact.
func (t *presenceTracker) HasPresence(contact handle.Handle) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.seen.Has(contact)
}

func (t *presenceTracker) track(pr *stravaganza.Presence) {
	if !pr.IsAvailable() && !pr.IsUnavailable() {
		return
	}
	from, err := jid.NewWithString(pr.Attribute(stravaganza.From), false)
	if err != nil {
		return
	}
	contact, err := t.contacts.Ensure(from.ToBareJID().String())
	if err != nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen.Add(contact)
}
