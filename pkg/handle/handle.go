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

package handle

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackal-xmpp/stravaganza/v2/jid"
	"golang.org/x/text/unicode/norm"
)

// Handle is a stable integer reference to a protocol identifier.
// The zero value never refers to a valid identifier.
type Handle uint32

// None represents the invalid handle.
const None Handle = 0

// ErrInvalidIdentifier is returned when an identifier has no normalized form.
var ErrInvalidIdentifier = errors.New("handle: invalid identifier")

// NormalizeFunc maps an identifier to its canonical form.
type NormalizeFunc func(id string) (string, error)

// Repository maps identifiers to handles and back.
// It is safe for concurrent use.
type Repository struct {
	name      string
	normalize NormalizeFunc

	mu      sync.RWMutex
	handles map[string]Handle
	ids     []string
}

// NewRepository returns an empty repository using fn to normalize identifiers.
func NewRepository(name string, fn NormalizeFunc) *Repository {
	return &Repository{
		name:      name,
		normalize: fn,
		handles:   make(map[string]Handle),
		ids:       []string{""},
	}
}

// NewContactRepository returns a repository of bare JIDs.
// Resource parts are stripped on normalization.
func NewContactRepository() *Repository {
	return NewRepository("contact", NormalizeContact)
}

// NewGroupRepository returns a repository of roster group names.
func NewGroupRepository() *Repository {
	return NewRepository("group", NormalizeGroup)
}

// Ensure returns the handle associated to id, allocating a new one if needed.
func (r *Repository) Ensure(id string) (Handle, error) {
	nid, err := r.normalize(id)
	if err != nil {
		return None, err
	}
	r.mu.RLock()
	h, ok := r.handles[nid]
	r.mu.RUnlock()
	if ok {
		return h, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[nid]; ok {
		return h, nil
	}
	h = Handle(len(r.ids))
	r.ids = append(r.ids, nid)
	r.handles[nid] = h
	return h, nil
}

// Lookup returns the handle associated to id without allocating it.
func (r *Repository) Lookup(id string) (Handle, bool) {
	nid, err := r.normalize(id)
	if err != nil {
		return None, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[nid]
	return h, ok
}

// Inspect returns the normalized identifier of h, or an empty string if h is unknown.
func (r *Repository) Inspect(h Handle) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h == None || int(h) >= len(r.ids) {
		return ""
	}
	return r.ids[h]
}

// IsValid tells whether h has been allocated by this repository.
func (r *Repository) IsValid(h Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return h != None && int(h) < len(r.ids)
}

// String satisfies fmt.Stringer interface.
func (r *Repository) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("%s repository (%d handles)", r.name, len(r.ids)-1)
}

// NormalizeContact returns the bare string representation of a JID.
func NormalizeContact(id string) (string, error) {
	if len(id) == 0 {
		return "", ErrInvalidIdentifier
	}
	j, err := jid.NewWithString(id, false)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	return j.ToBareJID().String(), nil
}

// NormalizeGroup returns the NFC form of a group name.
func NormalizeGroup(id string) (string, error) {
	name := norm.NFC.String(id)
	if len(strings.TrimSpace(name)) == 0 {
		return "", ErrInvalidIdentifier
	}
	return name, nil
}

// Sort sorts handles in ascending order.
func Sort(hs []Handle) {
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
}
