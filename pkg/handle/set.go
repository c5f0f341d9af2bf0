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

// Set is an unordered collection of handles.
type Set map[Handle]struct{}

// NewSet returns a set containing hs.
func NewSet(hs ...Handle) Set {
	s := make(Set, len(hs))
	for _, h := range hs {
		s[h] = struct{}{}
	}
	return s
}

// Add adds h to the set.
func (s Set) Add(h Handle) { s[h] = struct{}{} }

// Remove removes h from the set.
func (s Set) Remove(h Handle) { delete(s, h) }

// Has tells whether h belongs to the set.
func (s Set) Has(h Handle) bool {
	_, ok := s[h]
	return ok
}

// Len returns the number of elements in the set.
func (s Set) Len() int { return len(s) }

// Clone returns a copy of the set.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for h := range s {
		c[h] = struct{}{}
	}
	return c
}

// Equal tells whether both sets hold the same handles.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for h := range s {
		if !o.Has(h) {
			return false
		}
	}
	return true
}

// Difference returns the handles in s that are not in o.
func (s Set) Difference(o Set) Set {
	d := make(Set)
	for h := range s {
		if !o.Has(h) {
			d[h] = struct{}{}
		}
	}
	return d
}

// Slice returns the set contents sorted in ascending order.
func (s Set) Slice() []Handle {
	if len(s) == 0 {
		return nil
	}
	hs := make([]Handle, 0, len(s))
	for h := range s {
		hs = append(hs, h)
	}
	Sort(hs)
	return hs
}
