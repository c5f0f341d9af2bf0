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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRepository_EnsureContact(t *testing.T) {
	// given
	r := NewContactRepository()

	// when
	h1, err1 := r.Ensure("noelia@jackal.im")
	h2, err2 := r.Ensure("Noelia@jackal.im/balcony")
	h3, err3 := r.Ensure("ortuman@jackal.im")

	// then
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.NoError(t, err3)

	require.Equal(t, h1, h2)
	require.NotEqual(t, h1, h3)
	require.Equal(t, "noelia@jackal.im", r.Inspect(h1))
	require.True(t, r.IsValid(h3))
}

func TestRepository_EnsureInvalid(t *testing.T) {
	// given
	r := NewContactRepository()

	// when
	h1, err1 := r.Ensure("")
	h2, err2 := r.Ensure("noelia@")

	// then
	require.True(t, errors.Is(err1, ErrInvalidIdentifier))
	require.True(t, errors.Is(err2, ErrInvalidIdentifier))
	require.Equal(t, None, h1)
	require.Equal(t, None, h2)
}

func TestRepository_Lookup(t *testing.T) {
	// given
	r := NewGroupRepository()
	h, _ := r.Ensure("Friends")

	// when
	h1, ok1 := r.Lookup("Friends")
	_, ok2 := r.Lookup("Family")

	// then
	require.True(t, ok1)
	require.Equal(t, h, h1)
	require.False(t, ok2)
	require.Equal(t, "", r.Inspect(Handle(42)))
	require.False(t, r.IsValid(None))
}

func TestRepository_GroupNormalization(t *testing.T) {
	// given
	r := NewGroupRepository()

	// when
	h1, _ := r.Ensure("Café")
	h2, _ := r.Ensure("Café")
	_, err := r.Ensure("   ")

	// then
	require.Equal(t, h1, h2)
	require.Equal(t, ErrInvalidIdentifier, err)
}

func TestSet_Operations(t *testing.T) {
	// given
	s1 := NewSet(1, 2, 3)
	s2 := NewSet(3, 4)

	// when
	d := s1.Difference(s2)
	c := s1.Clone()
	c.Remove(1)
	c.Add(9)

	// then
	require.Equal(t, []Handle{1, 2}, d.Slice())
	require.Equal(t, []Handle{2, 3, 9}, c.Slice())
	require.True(t, s1.Equal(NewSet(3, 2, 1)))
	require.False(t, s1.Equal(s2))
	require.Nil(t, NewSet().Slice())
}
