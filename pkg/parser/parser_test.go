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

package xmppparser

import (
	"io"
	"strings"
	"testing"

	"github.com/jackal-xmpp/stravaganza/v2"
	"github.com/stretchr/testify/require"
)

func TestParser_ParseSeveralElements(t *testing.T) {
	// given
	docSrc := `<?xml version="1.0" encoding="UTF-8"?><a/><b/>
<c/>`
	p := New(strings.NewReader(docSrc), 1024)

	// when
	a, err1 := p.Parse()
	b, err2 := p.Parse()
	c, err3 := p.Parse()
	_, err4 := p.Parse()

	// then
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.NoError(t, err3)
	require.Equal(t, "a", a.Name())
	require.Equal(t, "b", b.Name())
	require.Equal(t, "c", c.Name())
	require.Equal(t, io.EOF, err4)
}

func TestParser_DocChildElements(t *testing.T) {
	// given
	docSrc := `<parent><a/><b/><c/></parent>`
	p := New(strings.NewReader(docSrc), 1024)

	// when
	elem, err := p.Parse()

	// then
	require.NoError(t, err)
	childs := elem.AllChildren()
	require.Len(t, childs, 3)
	require.Equal(t, "a", childs[0].Name())
	require.Equal(t, "b", childs[1].Name())
	require.Equal(t, "c", childs[2].Name())
}

func TestParser_PrefixedAttributes(t *testing.T) {
	// given
	docSrc := `<query xmlns="jabber:iq:roster" xmlns:gr="google:roster" gr:ext="2">
  <item jid="noelia@jackal.im" gr:t="B"><group>Friends</group></item>
</query>`
	p := New(strings.NewReader(docSrc), 1024)

	// when
	elem, err := p.Parse()

	// then
	require.NoError(t, err)
	require.Equal(t, "google:roster", elem.Attribute("xmlns:gr"))
	require.Equal(t, "2", elem.Attribute("gr:ext"))

	item := elem.Child("item")
	require.NotNil(t, item)
	require.Equal(t, "B", item.Attribute("gr:t"))
	require.Equal(t, "Friends", item.Child("group").Text())
}

func TestParser_ErrTooLargeStanza(t *testing.T) {
	// given
	docSrc := `<a/><group>a very long group name</group>`
	p := New(strings.NewReader(docSrc), 8)

	// when
	a, err1 := p.Parse()
	_, err2 := p.Parse()

	// then
	require.NoError(t, err1)
	require.Equal(t, "<a/>", a.String())
	require.Equal(t, ErrTooLargeStanza, err2)
}

func TestParser_UnexpectedEnd(t *testing.T) {
	// given
	p := New(strings.NewReader(`</a>`), 1024)

	// when
	_, err := p.Parse()

	// then
	require.Error(t, err)
}

func TestParser_ParseStanza(t *testing.T) {
	// given
	docSrc := `<iq type="set" id="push1"><query xmlns="jabber:iq:roster"/></iq>
<presence from="noelia@jackal.im" type="subscribe"/>
<cmd xmlns="urn:rostersync:replay" op="rename"/>`
	p := New(strings.NewReader(docSrc), 1024)

	// when
	s1, err1 := p.ParseStanza()
	s2, err2 := p.ParseStanza()
	s3, err3 := p.ParseStanza()

	// then
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.NoError(t, err3)

	iq, ok := s1.(*stravaganza.IQ)
	require.True(t, ok)
	require.True(t, iq.IsSet())

	pr, ok := s2.(*stravaganza.Presence)
	require.True(t, ok)
	require.Equal(t, stravaganza.SubscribeType, pr.Attribute(stravaganza.Type))

	require.Equal(t, "cmd", s3.Name())
}
