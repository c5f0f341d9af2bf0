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
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackal-xmpp/stravaganza/v2"
)

const rootElementIndex = -1

// ErrTooLargeStanza will be returned by Parse when the size of the incoming stanza is too large.
var ErrTooLargeStanza = errors.New("xmppparser: too large stanza")

// Parser reads a sequence of top-level XML elements.
// Attribute and element names keep their raw prefix, so "gr:t" is reported as is.
type Parser struct {
	dec               *xml.Decoder
	stack             []*stravaganza.Builder
	index             int
	rootElementOffset int64
	maxStanzaSize     int64
}

// New creates a Parser reading from r. Elements larger than maxStanzaSize bytes are rejected.
func New(r io.Reader, maxStanzaSize int) *Parser {
	return &Parser{
		dec:           xml.NewDecoder(bufio.NewReader(r)),
		index:         rootElementIndex,
		maxStanzaSize: int64(maxStanzaSize),
	}
}

// Parse returns the next top-level element. io.EOF is returned once the input is exhausted.
func (p *Parser) Parse() (stravaganza.Element, error) {
	for {
		t, err := p.dec.RawToken()
		if err != nil {
			if errors.Is(err, io.EOF) && p.index != rootElementIndex {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if p.index != rootElementIndex && p.dec.InputOffset()-p.rootElementOffset > p.maxStanzaSize {
			return nil, ErrTooLargeStanza
		}
		switch t1 := t.(type) {
		case xml.CharData:
			if p.index != rootElementIndex && len(strings.TrimSpace(string(t1))) > 0 {
				p.stack[p.index].WithText(string(t1))
			}

		case xml.StartElement:
			p.startElement(t1)

		case xml.EndElement:
			elem, err := p.endElement(t1)
			if err != nil {
				return nil, err
			}
			if elem != nil {
				return elem, nil
			}
		}
	}
}

// ParseStanza returns the next top-level element converted into its stanza type.
// Elements other than iq, presence and message are returned as plain elements.
func (p *Parser) ParseStanza() (stravaganza.Element, error) {
	elem, err := p.Parse()
	if err != nil {
		return nil, err
	}
	return ToStanza(elem)
}

// ToStanza converts elem into an *stravaganza.IQ, *stravaganza.Presence or *stravaganza.Message
// according to its name.
func ToStanza(elem stravaganza.Element) (stravaganza.Element, error) {
	b := stravaganza.NewBuilderFromElement(elem)
	switch elem.Name() {
	case "iq":
		iq, err := b.BuildIQ()
		if err != nil {
			return nil, err
		}
		return iq, nil
	case "presence":
		pr, err := b.BuildPresence()
		if err != nil {
			return nil, err
		}
		return pr, nil
	case "message":
		msg, err := b.BuildMessage()
		if err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return elem, nil
	}
}

func (p *Parser) startElement(t xml.StartElement) {
	var attrs []stravaganza.Attribute
	for _, a := range t.Attr {
		attrs = append(attrs, stravaganza.Attribute{Label: xmlName(a.Name.Space, a.Name.Local), Value: a.Value})
	}
	builder := stravaganza.NewBuilder(xmlName(t.Name.Space, t.Name.Local)).WithAttributes(attrs...)
	p.stack = append(p.stack, builder)

	if p.index == rootElementIndex {
		p.rootElementOffset = p.dec.InputOffset()
	}
	p.index = len(p.stack) - 1
}

func (p *Parser) endElement(t xml.EndElement) (stravaganza.Element, error) {
	name := xmlName(t.Name.Space, t.Name.Local)
	if p.index == rootElementIndex {
		return nil, errUnexpectedEnd(name)
	}
	element := p.stack[p.index].Build()
	if name != element.Name() {
		return nil, errUnexpectedEnd(name)
	}
	p.stack = p.stack[:p.index]
	p.index = len(p.stack) - 1

	if p.index == rootElementIndex {
		p.rootElementOffset = 0
		return element, nil
	}
	p.stack[p.index].WithChild(element)
	return nil, nil
}

func xmlName(space, local string) string {
	if len(space) > 0 {
		return fmt.Sprintf("%s:%s", space, local)
	}
	return local
}

func errUnexpectedEnd(name string) error {
	return fmt.Errorf("xmppparser: unexpected end element </%s>", name)
}
