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

package rostermodel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackal-xmpp/stravaganza/v2"
	"github.com/jackal-xmpp/stravaganza/v2/jid"
)

const (
	// Namespace is the roster management namespace.
	Namespace = "jabber:iq:roster"

	// VendorNamespace is the google:roster extension namespace.
	VendorNamespace = "google:roster"

	// VendorPrefix is the prefix used for outgoing google:roster attributes.
	VendorPrefix = "gr"

	vendorExtVersion = "2"
)

// ErrResourceNotAllowed is returned when a roster item JID contains a resource part.
var ErrResourceNotAllowed = errors.New("rostermodel: item 'jid' must not contain a resource")

// Descriptor represents a decoded roster <item/> element.
type Descriptor struct {
	JID          *jid.JID
	Subscription Subscription
	Ask          bool
	VendorType   VendorType
	Name         string
	Groups       []string
}

// NewDescriptor decodes a roster item element.
// vendorPrefix is the attribute prefix bound to the google:roster namespace, or empty if the extension is not in use.
func NewDescriptor(elem stravaganza.Element, vendorPrefix string) (*Descriptor, error) {
	if elem.Name() != "item" {
		return nil, fmt.Errorf("rostermodel: invalid item element name: %s", elem.Name())
	}
	jidStr := elem.Attribute("jid")
	if len(jidStr) == 0 {
		return nil, errors.New("rostermodel: item 'jid' attribute is required")
	}
	if strings.Contains(jidStr, "/") {
		return nil, ErrResourceNotAllowed
	}
	j, err := jid.NewWithString(jidStr, false)
	if err != nil {
		return nil, err
	}
	sub, err := ParseSubscription(elem.Attribute("subscription"))
	if err != nil {
		return nil, err
	}
	d := &Descriptor{
		JID:          j,
		Subscription: sub,
		Ask:          elem.Attribute("ask") == "subscribe",
		Name:         elem.Attribute("name"),
	}
	if len(vendorPrefix) > 0 {
		d.VendorType = ParseVendorType(elem.Attribute(vendorPrefix + ":t"))
	}
	for _, group := range elem.Children("group") {
		if len(group.Text()) > 0 {
			d.Groups = append(d.Groups, group.Text())
		}
	}
	return d, nil
}

// Element encodes d as a roster item element.
// The subscription attribute is only included when requesting a removal.
func (d *Descriptor) Element(vendor bool) stravaganza.Element {
	b := stravaganza.NewBuilder("item").
		WithAttribute("jid", d.JID.String())
	if d.Subscription == Remove {
		b.WithAttribute("subscription", string(Remove))
	}
	if vendor && d.VendorType != Normal {
		b.WithAttribute(VendorPrefix+":t", d.VendorType.Tag())
	}
	if len(d.Name) > 0 {
		b.WithAttribute("name", d.Name)
	}
	for _, group := range d.Groups {
		b.WithChild(
			stravaganza.NewBuilder("group").
				WithText(group).
				Build(),
		)
	}
	return b.Build()
}

// NewQueryBuilder returns a roster query builder, declaring the google:roster extension when vendor is set.
func NewQueryBuilder(vendor bool) *stravaganza.Builder {
	b := stravaganza.NewBuilder("query").
		WithAttribute(stravaganza.Namespace, Namespace)
	if vendor {
		b.WithAttribute("xmlns:"+VendorPrefix, VendorNamespace).
			WithAttribute(VendorPrefix+":ext", vendorExtVersion).
			WithAttribute(VendorPrefix+":include", "all")
	}
	return b
}

// QueryVendorPrefix returns the attribute prefix bound to the google:roster namespace in query,
// or an empty string if the namespace is not declared.
func QueryVendorPrefix(query stravaganza.Element) string {
	for _, attr := range query.AllAttributes() {
		if !strings.HasPrefix(attr.Label, "xmlns:") {
			continue
		}
		if attr.Value == VendorNamespace {
			return strings.TrimPrefix(attr.Label, "xmlns:")
		}
	}
	return ""
}
