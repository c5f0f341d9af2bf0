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
	"fmt"

	"github.com/jackal-xmpp/rostersync/pkg/handle"
)

// Subscription represents a roster item subscription value.
type Subscription string

// roster item subscription values
const (
	None   = Subscription("none")
	From   = Subscription("from")
	To     = Subscription("to")
	Both   = Subscription("both")
	Remove = Subscription("remove")
)

// ParseSubscription returns the subscription value represented by s.
// An empty string maps to None.
func ParseSubscription(s string) (Subscription, error) {
	switch sub := Subscription(s); sub {
	case "":
		return None, nil
	case None, From, To, Both, Remove:
		return sub, nil
	default:
		return "", fmt.Errorf("rostermodel: unrecognized subscription value: %s", s)
	}
}

// SendsPresence tells whether the contact receives our presence.
func (s Subscription) SendsPresence() bool { return s == From || s == Both }

// ReceivesPresence tells whether we receive the contact presence.
func (s Subscription) ReceivesPresence() bool { return s == To || s == Both }

// VendorType represents the google:roster item type extension.
type VendorType int

const (
	// Normal is the default vendor type.
	Normal VendorType = iota

	// Blocked marks a contact whose messages and presence are discarded by the server.
	Blocked

	// Hidden marks an entry the server keeps but clients should not show.
	Hidden

	// Pinned marks a top contact.
	Pinned
)

// ParseVendorType returns the vendor type associated to a wire tag.
// Unknown tags map to Normal.
func ParseVendorType(tag string) VendorType {
	switch tag {
	case "B":
		return Blocked
	case "H":
		return Hidden
	case "P":
		return Pinned
	default:
		return Normal
	}
}

// Tag returns the wire representation of v. Normal has no tag.
func (v VendorType) Tag() string {
	switch v {
	case Blocked:
		return "B"
	case Hidden:
		return "H"
	case Pinned:
		return "P"
	default:
		return ""
	}
}

// String satisfies fmt.Stringer interface.
func (v VendorType) String() string {
	switch v {
	case Blocked:
		return "blocked"
	case Hidden:
		return "hidden"
	case Pinned:
		return "pinned"
	default:
		return "normal"
	}
}

// SubscriptionState represents a derived publish or subscribe state.
type SubscriptionState int

const (
	// No means the contact is not a member of the list.
	No SubscriptionState = iota

	// Ask means the contact is pending.
	Ask

	// Yes means the contact is a member of the list.
	Yes
)

// String satisfies fmt.Stringer interface.
func (s SubscriptionState) String() string {
	switch s {
	case Ask:
		return "ask"
	case Yes:
		return "yes"
	default:
		return "no"
	}
}

// List identifies one of the contact lists derived from roster state.
type List string

// contact lists
const (
	Publish   = List("publish")
	Subscribe = List("subscribe")
	Stored    = List("stored")
	Deny      = List("deny")
)

// Lists contains all derived lists in emission order.
var Lists = []List{Publish, Subscribe, Stored, Deny}

// Item is a read-only snapshot of a roster entry.
type Item struct {
	Contact      handle.Handle
	JID          string
	Subscription Subscription
	Ask          bool
	VendorType   VendorType
	Name         string
	Groups       []string
	Publish      SubscriptionState
	Subscribe    SubscriptionState
	Stored       bool
	Blocked      bool
	EditPending  bool
}
