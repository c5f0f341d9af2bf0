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

package hook

import (
	"github.com/jackal-xmpp/rostersync/pkg/handle"
)

const (
	// RosterListMembersChanged hook runs when the membership of a contact list changes.
	RosterListMembersChanged = "roster.list.members_changed"

	// RosterGroupMembersChanged hook runs when the membership of a roster group changes.
	RosterGroupMembersChanged = "roster.group.members_changed"

	// RosterGroupsCreated hook runs when previously unknown groups are referenced by the roster.
	RosterGroupsCreated = "roster.groups.created"

	// RosterNicknameChanged hook runs when the roster name of a contact changes.
	RosterNicknameChanged = "roster.contact.nickname_changed"

	// RosterPresenceUnknown hook runs once the initial roster is received,
	// listing subscribed contacts whose presence has not been seen yet.
	RosterPresenceUnknown = "roster.presence.unknown"

	// RosterReceived hook runs once the initial roster has been processed.
	RosterReceived = "roster.received"
)

// ChangeReason qualifies a membership change.
type ChangeReason int

const (
	// ReasonNone is used when no particular reason applies.
	ReasonNone ChangeReason = iota

	// ReasonRemoteRequest is used when a contact originated the change.
	ReasonRemoteRequest

	// ReasonLocalRequest is used when the change was initiated locally.
	ReasonLocalRequest
)

// RosterMembersInfo contains all information associated to a membership delta.
type RosterMembersInfo struct {
	// List is the name of the contact list. Empty for group deltas.
	List string

	// Group is the group handle. Zero for list deltas.
	Group handle.Handle

	// GroupName is the normalized group name.
	GroupName string

	// Added contains the contacts that became members.
	Added []handle.Handle

	// Removed contains the contacts that stopped being members or pending.
	Removed []handle.Handle

	// LocalPending contains the contacts awaiting a local decision.
	LocalPending []handle.Handle

	// RemotePending contains the contacts awaiting a remote decision.
	RemotePending []handle.Handle

	// Actor is the handle that caused the change, if known.
	Actor handle.Handle

	// Reason qualifies the change.
	Reason ChangeReason

	// Message is an optional human readable message.
	Message string
}

// IsEmpty tells whether the info carries no membership change.
func (inf *RosterMembersInfo) IsEmpty() bool {
	return len(inf.Added) == 0 && len(inf.Removed) == 0 && len(inf.LocalPending) == 0 && len(inf.RemotePending) == 0
}

// RosterGroupsInfo contains all information associated to a groups created event.
type RosterGroupsInfo struct {
	Groups []handle.Handle
	Names  []string
}

// RosterContactInfo contains all information associated to a contact event.
type RosterContactInfo struct {
	Contact handle.Handle
	Name    string
}

// RosterContactsInfo contains a set of contacts associated to a roster event.
type RosterContactsInfo struct {
	Contacts []handle.Handle
}
