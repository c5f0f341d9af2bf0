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
	"strings"

	"github.com/jackal-xmpp/rostersync/pkg/handle"
	"github.com/jackal-xmpp/rostersync/pkg/hook"
)

var reasonNames = map[hook.ChangeReason]string{
	hook.ReasonNone:          "none",
	hook.ReasonRemoteRequest: "remote",
	hook.ReasonLocalRequest:  "local",
}

// eventPrinter prints every roster hook as a single transcript line.
type eventPrinter struct {
	p        *printer
	contacts *handle.Repository
	handlers map[string]hook.Handler
}

func (ep *eventPrinter) register(hk *hook.Hooks) {
	ep.handlers = map[string]hook.Handler{
		hook.RosterListMembersChanged:  ep.onMembersChanged,
		hook.RosterGroupMembersChanged: ep.onMembersChanged,
		hook.RosterGroupsCreated:       ep.onGroupsCreated,
		hook.RosterNicknameChanged:     ep.onNicknameChanged,
		hook.RosterPresenceUnknown:     ep.onContacts("presence_unknown"),
		hook.RosterReceived:            ep.onContacts("received"),
	}
	for name, hnd := range ep.handlers {
		hk.AddHook(name, hnd, hook.DefaultPriority)
	}
}

func (ep *eventPrinter) unregister(hk *hook.Hooks) {
	for name, hnd := range ep.handlers {
		hk.RemoveHook(name, hnd)
	}
}

func (ep *eventPrinter) onMembersChanged(_ context.Context, execCtx *hook.ExecutionContext) error {
	inf := execCtx.Info.(*hook.RosterMembersInfo)

	var sb strings.Builder
	if len(inf.List) > 0 {
		sb.WriteString("list=" + inf.List)
	} else {
		sb.WriteString(fmt.Sprintf("group=%q", inf.GroupName))
	}
	ep.writeSet(&sb, "added", inf.Added)
	ep.writeSet(&sb, "removed", inf.Removed)
	ep.writeSet(&sb, "local_pending", inf.LocalPending)
	ep.writeSet(&sb, "remote_pending", inf.RemotePending)
	if inf.Actor != handle.None {
		sb.WriteString(" actor=" + ep.contacts.Inspect(inf.Actor))
	}
	if inf.Reason != hook.ReasonNone {
		sb.WriteString(" reason=" + reasonNames[inf.Reason])
	}
	if len(inf.Message) > 0 {
		sb.WriteString(fmt.Sprintf(" message=%q", inf.Message))
	}
	ep.p.printf("** members_changed %s", sb.String())
	return nil
}

func (ep *eventPrinter) onGroupsCreated(_ context.Context, execCtx *hook.ExecutionContext) error {
	inf := execCtx.Info.(*hook.RosterGroupsInfo)
	ep.p.printf("** groups_created %s", strings.Join(quoteAll(inf.Names), ","))
	return nil
}

func (ep *eventPrinter) onNicknameChanged(_ context.Context, execCtx *hook.ExecutionContext) error {
	inf := execCtx.Info.(*hook.RosterContactInfo)
	ep.p.printf("** nickname_changed %s name=%q", ep.contacts.Inspect(inf.Contact), inf.Name)
	return nil
}

func (ep *eventPrinter) onContacts(event string) hook.Handler {
	return func(_ context.Context, execCtx *hook.ExecutionContext) error {
		inf := execCtx.Info.(*hook.RosterContactsInfo)
		ep.p.printf("** %s [%s]", event, strings.Join(ep.names(inf.Contacts), ","))
		return nil
	}
}

func (ep *eventPrinter) writeSet(sb *strings.Builder, label string, hs []handle.Handle) {
	if len(hs) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf(" %s=[%s]", label, strings.Join(ep.names(hs), ",")))
}

func (ep *eventPrinter) names(hs []handle.Handle) []string {
	names := make([]string, 0, len(hs))
	for _, h := range hs {
		names = append(names, ep.contacts.Inspect(h))
	}
	return names
}

func quoteAll(ss []string) []string {
	res := make([]string, len(ss))
	for i, s := range ss {
		res[i] = fmt.Sprintf("%q", s)
	}
	return res
}
