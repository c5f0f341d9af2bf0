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
	"time"

	"github.com/jackal-xmpp/rostersync/pkg/handle"
	rostermodel "github.com/jackal-xmpp/rostersync/pkg/model/roster"
	"github.com/jackal-xmpp/stravaganza/v2"
	stanzaerror "github.com/jackal-xmpp/stravaganza/v2/errors/stanza"
)

const commandNamespace = "urn:rostersync:replay"

type command func(r *Replayer, ctx context.Context, cmd stravaganza.Element) error

var commands = map[string]command{
	"request":      (*Replayer).cmdRequest,
	"await":        (*Replayer).cmdAwait,
	"ensure":       (*Replayer).cmdEnsure,
	"remove":       (*Replayer).cmdRemove,
	"block":        (*Replayer).cmdBlock,
	"unblock":      (*Replayer).cmdUnblock,
	"name":         (*Replayer).cmdName,
	"add-group":    (*Replayer).cmdAddGroup,
	"remove-group": (*Replayer).cmdRemoveGroup,
	"set-groups":   (*Replayer).cmdSetGroups,
	"subscribe":    (*Replayer).cmdSubscribe,
	"unsubscribe":  (*Replayer).cmdUnsubscribe,
	"authorize":    (*Replayer).cmdAuthorize,
	"unauthorize":  (*Replayer).cmdUnauthorize,
	"reject-next":  (*Replayer).cmdRejectNext,
	"sleep":        (*Replayer).cmdSleep,
	"dump":         (*Replayer).cmdDump,
	"members":      (*Replayer).cmdMembers,
	"disconnect":   (*Replayer).cmdDisconnect,
}

// runCommand executes a transcript command. Engine failures are reported in the output,
// malformed commands abort the replay.
func (r *Replayer) runCommand(ctx context.Context, cmd stravaganza.Element) error {
	op := cmd.Attribute("op")
	fn, ok := commands[op]
	if !ok {
		return fmt.Errorf("replay: unknown command %q", op)
	}
	r.p.printf("## %s", describeCommand(cmd))

	if err := fn(r, ctx, cmd); err != nil {
		r.p.printf("!! %s: %v", op, err)
	}
	return nil
}

func describeCommand(cmd stravaganza.Element) string {
	var sb strings.Builder
	sb.WriteString(cmd.Attribute("op"))
	for _, attr := range cmd.AllAttributes() {
		if attr.Label == "op" || attr.Label == stravaganza.Namespace {
			continue
		}
		sb.WriteString(fmt.Sprintf(" %s=%q", attr.Label, attr.Value))
	}
	return sb.String()
}

func (r *Replayer) contact(cmd stravaganza.Element) (handle.Handle, error) {
	return r.contacts.Ensure(cmd.Attribute("jid"))
}

func (r *Replayer) cmdRequest(ctx context.Context, _ stravaganza.Element) error {
	return r.eng.RequestRoster(ctx)
}

func (r *Replayer) cmdAwait(ctx context.Context, cmd stravaganza.Element) error {
	timeout, err := durationAttribute(cmd, "timeout", time.Second)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.eng.AwaitRoster(ctx)
}

func (r *Replayer) cmdEnsure(ctx context.Context, cmd stravaganza.Element) error {
	contact, err := r.contact(cmd)
	if err != nil {
		return err
	}
	return r.eng.EnsureContact(ctx, contact)
}

func (r *Replayer) cmdRemove(ctx context.Context, cmd stravaganza.Element) error {
	contact, err := r.contact(cmd)
	if err != nil {
		return err
	}
	return r.eng.RemoveContact(ctx, contact)
}

func (r *Replayer) cmdBlock(ctx context.Context, cmd stravaganza.Element) error {
	return r.setBlocked(ctx, cmd, true)
}

func (r *Replayer) cmdUnblock(ctx context.Context, cmd stravaganza.Element) error {
	return r.setBlocked(ctx, cmd, false)
}

func (r *Replayer) setBlocked(ctx context.Context, cmd stravaganza.Element, blocked bool) error {
	contact, err := r.contact(cmd)
	if err != nil {
		return err
	}
	return r.eng.SetBlocked(ctx, contact, blocked)
}

func (r *Replayer) cmdName(ctx context.Context, cmd stravaganza.Element) error {
	contact, err := r.contact(cmd)
	if err != nil {
		return err
	}
	return r.eng.SetName(ctx, contact, cmd.Attribute("name"))
}

func (r *Replayer) cmdAddGroup(ctx context.Context, cmd stravaganza.Element) error {
	contact, err := r.contact(cmd)
	if err != nil {
		return err
	}
	g, err := r.groups.Ensure(cmd.Attribute("group"))
	if err != nil {
		return err
	}
	return r.eng.AddToGroup(ctx, contact, g)
}

func (r *Replayer) cmdRemoveGroup(ctx context.Context, cmd stravaganza.Element) error {
	contact, err := r.contact(cmd)
	if err != nil {
		return err
	}
	g, _ := r.groups.Lookup(cmd.Attribute("group"))
	return r.eng.RemoveFromGroup(ctx, contact, g)
}

func (r *Replayer) cmdSetGroups(ctx context.Context, cmd stravaganza.Element) error {
	contact, err := r.contact(cmd)
	if err != nil {
		return err
	}
	var groups []handle.Handle
	for _, name := range strings.Split(cmd.Attribute("groups"), ",") {
		if len(strings.TrimSpace(name)) == 0 {
			continue
		}
		g, err := r.groups.Ensure(name)
		if err != nil {
			return err
		}
		groups = append(groups, g)
	}
	return r.eng.SetGroups(ctx, contact, groups)
}

func (r *Replayer) cmdSubscribe(ctx context.Context, cmd stravaganza.Element) error {
	contact, err := r.contact(cmd)
	if err != nil {
		return err
	}
	return r.eng.Subscribe(ctx, contact, cmd.Attribute("message"))
}

func (r *Replayer) cmdUnsubscribe(ctx context.Context, cmd stravaganza.Element) error {
	contact, err := r.contact(cmd)
	if err != nil {
		return err
	}
	return r.eng.Unsubscribe(ctx, contact, cmd.Attribute("message"))
}

func (r *Replayer) cmdAuthorize(ctx context.Context, cmd stravaganza.Element) error {
	contact, err := r.contact(cmd)
	if err != nil {
		return err
	}
	return r.eng.Authorize(ctx, contact, cmd.Attribute("message"))
}

func (r *Replayer) cmdUnauthorize(ctx context.Context, cmd stravaganza.Element) error {
	contact, err := r.contact(cmd)
	if err != nil {
		return err
	}
	return r.eng.Unauthorize(ctx, contact, cmd.Attribute("message"))
}

func (r *Replayer) cmdRejectNext(_ context.Context, cmd stravaganza.Element) error {
	reason := stanzaerror.Reason(cmd.Attribute("reason"))
	if len(reason) == 0 {
		reason = stanzaerror.NotAllowed
	}
	r.loop.rejectNext(reason)
	return nil
}

func (r *Replayer) cmdSleep(ctx context.Context, cmd stravaganza.Element) error {
	d, err := durationAttribute(cmd, "duration", 0)
	if err != nil {
		return err
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Replayer) cmdDump(ctx context.Context, _ stravaganza.Element) error {
	items, err := r.eng.Items(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		r.p.printf("== %s subscription=%s ask=%t type=%s name=%q groups=[%s] publish=%s subscribe=%s stored=%t blocked=%t",
			it.JID, it.Subscription, it.Ask, it.VendorType, it.Name, strings.Join(it.Groups, ","),
			it.Publish, it.Subscribe, it.Stored, it.Blocked,
		)
	}
	return nil
}

func (r *Replayer) cmdMembers(ctx context.Context, cmd stravaganza.Element) error {
	if name := cmd.Attribute("group"); len(name) > 0 {
		g, _ := r.groups.Lookup(name)
		members, err := r.eng.GroupMembers(ctx, g)
		if err != nil {
			return err
		}
		r.p.printf("== group=%q members=[%s]", name, r.joinContacts(members))
		return nil
	}
	l := rostermodel.List(cmd.Attribute("list"))
	members, localPending, remotePending, err := r.eng.Members(ctx, l)
	if err != nil {
		return err
	}
	r.p.printf("== list=%s members=[%s] local_pending=[%s] remote_pending=[%s]", l,
		r.joinContacts(members), r.joinContacts(localPending), r.joinContacts(remotePending),
	)
	return nil
}

func (r *Replayer) cmdDisconnect(ctx context.Context, _ stravaganza.Element) error {
	return r.eng.Disconnect(ctx)
}

func (r *Replayer) joinContacts(hs []handle.Handle) string {
	names := make([]string, 0, len(hs))
	for _, h := range hs {
		names = append(names, r.contacts.Inspect(h))
	}
	return strings.Join(names, ",")
}

func durationAttribute(cmd stravaganza.Element, label string, def time.Duration) (time.Duration, error) {
	v := cmd.Attribute(label)
	if len(v) == 0 {
		return def, nil
	}
	return time.ParseDuration(v)
}
