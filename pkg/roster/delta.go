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

package roster

import (
	"context"

	"github.com/go-kit/log/level"
	"github.com/jackal-xmpp/rostersync/pkg/handle"
	"github.com/jackal-xmpp/rostersync/pkg/hook"
	rostermodel "github.com/jackal-xmpp/rostersync/pkg/model/roster"
)

// itemState is the part of an item observed by membership deltas.
type itemState struct {
	lists  [4]rostermodel.SubscriptionState
	groups handle.Set
	name   string
}

type listAnnotation struct {
	actor   handle.Handle
	reason  hook.ChangeReason
	message string
}

// changeSet records the state of every item touched while processing a stanza,
// so that only net membership transitions are emitted once processing ends.
type changeSet struct {
	order         []*item
	before        map[handle.Handle]itemState
	annotations   map[rostermodel.List]listAnnotation
	createdGroups []handle.Handle
}

func newChangeSet() *changeSet {
	return &changeSet{
		before:      make(map[handle.Handle]itemState),
		annotations: make(map[rostermodel.List]listAnnotation),
	}
}

// touch records the current state of it. Only the first call per item is taken into account.
func (cs *changeSet) touch(it *item) {
	if _, ok := cs.before[it.contact]; ok {
		return
	}
	cs.before[it.contact] = stateOf(it)
	cs.order = append(cs.order, it)
}

func (cs *changeSet) annotate(l rostermodel.List, actor handle.Handle, reason hook.ChangeReason, message string) {
	cs.annotations[l] = listAnnotation{actor: actor, reason: reason, message: message}
}

func (cs *changeSet) groupCreated(g handle.Handle) {
	cs.createdGroups = append(cs.createdGroups, g)
}

func stateOf(it *item) itemState {
	var st itemState
	for i, l := range rostermodel.Lists {
		st.lists[i] = it.listState(l)
	}
	st.groups = it.groups.Clone()
	st.name = it.name
	return st
}

type groupDelta struct {
	added   handle.Set
	removed handle.Set
}

// emit runs the roster hooks for every net transition recorded in cs.
func (e *Engine) emit(ctx context.Context, cs *changeSet) {
	if len(cs.createdGroups) > 0 && e.hk.HasHandlers(hook.RosterGroupsCreated) {
		inf := &hook.RosterGroupsInfo{Groups: cs.createdGroups}
		for _, g := range cs.createdGroups {
			inf.Names = append(inf.Names, e.groups.Inspect(g))
		}
		e.runHook(ctx, hook.RosterGroupsCreated, inf)
	}
	if len(cs.order) == 0 {
		return
	}
	after := make(map[handle.Handle]itemState, len(cs.order))
	for _, it := range cs.order {
		after[it.contact] = stateOf(it)
	}

	if e.hk.HasHandlers(hook.RosterListMembersChanged) {
		e.emitListDeltas(ctx, cs, after)
	}
	if e.hk.HasHandlers(hook.RosterGroupMembersChanged) {
		e.emitGroupDeltas(ctx, cs, after)
	}
	if e.hk.HasHandlers(hook.RosterNicknameChanged) {
		e.emitNicknames(ctx, cs, after)
	}
}

func (e *Engine) emitListDeltas(ctx context.Context, cs *changeSet, after map[handle.Handle]itemState) {
	for i, l := range rostermodel.Lists {
		added, removed := handle.NewSet(), handle.NewSet()
		localPending, remotePending := handle.NewSet(), handle.NewSet()
		for _, it := range cs.order {
			prev, curr := cs.before[it.contact].lists[i], after[it.contact].lists[i]
			if prev == curr {
				continue
			}
			switch curr {
			case rostermodel.Yes:
				added.Add(it.contact)
			case rostermodel.No:
				removed.Add(it.contact)
			case rostermodel.Ask:
				if l == rostermodel.Publish {
					localPending.Add(it.contact)
				} else {
					remotePending.Add(it.contact)
				}
			}
		}
		inf := &hook.RosterMembersInfo{
			List:          string(l),
			Added:         added.Slice(),
			Removed:       removed.Slice(),
			LocalPending:  localPending.Slice(),
			RemotePending: remotePending.Slice(),
		}
		if inf.IsEmpty() {
			continue
		}
		if l == rostermodel.Deny {
			inf.Actor = e.selfHandle
		}
		if an, ok := cs.annotations[l]; ok {
			inf.Actor, inf.Reason, inf.Message = an.actor, an.reason, an.message
		}
		e.runHook(ctx, hook.RosterListMembersChanged, inf)
	}
}

func (e *Engine) emitGroupDeltas(ctx context.Context, cs *changeSet, after map[handle.Handle]itemState) {
	deltas := make(map[handle.Handle]*groupDelta)
	delta := func(g handle.Handle) *groupDelta {
		d := deltas[g]
		if d == nil {
			d = &groupDelta{added: handle.NewSet(), removed: handle.NewSet()}
			deltas[g] = d
		}
		return d
	}
	for _, it := range cs.order {
		prev, curr := cs.before[it.contact].groups, after[it.contact].groups
		for g := range curr.Difference(prev) {
			delta(g).added.Add(it.contact)
		}
		for g := range prev.Difference(curr) {
			delta(g).removed.Add(it.contact)
		}
	}
	touched := make(handle.Set, len(deltas))
	for g := range deltas {
		touched.Add(g)
	}
	for _, g := range touched.Slice() {
		d := deltas[g]
		e.runHook(ctx, hook.RosterGroupMembersChanged, &hook.RosterMembersInfo{
			Group:     g,
			GroupName: e.groups.Inspect(g),
			Added:     d.added.Slice(),
			Removed:   d.removed.Slice(),
		})
	}
}

func (e *Engine) emitNicknames(ctx context.Context, cs *changeSet, after map[handle.Handle]itemState) {
	for _, it := range cs.order {
		if cs.before[it.contact].name == after[it.contact].name {
			continue
		}
		e.runHook(ctx, hook.RosterNicknameChanged, &hook.RosterContactInfo{
			Contact: it.contact,
			Name:    it.name,
		})
	}
}

func (e *Engine) runHook(ctx context.Context, hookName string, inf interface{}) {
	_, err := e.hk.Run(ctx, hookName, &hook.ExecutionContext{
		Info:   inf,
		Sender: e,
	})
	if err != nil {
		level.Warn(e.logger).Log("msg", "failed to run roster hook", "hook", hookName, "err", err)
	}
}
