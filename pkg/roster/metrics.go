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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	pushTypeInitial = "initial"
	pushTypeUpdate  = "update"

	editOutcomeSent      = "sent"
	editOutcomeQueued    = "queued"
	editOutcomeUnchanged = "unchanged"
	editOutcomeSuccess   = "success"
	editOutcomeRejected  = "rejected"
	editOutcomeFailed    = "failed"

	flickerArmed    = "armed"
	flickerCanceled = "canceled"
	flickerDelayed  = "delayed"
	flickerExpired  = "expired"
)

var (
	rosterPushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jackal",
			Subsystem: "roster",
			Name:      "pushes_total",
			Help:      "The total number of processed roster pushes.",
		},
		[]string{"type"},
	)
	rosterPushItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jackal",
			Subsystem: "roster",
			Name:      "push_items_total",
			Help:      "The total number of roster push items.",
		},
		[]string{"valid"},
	)
	rosterEdits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jackal",
			Subsystem: "roster",
			Name:      "edits_total",
			Help:      "The total number of roster edit requests by outcome.",
		},
		[]string{"outcome"},
	)
	rosterEditDurationBucket = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jackal",
			Subsystem: "roster",
			Name:      "edit_duration_bucket",
			Help:      "Bucketed histogram of roster edit round-trip duration.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
		},
		[]string{"outcome"},
	)
	rosterFlickerGuard = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jackal",
			Subsystem: "roster",
			Name:      "flicker_guard_total",
			Help:      "The total number of subscription flicker guard transitions.",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(rosterPushes)
	prometheus.MustRegister(rosterPushItems)
	prometheus.MustRegister(rosterEdits)
	prometheus.MustRegister(rosterEditDurationBucket)
	prometheus.MustRegister(rosterFlickerGuard)
}

func reportPush(initial bool, valid, invalid int) {
	typ := pushTypeUpdate
	if initial {
		typ = pushTypeInitial
	}
	rosterPushes.WithLabelValues(typ).Inc()
	rosterPushItems.WithLabelValues("true").Add(float64(valid))
	rosterPushItems.WithLabelValues("false").Add(float64(invalid))
}

func reportEdit(outcome string) {
	rosterEdits.WithLabelValues(outcome).Inc()
}

func reportEditReply(outcome string, sentAt time.Time) {
	rosterEdits.WithLabelValues(outcome).Inc()
	rosterEditDurationBucket.WithLabelValues(outcome).Observe(time.Since(sentAt).Seconds())
}

func reportFlicker(action string) {
	rosterFlickerGuard.WithLabelValues(action).Inc()
}
