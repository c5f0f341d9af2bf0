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

	"github.com/jackal-xmpp/rostersync/pkg/handle"
	"github.com/jackal-xmpp/stravaganza/v2"
)

//go:generate moq -out sender.mock_test.go . stanzaSender:senderMock
type stanzaSender interface {
	SendElement(ctx context.Context, elem stravaganza.Element) error
}

//go:generate moq -out presence_cache.mock_test.go . presenceCache:presenceCacheMock
type presenceCache interface {
	HasPresence(contact handle.Handle) bool
}

type handleRegistry interface {
	Ensure(id string) (handle.Handle, error)
	Inspect(h handle.Handle) string
	IsValid(h handle.Handle) bool
}
