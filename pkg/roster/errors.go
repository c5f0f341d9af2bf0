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
	"errors"
	"fmt"

	xmpputil "github.com/jackal-xmpp/rostersync/pkg/util/xmpp"
	"github.com/jackal-xmpp/stravaganza/v2"
	stanzaerror "github.com/jackal-xmpp/stravaganza/v2/errors/stanza"
)

var (
	// ErrPermissionDenied is returned when the server refuses an edit for authorization reasons.
	ErrPermissionDenied = errors.New("roster: permission denied")

	// ErrInvalidArgument is returned when the server considers an edit not acceptable.
	ErrInvalidArgument = errors.New("roster: invalid argument")

	// ErrNetworkError is returned when an edit fails for any other reason.
	ErrNetworkError = errors.New("roster: network error")

	// ErrDisconnected is returned to every pending caller when the connection is torn down.
	ErrDisconnected = errors.New("roster: disconnected")

	// ErrNotAvailable is returned when an operation requires the google:roster extension.
	ErrNotAvailable = errors.New("roster: not available")

	// ErrClosed is returned by every operation invoked on a closed engine.
	ErrClosed = errors.New("roster: closed")

	// ErrUnknownContact is returned when a handle is not known by the contact registry.
	ErrUnknownContact = errors.New("roster: unknown contact")

	// ErrUnknownGroup is returned when a handle is not known by the group registry.
	ErrUnknownGroup = fmt.Errorf("%w: unknown group", ErrInvalidArgument)
)

// EditError represents a roster edit rejected by the server.
type EditError struct {
	// Reason is the stanza error defined condition.
	Reason stanzaerror.Reason

	// Text is the optional error description.
	Text string

	kind error
}

func newEditError(stanza stravaganza.Element) *EditError {
	reason, text, ok := xmpputil.ErrorReason(stanza)
	if !ok {
		return &EditError{kind: ErrNetworkError}
	}
	return &EditError{Reason: reason, Text: text, kind: errorKind(reason)}
}

// Error satisfies error interface.
func (e *EditError) Error() string {
	if len(e.Reason) == 0 {
		return fmt.Sprintf("%v: edit rejected", e.kind)
	}
	if len(e.Text) > 0 {
		return fmt.Sprintf("%v: edit rejected (%s): %s", e.kind, e.Reason, e.Text)
	}
	return fmt.Sprintf("%v: edit rejected (%s)", e.kind, e.Reason)
}

// Unwrap returns the error kind.
func (e *EditError) Unwrap() error { return e.kind }

func errorKind(reason stanzaerror.Reason) error {
	switch reason {
	case stanzaerror.Forbidden, stanzaerror.NotAllowed, stanzaerror.NotAuthorized,
		stanzaerror.RegistrationRequired, stanzaerror.SubscriptionRequired:
		return ErrPermissionDenied
	case stanzaerror.NotAcceptable, stanzaerror.BadRequest, stanzaerror.JIDMalformed,
		stanzaerror.ItemNotFound, stanzaerror.Conflict:
		return ErrInvalidArgument
	default:
		return ErrNetworkError
	}
}
