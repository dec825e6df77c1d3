// This file is part of gnunet-go, a GNUnet-implementation in Golang.
// Copyright (C) 2019-2022 Bernd Fix  >Y<
//
// gnunet-go is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// gnunet-go is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later

package addrbook

import "gnunet/transport"

// State is one of the peer lifecycle states driven by Book's transition
// methods via reduce().
type State int

const (
	New State = iota
	Connecting
	Connected
	Tried
	Failed
	Banned
)

// String renders a state for logging.
func (s State) String() string {
	switch s {
	case New:
		return "new"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Tried:
		return "tried"
	case Failed:
		return "failed"
	case Banned:
		return "banned"
	default:
		return "unknown"
	}
}

// EventKind tags the reducer input. The source this design is modeled on
// dispatches by comparing the caller's own method reference; we use an
// explicit tagged variant instead so the reducer switch is exhaustive and
// checkable (see DESIGN.md).
type EventKind int

const (
	EvConnecting EventKind = iota
	EvConnected
	EvDisconnected
	EvFailure
	EvUnroutable
	EvBan
)

// TransitionEvent is the reducer's single input type. Channel is set for
// Connected/Disconnected/Unroutable; Duration is set for Ban.
type TransitionEvent struct {
	Kind     EventKind
	Channel  transport.Channel
	Duration int64 // ms, Ban only; 0 means "use DefaultBanTime"
}

// reduce computes the next state for a (state, event) pair. A false
// return means the transition is illegal: "no change, no observable
// effect" per spec §4.2 (the Book turns this into a no-op).
func reduce(from State, ev EventKind) (to State, ok bool) {
	switch from {
	case New:
		switch ev {
		case EvConnecting:
			return Connecting, true
		case EvConnected:
			return Connected, true
		case EvFailure:
			return Failed, true
		case EvUnroutable:
			return New, true
		case EvBan:
			return Banned, true
		default:
			return from, false
		}
	case Connecting:
		switch ev {
		case EvConnecting:
			return Connecting, true
		case EvConnected:
			return Connected, true
		case EvDisconnected:
			return Tried, true
		case EvFailure:
			return Failed, true
		case EvUnroutable:
			return Connecting, true
		case EvBan:
			return Banned, true
		}
	case Connected:
		switch ev {
		case EvConnected:
			return Connected, true
		case EvDisconnected:
			return Tried, true
		case EvFailure:
			return Failed, true
		case EvUnroutable:
			return Connected, true
		case EvBan:
			return Banned, true
		default:
			return from, false
		}
	case Tried:
		switch ev {
		case EvConnecting:
			return Connecting, true
		case EvConnected:
			return Connected, true
		case EvDisconnected:
			return Tried, true
		case EvFailure:
			return Failed, true
		case EvUnroutable:
			return Tried, true
		case EvBan:
			return Banned, true
		}
	case Failed:
		switch ev {
		case EvConnecting:
			return Connecting, true
		case EvConnected:
			return Connected, true
		case EvDisconnected:
			return Failed, true
		case EvFailure:
			return Failed, true
		case EvUnroutable:
			return Failed, true
		case EvBan:
			return Banned, true
		}
	case Banned:
		switch ev {
		case EvBan:
			// refresh: stays Banned, Book updates banned_until
			return Banned, true
		default:
			return from, false
		}
	}
	return from, false
}

// PeerRecord is the per-peer state machine, counters, and timestamps
// owned exclusively by AddressStore/Book.
type PeerRecord struct {
	Address           PeerAddress
	State             State
	FailedAttempts    uint32
	MaxFailedAttempts uint32
	BannedUntil       *int64 // ms-epoch; nil unless State == Banned
	BanBackoff        int64  // ms
	LastConnected     *int64 // ms-epoch; nil unless ever Connected
	Routes            *RouteSet
}

// NewPeerRecord creates a fresh New record for the given address.
func NewPeerRecord(addr PeerAddress) *PeerRecord {
	r := &PeerRecord{
		Address:           addr,
		State:             New,
		MaxFailedAttempts: maxFailedAttempts(addr.Protocol),
		BanBackoff:        InitialFailedBackoff.Milliseconds(),
	}
	if addr.Protocol == RTC {
		r.Routes = NewRouteSet()
	}
	return r
}

// Clone returns a value-ish copy safe for a caller to inspect after the
// book has moved on (spec §5: callers receive data by value).
func (r *PeerRecord) Clone() *PeerRecord {
	cp := *r
	addr := *r.Address.Clone()
	cp.Address = addr
	if r.BannedUntil != nil {
		v := *r.BannedUntil
		cp.BannedUntil = &v
	}
	if r.LastConnected != nil {
		v := *r.LastConnected
		cp.LastConnected = &v
	}
	// Routes intentionally not deep-copied: callers never need to mutate
	// relay routes from outside the book.
	return &cp
}
