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

// Package addrbook implements the peer address book: the in-memory
// registry a node uses to discover, rank, age, and gate connections to
// remote peers across heterogeneous transports.
package addrbook

import (
	"time"

	"gnunet/util"
)

// Protocol identifies the transport family of a PeerAddress. Values are
// single bits so a caller can OR them into query's protocol_mask.
type Protocol uint8

const (
	// WS is a direct websocket-style server peer.
	WS Protocol = 1 << iota
	// RTC is a browser-relayed WebRTC peer, reachable only through one
	// or more signal channels.
	RTC
	// DUMB is a dumb outbound-only client with no listening address.
	DUMB
)

// String returns a human-readable protocol name.
func (p Protocol) String() string {
	switch p {
	case WS:
		return "ws"
	case RTC:
		return "rtc"
	case DUMB:
		return "dumb"
	default:
		return "unknown"
	}
}

// Services is a bitset of services a peer advertises.
type Services uint32

// Tuning constants (spec §6). Kept as variables, not untyped consts, so a
// production build can override them without touching call sites.
var (
	MaxAgeWS  = 30 * time.Minute
	MaxAgeRTC = 10 * time.Minute
	MaxAgeDumb = 1 * time.Minute

	MaxDistance        uint8 = 4
	MaxTimestampDrift        = 10 * time.Minute

	MaxFailedAttemptsWS  uint32 = 3
	MaxFailedAttemptsRTC uint32 = 2

	HousekeepingInterval = time.Minute
	DefaultBanTime        = 10 * time.Minute
	InitialFailedBackoff  = 15 * time.Second
	MaxFailedBackoff      = 10 * time.Minute
)

// maxAge returns the staleness threshold for a protocol.
func maxAge(p Protocol) time.Duration {
	switch p {
	case WS:
		return MaxAgeWS
	case RTC:
		return MaxAgeRTC
	default:
		return MaxAgeDumb
	}
}

// maxFailedAttempts returns the ban threshold for a protocol.
func maxFailedAttempts(p Protocol) uint32 {
	if p == RTC {
		return MaxFailedAttemptsRTC
	}
	return MaxFailedAttemptsWS
}

// PeerAddress is the value type exchanged with the network layer: a
// candidate location for a peer, as learned from gossip, a seed list, or
// a live connection.
type PeerAddress struct {
	Protocol    Protocol
	IdentityKey string        // equality key; see Equals
	Services    Services      // advertised service bitset
	Timestamp   int64         // ms-epoch
	NetAddress  *util.Address // opt: concrete dial target, nil if unknown
	Distance    uint8         // relay hop count (RTC only)
	PeerID      string        // opt: relay-graph peer id (RTC only)
}

// Equals reports whether two addresses refer to the same peer. Per spec,
// identity is solely a function of the identity key.
func (a *PeerAddress) Equals(b *PeerAddress) bool {
	return a.IdentityKey == b.IdentityKey
}

// IsSeed reports whether the address is a built-in bootstrap entry.
func (a *PeerAddress) IsSeed() bool {
	return a.Timestamp == 0
}

// ExceedsAge reports whether the address is stale as of now (ms-epoch).
func (a *PeerAddress) ExceedsAge(now int64) bool {
	return now-a.Timestamp > maxAge(a.Protocol).Milliseconds()
}

// Clone returns a value copy of the address, safe to hand to callers that
// must not observe further mutation of the stored record (spec §5: clone
// on read).
func (a *PeerAddress) Clone() *PeerAddress {
	cp := *a
	return &cp
}
