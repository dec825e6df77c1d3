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

import "testing"

// reduceCase mirrors one cell of the transition table: state x event ->
// (next state, legal).
type reduceCase struct {
	from State
	ev   EventKind
	to   State
	ok   bool
}

func TestReduceTable(t *testing.T) {
	cases := []reduceCase{
		// New
		{New, EvConnecting, Connecting, true},
		{New, EvConnected, Connected, true},
		{New, EvDisconnected, New, false},
		{New, EvFailure, Failed, true},
		{New, EvUnroutable, New, true},
		{New, EvBan, Banned, true},

		// Connecting
		{Connecting, EvConnecting, Connecting, true},
		{Connecting, EvConnected, Connected, true},
		{Connecting, EvDisconnected, Tried, true},
		{Connecting, EvFailure, Failed, true},
		{Connecting, EvUnroutable, Connecting, true},
		{Connecting, EvBan, Banned, true},

		// Connected
		{Connected, EvConnecting, Connected, false},
		{Connected, EvConnected, Connected, true},
		{Connected, EvDisconnected, Tried, true},
		{Connected, EvFailure, Failed, true},
		{Connected, EvUnroutable, Connected, true},
		{Connected, EvBan, Banned, true},

		// Tried
		{Tried, EvConnecting, Connecting, true},
		{Tried, EvConnected, Connected, true},
		{Tried, EvDisconnected, Tried, true},
		{Tried, EvFailure, Failed, true},
		{Tried, EvUnroutable, Tried, true},
		{Tried, EvBan, Banned, true},

		// Failed
		{Failed, EvConnecting, Connecting, true},
		{Failed, EvConnected, Connected, true},
		{Failed, EvDisconnected, Failed, true},
		{Failed, EvFailure, Failed, true},
		{Failed, EvUnroutable, Failed, true},
		{Failed, EvBan, Banned, true},

		// Banned
		{Banned, EvConnecting, Banned, false},
		{Banned, EvConnected, Banned, false},
		{Banned, EvDisconnected, Banned, false},
		{Banned, EvFailure, Banned, false},
		{Banned, EvUnroutable, Banned, false},
		{Banned, EvBan, Banned, true},
	}

	for _, c := range cases {
		to, ok := reduce(c.from, c.ev)
		if ok != c.ok {
			t.Fatalf("reduce(%s, %d): ok = %v, want %v", c.from, c.ev, ok, c.ok)
		}
		if ok && to != c.to {
			t.Fatalf("reduce(%s, %d): to = %s, want %s", c.from, c.ev, to, c.to)
		}
	}
}

func TestNewPeerRecordDefaults(t *testing.T) {
	ws := PeerAddress{Protocol: WS, IdentityKey: "a", Timestamp: 1}
	rec := NewPeerRecord(ws)
	if rec.State != New {
		t.Fatalf("expected New state, got %s", rec.State)
	}
	if rec.MaxFailedAttempts != MaxFailedAttemptsWS {
		t.Fatalf("expected WS failure threshold, got %d", rec.MaxFailedAttempts)
	}
	if rec.Routes != nil {
		t.Fatal("WS record must not carry a route set")
	}

	rtc := PeerAddress{Protocol: RTC, IdentityKey: "b", Timestamp: 1}
	rec2 := NewPeerRecord(rtc)
	if rec2.MaxFailedAttempts != MaxFailedAttemptsRTC {
		t.Fatalf("expected RTC failure threshold, got %d", rec2.MaxFailedAttempts)
	}
	if rec2.Routes == nil {
		t.Fatal("RTC record must carry a route set")
	}
}

func TestPeerRecordCloneIndependence(t *testing.T) {
	until := int64(1000)
	last := int64(500)
	rec := &PeerRecord{
		Address:     PeerAddress{IdentityKey: "x"},
		BannedUntil: &until,
		LastConnected: &last,
	}
	cp := rec.Clone()
	*cp.BannedUntil = 9999
	*cp.LastConnected = 9999
	cp.Address.IdentityKey = "y"

	if *rec.BannedUntil != 1000 {
		t.Fatal("clone must not share the BannedUntil pointer")
	}
	if *rec.LastConnected != 500 {
		t.Fatal("clone must not share the LastConnected pointer")
	}
	if rec.Address.IdentityKey != "x" {
		t.Fatal("clone must not alias the original address")
	}
}
