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

import (
	"context"
	"testing"
	"time"
)

func TestHousekeeperAgesOutStaleRecords(t *testing.T) {
	book, _ := newTestBook(nil)
	old := PeerAddress{Protocol: WS, IdentityKey: "A", Timestamp: 1}
	book.Add(newFakeChannel(), old)

	hk := NewHousekeeper(book)
	now := MaxAgeWS.Milliseconds() + 2
	hk.Tick(now)

	if book.store.Get("A") != nil {
		t.Fatal("expected a record past MAX_AGE to be removed on sweep")
	}
}

// TestHousekeeperFailedBanCooloff exercises the Failed-state banned_until
// clearing clause of the sweep directly: this state combination (Failed
// with banned_until set) is never produced by transition() itself, since
// failure escalation always flips the record fully to Banned, but the
// sweep implements the clause literally for fidelity.
func TestHousekeeperFailedBanCooloff(t *testing.T) {
	book, _ := newTestBook(nil)
	rec := NewPeerRecord(PeerAddress{Protocol: WS, IdentityKey: "A", Timestamp: 1})
	rec.State = Failed
	rec.FailedAttempts = rec.MaxFailedAttempts
	until := int64(500)
	rec.BannedUntil = &until
	book.store.Insert(rec)

	hk := NewHousekeeper(book)
	hk.Tick(500)

	if rec.BannedUntil != nil {
		t.Fatal("expected banned_until cleared once it has elapsed")
	}
	if rec.FailedAttempts != 0 {
		t.Fatal("expected failed_attempts reset alongside banned_until")
	}
	if rec.State != Failed {
		t.Fatal("this clause must not change state, only clear the cooloff")
	}
}

// TestHousekeeperSeedDoesNotFlap guards against a seed (timestamp always 0,
// so exceeds_age holds for the rest of its life once now passes MAX_AGE)
// getting rebanned and resurrected every single sweep once the clock runs
// past MAX_AGE: New must simply stay New, with no reban and no spurious
// added event.
func TestHousekeeperSeedDoesNotFlap(t *testing.T) {
	seed := PeerAddress{Protocol: WS, IdentityKey: "S"}
	book, _ := newTestBook([]PeerAddress{seed})

	var fired []*PeerAddress
	book.Subscribe(func(addrs []*PeerAddress, _ *Book) {
		fired = append(fired, addrs...)
	})

	hk := NewHousekeeper(book)
	now := MaxAgeWS.Milliseconds() + 1
	for i := 0; i < 3; i++ {
		hk.Tick(now)
		now += HousekeepingInterval.Milliseconds()
	}

	rec := book.store.Get("S")
	if rec == nil {
		t.Fatal("a seed must never be physically removed by aging")
	}
	if rec.State != New {
		t.Fatalf("expected the seed to stay New across repeated sweeps, got %s", rec.State)
	}
	if len(fired) != 0 {
		t.Fatalf("expected no added events from a seed that was never banned, got %+v", fired)
	}
}

func TestHousekeeperBanExpiryResetsFailureBan(t *testing.T) {
	book, _ := newTestBook(nil)
	a := PeerAddress{Protocol: WS, IdentityKey: "A", Timestamp: 1}
	book.Add(newFakeChannel(), a)
	book.Failure(a)
	book.Failure(a)
	book.Failure(a)

	rec := book.store.Get("A")
	if rec.State != Banned {
		t.Fatalf("expected Banned precondition, got %s", rec.State)
	}

	hk := NewHousekeeper(book)
	resurrected := hk.Tick(*rec.BannedUntil)

	if len(resurrected) != 1 || resurrected[0].IdentityKey != "A" {
		t.Fatalf("expected A resurrected, got %+v", resurrected)
	}
	if rec.State != New {
		t.Fatalf("expected reset to New, got %s", rec.State)
	}
	if rec.FailedAttempts != 0 {
		t.Fatal("expected failed_attempts reset on resurrection")
	}
}

func TestHousekeeperBanExpiryRemovesNonFailureBan(t *testing.T) {
	book, clock := newTestBook(nil)
	a := PeerAddress{Protocol: WS, IdentityKey: "A", Timestamp: 1}
	book.Add(newFakeChannel(), a)
	book.Ban(a, time.Second) // an operator-issued ban, not a failure escalation

	rec := book.store.Get("A")
	clock.now = *rec.BannedUntil

	hk := NewHousekeeper(book)
	resurrected := hk.Tick(clock.now)

	if len(resurrected) != 0 {
		t.Fatal("a non-failure, non-seed ban must not resurrect on expiry")
	}
	if book.store.Get("A") != nil {
		t.Fatal("a non-failure, non-seed ban must be removed outright on expiry")
	}
}

func TestHousekeeperConnectedRouteRefresh(t *testing.T) {
	book, _ := newTestBook(nil)
	ch := newFakeChannel()
	r := PeerAddress{Protocol: RTC, IdentityKey: "R", PeerID: "P"}
	book.Add(ch, r)
	book.Connected(ch, r)

	rec := book.store.Get("R")
	rec.Routes.Best().Timestamp = 0

	hk := NewHousekeeper(book)
	hk.Tick(12345)

	if rec.Routes.Best().Timestamp != 12345 {
		t.Fatalf("expected best route timestamp refreshed to 12345, got %d", rec.Routes.Best().Timestamp)
	}
}

func TestHousekeeperConnectingIsNoop(t *testing.T) {
	book, _ := newTestBook(nil)
	a := PeerAddress{Protocol: WS, IdentityKey: "A", Timestamp: 1}
	book.Add(newFakeChannel(), a)
	book.Connecting(a)

	rec := book.store.Get("A")
	hk := NewHousekeeper(book)
	hk.Tick(999999999)

	if rec.State != Connecting {
		t.Fatalf("expected Connecting state untouched by sweep, got %s", rec.State)
	}
}

func TestHousekeeperRunStopsOnCancel(t *testing.T) {
	book, _ := newTestBook(nil)
	hk := NewHousekeeper(book)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hk.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run must return promptly once its context is cancelled")
	}
}
