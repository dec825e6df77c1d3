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

func TestSubscribersFireOrderAndBatch(t *testing.T) {
	var s subscribers
	var calls []string

	s.subscribe(func(addrs []*PeerAddress, _ *Book) { calls = append(calls, "first") })
	s.subscribe(func(addrs []*PeerAddress, _ *Book) { calls = append(calls, "second") })

	batch := []*PeerAddress{{IdentityKey: "A"}}
	s.fire(batch, nil)

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("expected registration-order delivery, got %v", calls)
	}
}

func TestSubscribersFireEmptyBatchIsNoop(t *testing.T) {
	var s subscribers
	fired := false
	s.subscribe(func(addrs []*PeerAddress, _ *Book) { fired = true })

	s.fire(nil, nil)
	s.fire([]*PeerAddress{}, nil)

	if fired {
		t.Fatal("an empty or nil batch must never invoke subscribers")
	}
}

func TestSubscribersUnsubscribe(t *testing.T) {
	var s subscribers
	var calls []string

	unsubFirst := s.subscribe(func(addrs []*PeerAddress, _ *Book) { calls = append(calls, "first") })
	s.subscribe(func(addrs []*PeerAddress, _ *Book) { calls = append(calls, "second") })

	unsubFirst()

	batch := []*PeerAddress{{IdentityKey: "A"}}
	s.fire(batch, nil)

	if len(calls) != 1 || calls[0] != "second" {
		t.Fatalf("expected only the remaining subscriber to fire, got %v", calls)
	}

	if len(s.list) != 1 {
		t.Fatalf("expected exactly one listener left registered, got %d", len(s.list))
	}
}
