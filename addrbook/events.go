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

// AddedFunc is a subscriber callback for the book's one outward signal:
// a batch of newly-admitted or newly-unbanned addresses. Invoked
// synchronously, after the store mutation that produced the batch is
// already visible (spec §5 ordering guarantee). A subscriber must not
// re-enter add() with the same batch.
type AddedFunc func(addrs []*PeerAddress, book *Book)

// listener pairs a subscriber callback with the token used to remove it.
type listener struct {
	id int
	fn AddedFunc
}

// subscribers is a small synchronous observer registry, modeled on the
// teacher's core.Listener/EventFilter registry but narrowed to the one
// event kind this package emits.
type subscribers struct {
	next int
	list []listener
}

// subscribe registers fn and returns an unsubscribe function.
func (s *subscribers) subscribe(fn AddedFunc) (unsubscribe func()) {
	id := s.next
	s.next++
	s.list = append(s.list, listener{id: id, fn: fn})
	return func() {
		for i, l := range s.list {
			if l.id == id {
				s.list = append(s.list[:i], s.list[i+1:]...)
				return
			}
		}
	}
}

// fire invokes every subscriber with the batch, in registration order.
// A nil or empty batch is a no-op: we never emit a spurious empty event.
func (s *subscribers) fire(addrs []*PeerAddress, book *Book) {
	if len(addrs) == 0 {
		return
	}
	for _, l := range s.list {
		l.fn(addrs, book)
	}
}
