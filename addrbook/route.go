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

// Route describes one relay path to an RTC peer: the signal channel it
// was learned over, the hop distance, and when it was last confirmed.
type Route struct {
	Channel   transport.Channel
	Distance  uint8
	Timestamp int64 // ms-epoch
}

// RouteSet is the per-record collection of relay routes for an RTC peer,
// keyed by signal channel identity, with a cached best route.
//
// Invariant: best == nil iff routes is empty.
type RouteSet struct {
	routes map[transport.Channel]*Route
	best   *Route
}

// NewRouteSet returns an empty route set.
func NewRouteSet() *RouteSet {
	return &RouteSet{
		routes: make(map[transport.Channel]*Route),
	}
}

// HasRoute reports whether any route remains in the set.
func (rs *RouteSet) HasRoute() bool {
	return rs.best != nil
}

// Best returns the current best route, or nil if the set is empty.
func (rs *RouteSet) Best() *Route {
	return rs.best
}

// AddRoute upserts a route by channel identity and re-evaluates the best
// route. Distances beyond MaxDistance must never be admitted by the
// caller; AddRoute itself enforces the cap as a last line of defense.
func (rs *RouteSet) AddRoute(ch transport.Channel, distance uint8, timestamp int64) {
	if distance > MaxDistance {
		return
	}
	rs.routes[ch] = &Route{Channel: ch, Distance: distance, Timestamp: timestamp}
	rs.reevaluate()
}

// DeleteRoute removes the route for the given channel, if any, and
// re-evaluates the best route. A no-op if the channel has no route.
func (rs *RouteSet) DeleteRoute(ch transport.Channel) {
	if _, ok := rs.routes[ch]; !ok {
		return
	}
	delete(rs.routes, ch)
	rs.reevaluate()
}

// DeleteBestRoute removes the current best route, if any.
func (rs *RouteSet) DeleteBestRoute() {
	if rs.best == nil {
		return
	}
	rs.DeleteRoute(rs.best.Channel)
}

// DeleteAll clears every route in the set.
func (rs *RouteSet) DeleteAll() {
	rs.routes = make(map[transport.Channel]*Route)
	rs.best = nil
}

// reevaluate recomputes the cached best route: smallest distance, ties
// broken by the larger (more recent) timestamp.
func (rs *RouteSet) reevaluate() {
	var best *Route
	for _, r := range rs.routes {
		if best == nil ||
			r.Distance < best.Distance ||
			(r.Distance == best.Distance && r.Timestamp > best.Timestamp) {
			best = r
		}
	}
	rs.best = best
}
