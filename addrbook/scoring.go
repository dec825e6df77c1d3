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

import "sort"

// Score ranks a single record's desirability to the dialer as a pure
// function of its recorded history: ever having connected is worth more
// than a clean New record; every recorded failure counts against a peer,
// scaled by how close it is to the ban threshold; RTC candidates are
// additionally penalized by relay distance, since a direct route is
// cheaper than a relayed one. Higher is better; this mirrors the
// bad-response counter a dialer layer keeps on protocol-level peers, only
// computed on demand instead of tracked incrementally.
func Score(rec *PeerRecord, now int64) int {
	score := 0
	switch rec.State {
	case Connected:
		score += 100
	case Tried:
		score += 10
	case New:
		score += 5
	case Connecting, Failed, Banned:
		return -1 << 30 // never a dialer candidate
	}
	if rec.LastConnected != nil {
		score += 20
	}
	remaining := int(rec.MaxFailedAttempts) - int(rec.FailedAttempts)
	score += remaining * 5

	if rec.Address.Protocol == RTC && rec.Routes != nil {
		if best := rec.Routes.Best(); best != nil {
			score -= int(best.Distance) * 10
		}
	}
	return score
}

// RankCandidates orders records by descending Score, highest first. It
// never mutates its input and is safe to call on a Book.Snapshot().
func RankCandidates(records []*PeerRecord, now int64) []*PeerRecord {
	ranked := make([]*PeerRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i], now) > Score(ranked[j], now)
	})
	return ranked
}
