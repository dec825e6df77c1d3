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
	"time"

	"github.com/bfix/gospel/logger"
)

// Housekeeper runs the periodic sweep of spec §4.7 over a Book: age-out,
// ban-expiry reset, and Connected route-timestamp refresh. Its testable
// surface is Tick(now), decoupled from any wall-clock timer the way the
// teacher's zonemaster service separates its "do the work" step from its
// ticker-driven Run loop.
type Housekeeper struct {
	book *Book
}

// NewHousekeeper binds a Housekeeper to the Book it sweeps.
func NewHousekeeper(book *Book) *Housekeeper {
	return &Housekeeper{book: book}
}

// Tick runs one sweep as of now (ms-epoch) and returns the addresses that
// were unbanned/reset-to-New this sweep, emitted once as a single batched
// added event after the sweep completes (spec §5 ordering guarantee).
func (h *Housekeeper) Tick(now int64) []PeerAddress {
	var resurrected []PeerAddress
	for _, rec := range h.book.store.Values() {
		switch rec.State {
		case New, Tried, Failed:
			if !rec.Address.IsSeed() && rec.Address.ExceedsAge(now) {
				h.book.remove(rec.Address.IdentityKey)
				continue
			}
			if rec.State == Failed && rec.FailedAttempts >= rec.MaxFailedAttempts &&
				rec.BannedUntil != nil && *rec.BannedUntil > 0 && *rec.BannedUntil <= now {
				rec.BannedUntil = nil
				rec.FailedAttempts = 0
			}

		case Banned:
			if rec.BannedUntil != nil && *rec.BannedUntil <= now {
				wasFailureBan := rec.FailedAttempts >= rec.MaxFailedAttempts
				if wasFailureBan || rec.Address.IsSeed() {
					rec.State = New
					rec.BannedUntil = nil
					rec.FailedAttempts = 0
					resurrected = append(resurrected, rec.Address)
				} else {
					h.book.store.Remove(rec.Address.IdentityKey)
					if rec.Address.Protocol == RTC && rec.Address.PeerID != "" {
						h.book.store.RemovePeerID(rec.Address.PeerID)
					}
				}
			}

		case Connected:
			if rec.Routes != nil {
				if best := rec.Routes.Best(); best != nil {
					best.Timestamp = now
				}
			}

		case Connecting:
			// no-op: housekeeping does not touch in-flight dials (spec §9
			// open question — the dialer's own timeout governs this state).
		}
	}
	if len(resurrected) > 0 {
		ptrs := make([]*PeerAddress, len(resurrected))
		for i := range resurrected {
			ptrs[i] = &resurrected[i]
		}
		h.book.subs.fire(ptrs, h.book)
	}
	return resurrected
}

// Run drives Tick on a wall-clock ticker until ctx is cancelled, logging
// the way the teacher's zonemaster service logs its own periodic run
// loop. Production callers use this; tests call Tick directly.
func (h *Housekeeper) Run(ctx context.Context) {
	ticker := time.NewTicker(HousekeepingInterval)
	defer ticker.Stop()
	logger.Printf(logger.INFO, "[addrbook] housekeeper started (interval=%s)", HousekeepingInterval)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case t := <-ticker.C:
			n := h.Tick(t.UnixMilli())
			if len(n) > 0 {
				logger.Printf(logger.DBG, "[addrbook] housekeeping resurrected %d address(es)", len(n))
			}
		}
	}
	logger.Printf(logger.INFO, "[addrbook] housekeeper stopped")
}
