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
	"time"

	"gnunet/transport"

	"github.com/bfix/gospel/logger"
)

// PlatformUtils reports host connectivity. Disconnected events only act
// on a "closed by remote" observation while the host itself believes it
// is online; see the disconnected post-effect in spec §4.5.
type PlatformUtils interface {
	IsOnline() bool
}

// alwaysOnline is the default PlatformUtils used when none is supplied.
type alwaysOnline struct{}

func (alwaysOnline) IsOnline() bool { return true }

// Book is the public façade of the address book: add, the six
// state-transition methods, query, is_connected, is_banned. It owns the
// store and is driven single-threaded, cooperative, with no suspension
// points of its own (spec §5) — the way the teacher's Core owns its
// PeerAddrList and pumps events from one goroutine.
type Book struct {
	store    *AddressStore
	local    PeerAddress
	subs     subscribers
	platform PlatformUtils
	nowFn    func() int64
}

// NewBook constructs a Book for the given local address and seed list,
// injecting seeds via add(nil, seeds) per spec §6. A nil platform
// defaults to "always online"; a nil nowFn defaults to wall-clock
// milliseconds, overridden in tests for deterministic scenarios (spec §9).
func NewBook(local PeerAddress, seeds []PeerAddress, platform PlatformUtils, nowFn func() int64) *Book {
	if platform == nil {
		platform = alwaysOnline{}
	}
	if nowFn == nil {
		nowFn = func() int64 { return time.Now().UnixMilli() }
	}
	b := &Book{
		store:    NewAddressStore(),
		local:    local,
		platform: platform,
		nowFn:    nowFn,
	}
	if len(seeds) > 0 {
		b.Add(nil, seeds...)
	}
	return b
}

// Subscribe registers fn to be called, synchronously, with every batch of
// newly-admitted or newly-unbanned addresses. Returns an unsubscribe
// function.
func (b *Book) Subscribe(fn AddedFunc) (unsubscribe func()) {
	return b.subs.subscribe(fn)
}

// now returns the book's current notion of time, ms-epoch.
func (b *Book) now() int64 {
	return b.nowFn()
}

//----------------------------------------------------------------------
// add
//----------------------------------------------------------------------

// Add admits zero or more addresses learned over channel (nil for a seed
// or local injection) and fires Subscribe callbacks once with every
// address actually admitted. Returns the admitted subset, in call order.
func (b *Book) Add(channel transport.Channel, addrs ...PeerAddress) []PeerAddress {
	now := b.now()
	var admitted []PeerAddress
	for _, a := range addrs {
		if final, ok := b.addOne(channel, a, now); ok {
			admitted = append(admitted, final)
		}
	}
	if len(admitted) > 0 {
		ptrs := make([]*PeerAddress, len(admitted))
		for i := range admitted {
			ptrs[i] = &admitted[i]
		}
		b.subs.fire(ptrs, b)
	}
	return admitted
}

// addOne implements the six rejection gates of spec §4.4 and the
// create-or-merge admission that follows them.
func (b *Book) addOne(channel transport.Channel, addr PeerAddress, now int64) (PeerAddress, bool) {
	// 1. self-exclusion
	if addr.Equals(&b.local) {
		logger.Printf(logger.DBG, "[addrbook] rejected add: local address")
		return addr, false
	}
	// 2. age gate (seed/local injections via nil channel are exempt)
	if channel != nil && addr.ExceedsAge(now) {
		logger.Printf(logger.DBG, "[addrbook] rejected add: address exceeds age")
		return addr, false
	}
	// 3. timestamp drift gate
	if addr.Timestamp > now+MaxTimestampDrift.Milliseconds() {
		logger.Printf(logger.DBG, "[addrbook] rejected add: timestamp too far in the future")
		return addr, false
	}

	known := b.store.Get(addr.IdentityKey)

	// 4. RTC distance cap; the wire form carries the sender's distance,
	// we store the next-hop distance.
	if addr.Protocol == RTC {
		addr.Distance++
		if addr.Distance > MaxDistance {
			logger.Printf(logger.DBG, "[addrbook] rejected add: distance %d exceeds cap", addr.Distance)
			if known != nil && known.Routes != nil {
				known.Routes.DeleteRoute(channel)
			}
			return addr, false
		}
	}

	if known != nil {
		// 5. known banned, or a seed (seeds are bootstrap-immutable)
		if known.State == Banned || known.Address.IsSeed() {
			logger.Printf(logger.DBG, "[addrbook] rejected add: known address is banned or a seed")
			return addr, false
		}
		// 6. WS monotone freshness
		if addr.Protocol == WS && known.Address.Timestamp >= addr.Timestamp {
			logger.Printf(logger.DBG, "[addrbook] rejected add: stale WS timestamp")
			return addr, false
		}
		// preserve net_address: never erase what we already know
		if addr.NetAddress == nil && known.Address.NetAddress != nil {
			addr.NetAddress = known.Address.NetAddress
		}
	}

	var rec *PeerRecord
	if known != nil {
		rec = known
		rec.Address = addr
	} else {
		rec = NewPeerRecord(addr)
		b.store.Insert(rec)
	}

	if addr.Protocol == RTC {
		if rec.Routes == nil {
			rec.Routes = NewRouteSet()
		}
		rec.Routes.AddRoute(channel, addr.Distance, addr.Timestamp)
		if addr.PeerID != "" {
			b.store.PutPeerID(addr.PeerID, addr.IdentityKey)
		}
	}
	return rec.Address, true
}

//----------------------------------------------------------------------
// state transitions
//----------------------------------------------------------------------

// Connecting marks addr as being dialed.
func (b *Book) Connecting(addr PeerAddress) bool {
	return b.transition(addr, TransitionEvent{Kind: EvConnecting})
}

// Connected marks addr as connected, inbound or outbound, over channel
// (nil permitted for non-RTC protocols).
func (b *Book) Connected(channel transport.Channel, addr PeerAddress) bool {
	return b.transition(addr, TransitionEvent{Kind: EvConnected, Channel: channel})
}

// Disconnected marks addr as having lost its connection over channel.
func (b *Book) Disconnected(channel transport.Channel, addr PeerAddress) bool {
	return b.transition(addr, TransitionEvent{Kind: EvDisconnected, Channel: channel})
}

// Failure records a failed connection attempt to addr.
func (b *Book) Failure(addr PeerAddress) bool {
	return b.transition(addr, TransitionEvent{Kind: EvFailure})
}

// Unroutable reports that channel can no longer relay to addr.
func (b *Book) Unroutable(channel transport.Channel, addr PeerAddress) bool {
	return b.transition(addr, TransitionEvent{Kind: EvUnroutable, Channel: channel})
}

// Ban excludes addr from dialer selection and inbound acceptance for
// duration (DefaultBanTime if duration is zero).
func (b *Book) Ban(addr PeerAddress, duration time.Duration) bool {
	return b.transition(addr, TransitionEvent{Kind: EvBan, Duration: duration.Milliseconds()})
}

// transition is the single entry point every public transition method
// funnels through: look up or create, reduce, apply post-effects. Spec
// §4.2/§4.5.
func (b *Book) transition(addr PeerAddress, ev TransitionEvent) bool {
	now := b.now()
	key := addr.IdentityKey

	rec := b.store.Get(key)
	if rec == nil {
		switch ev.Kind {
		case EvConnected:
			rec = NewPeerRecord(addr)
			b.store.Insert(rec)
			if addr.Protocol == RTC && addr.PeerID != "" {
				b.store.PutPeerID(addr.PeerID, key)
			}
		case EvBan:
			rec = NewPeerRecord(addr)
			b.store.Insert(rec)
		default:
			return false
		}
	}

	if ev.Kind == EvDisconnected && ev.Channel != nil {
		b.purgeChannelRoutes(ev.Channel)
		rec = b.store.Get(key)
		if rec == nil {
			// the purge itself removed this peer's last route
			return false
		}
	}

	from := rec.State
	var to State
	var ok bool
	if ev.Kind == EvConnected && from == Banned && rec.Address.IsSeed() {
		// Seeds are never *observably* banned (spec §4.2 footnote 2):
		// IsBanned already tells inbound-accept logic to let a seed's
		// connection through, so Connected must actually record it
		// rather than leave the record stuck in Banned. reduce() has
		// no notion of "seed", so the bypass lives here instead of in
		// the general transition table.
		to, ok = Connected, true
	} else {
		to, ok = reduce(from, ev.Kind)
	}
	if !ok {
		logger.Printf(logger.DBG, "[addrbook] rejected illegal transition: %s (event %d)", from, ev.Kind)
		return false
	}

	// connecting_count tracks every transition out of/into Connecting,
	// including the no-op Connecting->Connecting case (from == to, so
	// neither branch below fires).
	if from == Connecting && to != Connecting {
		b.decConnecting()
	}
	if to == Connecting && from != Connecting {
		b.store.Connecting++
	}
	rec.State = to

	switch ev.Kind {
	case EvConnected:
		lc := now
		rec.LastConnected = &lc
		rec.FailedAttempts = 0
		rec.BanBackoff = InitialFailedBackoff.Milliseconds()
		rec.BannedUntil = nil
		rec.Address = addr
		if addr.Protocol == RTC {
			if rec.Routes == nil {
				rec.Routes = NewRouteSet()
			}
			rec.Routes.AddRoute(ev.Channel, addr.Distance, now)
		}

	case EvFailure:
		rec.FailedAttempts++
		if rec.FailedAttempts >= rec.MaxFailedAttempts {
			if rec.BanBackoff >= MaxFailedBackoff.Milliseconds() {
				b.remove(key)
				return true
			}
			backoff := rec.BanBackoff
			b.transition(rec.Address, TransitionEvent{Kind: EvBan, Duration: backoff})
			rec.BanBackoff = minI64(MaxFailedBackoff.Milliseconds(), backoff*2)
		}

	case EvBan:
		dur := ev.Duration
		if dur == 0 {
			dur = DefaultBanTime.Milliseconds()
		}
		bu := now + dur
		rec.BannedUntil = &bu
		if rec.Routes != nil {
			rec.Routes.DeleteAll()
		}

	case EvDisconnected:
		closedByRemote := ev.Channel != nil && ev.Channel.ClosedByRemote()
		if (closedByRemote && b.platform.IsOnline()) || rec.Address.Protocol == DUMB {
			b.remove(key)
		}

	case EvUnroutable:
		best := (*Route)(nil)
		if rec.Routes != nil {
			best = rec.Routes.Best()
		}
		if best == nil || best.Channel != ev.Channel {
			logger.Printf(logger.WARN, "[addrbook] unroutable on non-best-route channel, ignoring")
			return false
		}
		rec.Routes.DeleteBestRoute()
		if !rec.Routes.HasRoute() {
			b.remove(key)
		}
	}
	return true
}

// purgeChannelRoutes drops channel from every record's route set and
// removes any record that loses its last route as a result. Run once per
// disconnected event, before the reducer, across the whole store (spec
// §4.5 step 2).
func (b *Book) purgeChannelRoutes(ch transport.Channel) {
	for _, rec := range b.store.Values() {
		if rec.Routes == nil || !rec.Routes.HasRoute() {
			continue
		}
		rec.Routes.DeleteRoute(ch)
		if !rec.Routes.HasRoute() {
			b.remove(rec.Address.IdentityKey)
		}
	}
}

func (b *Book) decConnecting() {
	if b.store.Connecting > 0 {
		b.store.Connecting--
	}
}

// remove drops a record from the store, per spec §4.5: seeds are rebanned
// rather than removed; bans persist; everything else is dropped outright.
func (b *Book) remove(key string) {
	rec := b.store.Get(key)
	if rec == nil {
		return
	}
	if rec.Address.IsSeed() {
		b.transition(rec.Address, TransitionEvent{Kind: EvBan, Duration: rec.BanBackoff})
		return
	}
	if rec.Address.Protocol == RTC && rec.Address.PeerID != "" {
		b.store.RemovePeerID(rec.Address.PeerID)
	}
	if rec.State == Connecting {
		b.decConnecting()
	}
	if rec.State == Banned {
		// ban persists until housekeeping reaps it
		return
	}
	b.store.Remove(key)
}

//----------------------------------------------------------------------
// queries
//----------------------------------------------------------------------

// IsConnected reports whether addr has a live Connected record.
func (b *Book) IsConnected(addr PeerAddress) bool {
	rec := b.store.Get(addr.IdentityKey)
	return rec != nil && rec.State == Connected
}

// IsBanned reports whether addr is currently excluded by a ban. Seeds
// never appear banned to this check, even while internally Banned, so
// that inbound-accept logic can still recover a seed connection (spec
// §4.5).
func (b *Book) IsBanned(addr PeerAddress) bool {
	rec := b.store.Get(addr.IdentityKey)
	return rec != nil && rec.State == Banned && !rec.Address.IsSeed()
}

// DefaultMaxAddresses is query's default result cap.
const DefaultMaxAddresses = 1000

// Query returns up to maxAddresses admissible candidates for the dialer:
// connectable, not banned/failed, not a seed, matching both bitmasks, and
// not stale. As a side effect it refreshes the best-route timestamp of
// every Connected RTC record it visits, keeping relay freshness current
// (spec §4.6). maxAddresses <= 0 uses DefaultMaxAddresses.
func (b *Book) Query(protocolMask uint8, serviceMask Services, maxAddresses int) []PeerAddress {
	if maxAddresses <= 0 {
		maxAddresses = DefaultMaxAddresses
	}
	now := b.now()
	out := make([]PeerAddress, 0, maxAddresses)
	for _, rec := range b.store.Values() {
		if rec.State == Connected && rec.Routes != nil && rec.Routes.Best() != nil {
			rec.Routes.Best().Timestamp = now
		}
		if len(out) >= maxAddresses {
			continue
		}
		if rec.State == Banned || rec.State == Failed {
			continue
		}
		if rec.Address.IsSeed() {
			continue
		}
		if uint8(rec.Address.Protocol)&protocolMask == 0 {
			continue
		}
		if uint32(rec.Address.Services)&uint32(serviceMask) == 0 {
			continue
		}
		if rec.Address.ExceedsAge(now) {
			continue
		}
		out = append(out, *rec.Address.Clone())
	}
	return out
}

// Snapshot returns a clone-on-read copy of every record in the store,
// regardless of query's filtering — a debug/introspection projection used
// by the demo HTTP surface and tests (SPEC_FULL.md §C.1), never by Query.
func (b *Book) Snapshot() []*PeerRecord {
	vals := b.store.Values()
	out := make([]*PeerRecord, len(vals))
	for i, rec := range vals {
		out[i] = rec.Clone()
	}
	return out
}

// Len returns the number of records currently held, banned and seeds
// included.
func (b *Book) Len() int {
	return b.store.Len()
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
