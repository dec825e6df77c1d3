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
	"fmt"
	"time"

	"gnunet/config"
	"gnunet/util"
)

// addressFromConfig translates one JSON seed/local-address entry into a
// PeerAddress with Timestamp: 0 (a seed, per spec §3, unless the caller
// overrides it afterwards — the local address itself is never stored, so
// its seed-ness is moot).
func addressFromConfig(sc config.SeedConfig) (PeerAddress, error) {
	var proto Protocol
	switch sc.Protocol {
	case "ws":
		proto = WS
	case "rtc":
		proto = RTC
	case "dumb":
		proto = DUMB
	default:
		return PeerAddress{}, fmt.Errorf("addrbook: unknown protocol %q", sc.Protocol)
	}
	addr := PeerAddress{
		Protocol:    proto,
		IdentityKey: sc.IdentityKey,
		Services:    Services(sc.Services),
	}
	if sc.NetAddress != "" {
		na, err := util.ParseAddress(sc.NetAddress)
		if err != nil {
			return PeerAddress{}, fmt.Errorf("addrbook: local/seed net address: %w", err)
		}
		addr.NetAddress = na
	}
	return addr, nil
}

// NewBookFromConfig builds a Book from a parsed NetworkConfig: the local
// address is read once at construction (spec §6) and seeds are injected
// via Add(nil, seeds). Falls back to DefaultSeeds when cfg.Seeds is
// empty. A positive cfg.HousekeepingSecs overrides the package-level
// HousekeepingInterval; zero leaves it unchanged. cfg.MaxAddresses is not
// read: the Book keeps no query cap of its own, and Query's caller passes
// the cap on every call.
func NewBookFromConfig(cfg *config.NetworkConfig, platform PlatformUtils, nowFn func() int64) (*Book, error) {
	local, err := addressFromConfig(cfg.LocalAddress)
	if err != nil {
		return nil, fmt.Errorf("addrbook: local address: %w", err)
	}
	if cfg.HousekeepingSecs > 0 {
		HousekeepingInterval = time.Duration(cfg.HousekeepingSecs) * time.Second
	}

	seeds := DefaultSeeds
	if len(cfg.Seeds) > 0 {
		seeds = make([]PeerAddress, 0, len(cfg.Seeds))
		for i, sc := range cfg.Seeds {
			addr, err := addressFromConfig(sc)
			if err != nil {
				return nil, fmt.Errorf("addrbook: seed %d: %w", i, err)
			}
			seeds = append(seeds, addr)
		}
	}

	return NewBook(local, seeds, platform, nowFn), nil
}
