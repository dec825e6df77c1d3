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

package main

import (
	"context"
	"time"

	"gnunet/addrbook"
	"gnunet/transport"

	"github.com/bfix/gospel/logger"
)

// gossipInterval controls how often the local query() projection is
// pushed out to a gossip peer.
const gossipInterval = 30 * time.Second

// gossipBatch carries one inbound batch of gossiped addresses, tagged
// with the channel they arrived over, for funneling through runBook's
// single executor (spec §5: only one goroutine ever calls into Book).
type gossipBatch struct {
	ch    transport.Channel
	addrs []addrbook.PeerAddress
}

// runGossipPeer dials spec (e.g. "tcp+1.2.3.4:6789") via
// transport.NewChannel and keeps exchanging PeerAddress batches with it
// over a transport.AddrChannel: it periodically pushes the local query()
// projection out, and feeds everything it reads back in to batchCh for
// the book's own goroutine to Add. Returns once the dial fails or the
// remote end closes the connection.
func runGossipPeer(ctx context.Context, spec string, queryCh chan<- queryRequest, batchCh chan<- gossipBatch) {
	ch, err := transport.NewChannel(spec)
	if err != nil {
		logger.Printf(logger.WARN, "[addrbook-demo] gossip peer %s: dial failed: %s", spec, err)
		return
	}
	defer ch.Close()
	logger.Printf(logger.INFO, "[addrbook-demo] gossip peer %s: connected", spec)

	ac := transport.NewAddrChannel(ch)
	go gossipSendLoop(ctx, spec, ac, queryCh)

	for {
		wa, err := ac.Receive(nil)
		if err != nil {
			logger.Printf(logger.INFO, "[addrbook-demo] gossip peer %s: receive ended: %s", spec, err)
			return
		}
		addr := addrbook.AddressFromWire(wa)
		select {
		case batchCh <- gossipBatch{ch: ch, addrs: []addrbook.PeerAddress{addr}}:
		case <-ctx.Done():
			return
		}
	}
}

// gossipSendLoop periodically asks the book (via queryCh, serviced by
// runBook) for its current dialer-facing projection and pushes it to the
// peer over ac, on its own ticker independent of the housekeeper's.
func gossipSendLoop(ctx context.Context, spec string, ac *transport.AddrChannel, queryCh chan<- queryRequest) {
	ticker := time.NewTicker(gossipInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resp := make(chan []addrbook.PeerAddress, 1)
			select {
			case queryCh <- queryRequest{protoMask: 0xFF, svcMask: 0xFFFFFFFF, max: addrbook.DefaultMaxAddresses, resp: resp}:
			case <-ctx.Done():
				return
			}
			var addrs []addrbook.PeerAddress
			select {
			case addrs = <-resp:
			case <-ctx.Done():
				return
			}
			wire := make([]*transport.WireAddress, len(addrs))
			for i, a := range addrs {
				wire[i] = addrbook.AddressToWire(a)
			}
			if err := ac.Send(wire, nil); err != nil {
				logger.Printf(logger.WARN, "[addrbook-demo] gossip peer %s: send failed: %s", spec, err)
				return
			}
		}
	}
}
