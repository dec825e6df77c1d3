// This file is part of gnunet-go, a GNUnet-implementation in Golang.
// Copyright (C) 2019, 2020 Bernd Fix  >Y<
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

package transport

import (
	"encoding/hex"
	"errors"

	"github.com/bfix/gospel/concurrent"
	"github.com/bfix/gospel/data"
	"github.com/bfix/gospel/logger"
)

// WireAddress is the struct-tagged wire form of a gossiped peer address,
// exchanged between nodes over a Channel. addrbook.PeerAddress is the
// in-memory, already-validated form; WireAddress is what actually crosses
// the network, serialized with gospel/data the same way the teacher's
// MsgChannel serializes its protocol messages.
type WireAddress struct {
	Protocol   uint8  `order:"big"`
	Services   uint32 `order:"big"`
	Timestamp  uint64 `order:"big"`
	Distance   uint8  ``
	HasNetAddr uint8  `` // 0/1
	NetAddr    []byte `size:"*"`
	IdentityKey []byte `size:"*"`
	PeerID      []byte `size:"*"`
}

// AddrChannel wraps a plain Channel to exchange WireAddress batches, the
// address-gossip analogue of the teacher's MsgChannel (which exchanges
// full protocol messages instead of bare address records).
type AddrChannel struct {
	ch  Channel
	buf []byte
}

// NewAddrChannel wraps a Channel for address-batch exchange.
func NewAddrChannel(ch Channel) *AddrChannel {
	return &AddrChannel{
		ch:  ch,
		buf: make([]byte, 65536),
	}
}

// Send a batch of wire addresses over the channel, length-prefixed.
func (c *AddrChannel) Send(addrs []*WireAddress, sig *concurrent.Signaller) error {
	for _, a := range addrs {
		buf, err := data.Marshal(a)
		if err != nil {
			return err
		}
		logger.Printf(logger.DBG, "[transport] ==> address [%s]", hex.EncodeToString(buf))
		n, err := c.ch.Write(buf, sig)
		if err != nil {
			return err
		}
		if n != len(buf) {
			return errors.New("incomplete address send")
		}
	}
	return nil
}

// Receive a single wire address from the channel.
func (c *AddrChannel) Receive(sig *concurrent.Signaller) (*WireAddress, error) {
	n, err := c.ch.Read(c.buf, sig)
	if err != nil {
		return nil, err
	}
	addr := new(WireAddress)
	if err := data.Unmarshal(addr, c.buf[:n]); err != nil {
		return nil, err
	}
	logger.Printf(logger.DBG, "[transport] <== address [%s]", hex.EncodeToString(c.buf[:n]))
	return addr, nil
}
