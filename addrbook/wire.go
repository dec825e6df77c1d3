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
	"gnunet/transport"
	"gnunet/util"
)

// AddressToWire encodes a PeerAddress into its transport.WireAddress wire
// form, the way a gossiping peer hands its known addresses to another node
// over a transport.AddrChannel.
func AddressToWire(a PeerAddress) *transport.WireAddress {
	w := &transport.WireAddress{
		Protocol:    uint8(a.Protocol),
		Services:    uint32(a.Services),
		Timestamp:   uint64(a.Timestamp),
		Distance:    a.Distance,
		IdentityKey: []byte(a.IdentityKey),
		PeerID:      []byte(a.PeerID),
	}
	if a.NetAddress != nil {
		w.HasNetAddr = 1
		w.NetAddr = []byte(a.NetAddress.String())
	}
	return w
}

// AddressFromWire decodes a gossiped transport.WireAddress back into a
// PeerAddress, ready to pass to Book.Add. A malformed net address is
// dropped rather than failing the whole decode: the book's own add()
// gates (spec §4.4) are the authority on admissibility, not the wire
// codec.
func AddressFromWire(w *transport.WireAddress) PeerAddress {
	a := PeerAddress{
		Protocol:    Protocol(w.Protocol),
		Services:    Services(w.Services),
		Timestamp:   int64(w.Timestamp),
		Distance:    w.Distance,
		IdentityKey: string(w.IdentityKey),
		PeerID:      string(w.PeerID),
	}
	if w.HasNetAddr != 0 && len(w.NetAddr) > 0 {
		if na, err := util.ParseAddress(string(w.NetAddr)); err == nil {
			a.NetAddress = na
		}
	}
	return a
}
