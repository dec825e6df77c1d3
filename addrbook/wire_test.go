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
	"bytes"
	"testing"

	"gnunet/transport"
	"gnunet/util"

	"github.com/bfix/gospel/concurrent"
)

// loopbackChannel is a transport.Channel test double backed by an
// in-memory buffer: a Send's bytes sit in buf until Receive drains them,
// enough to round-trip a transport.AddrChannel without a real socket.
type loopbackChannel struct {
	buf bytes.Buffer
}

func (c *loopbackChannel) Open(string) error { return nil }
func (c *loopbackChannel) Close() error      { return nil }
func (c *loopbackChannel) IsOpen() bool      { return true }
func (c *loopbackChannel) Read(p []byte, _ *concurrent.Signaller) (int, error) {
	return c.buf.Read(p)
}
func (c *loopbackChannel) Write(p []byte, _ *concurrent.Signaller) (int, error) {
	return c.buf.Write(p)
}
func (c *loopbackChannel) ClosedByRemote() bool { return false }

func TestWireRoundTrip(t *testing.T) {
	na, err := util.ParseAddress("ip+tcp:1.2.3.4:6789")
	if err != nil {
		t.Fatal(err)
	}
	orig := PeerAddress{
		Protocol:    RTC,
		IdentityKey: "peer-1",
		Services:    0xFF,
		Timestamp:   123456,
		NetAddress:  na,
		Distance:    2,
		PeerID:      "relay-7",
	}

	lb := &loopbackChannel{}
	ac := transport.NewAddrChannel(lb)

	if err := ac.Send([]*transport.WireAddress{AddressToWire(orig)}, nil); err != nil {
		t.Fatalf("send: %s", err)
	}
	wa, err := ac.Receive(nil)
	if err != nil {
		t.Fatalf("receive: %s", err)
	}
	got := AddressFromWire(wa)

	if got.Protocol != orig.Protocol || got.IdentityKey != orig.IdentityKey ||
		got.Services != orig.Services || got.Timestamp != orig.Timestamp ||
		got.Distance != orig.Distance || got.PeerID != orig.PeerID {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, orig)
	}
	if got.NetAddress == nil || !got.NetAddress.Equals(na) {
		t.Fatalf("expected net address to round-trip, got %+v", got.NetAddress)
	}
}

func TestWireRoundTripNoNetAddress(t *testing.T) {
	orig := PeerAddress{Protocol: WS, IdentityKey: "peer-2", Services: 1, Timestamp: 42}

	lb := &loopbackChannel{}
	ac := transport.NewAddrChannel(lb)
	if err := ac.Send([]*transport.WireAddress{AddressToWire(orig)}, nil); err != nil {
		t.Fatalf("send: %s", err)
	}
	wa, err := ac.Receive(nil)
	if err != nil {
		t.Fatalf("receive: %s", err)
	}
	got := AddressFromWire(wa)
	if got.NetAddress != nil {
		t.Fatal("expected no net address to round-trip when none was set")
	}
}

// TestAddOneConsumesGossipedWireAddress exercises the whole gossip path
// end to end: encode, send over a real AddrChannel, decode, and hand the
// result straight to Book.Add over the channel it arrived on.
func TestAddOneConsumesGossipedWireAddress(t *testing.T) {
	book, _ := newTestBook(nil)
	ch := newFakeChannel()

	sent := PeerAddress{Protocol: WS, IdentityKey: "gossiped", Services: 1, Timestamp: 1}
	lb := &loopbackChannel{}
	ac := transport.NewAddrChannel(lb)
	if err := ac.Send([]*transport.WireAddress{AddressToWire(sent)}, nil); err != nil {
		t.Fatalf("send: %s", err)
	}
	wa, err := ac.Receive(nil)
	if err != nil {
		t.Fatalf("receive: %s", err)
	}

	admitted := book.Add(ch, AddressFromWire(wa))
	if len(admitted) != 1 || admitted[0].IdentityKey != "gossiped" {
		t.Fatalf("expected the decoded address to be admitted, got %+v", admitted)
	}
}
