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

// Package transport provides the opaque, equality-comparable handles the
// address book uses as relay-route keys. The book never dials, reads, or
// closes a Channel itself — it only carries one around and asks whether
// the remote end closed it.
package transport

import (
	"fmt"
	"net"
	"strings"

	"github.com/bfix/gospel/concurrent"
	"github.com/bfix/gospel/logger"
)

// Error codes
var (
	ErrChannelNotImplemented = fmt.Errorf("protocol not implemented")
	ErrChannelNotOpened      = fmt.Errorf("channel not opened")
)

////////////////////////////////////////////////////////////////////////
// CHANNEL

// Channel is an abstraction for exchanging arbitrary data over various
// transport protocols and mechanisms: direct websocket-style servers,
// browser-relayed WebRTC signal channels, or a dumb outbound-only
// connection. A string specifies the end-point of the channel:
//     "unix+/tmp/test.sock" -- for UDS channels
//     "tcp+1.2.3.4:5"       -- for TCP channels
type Channel interface {
	Open(spec string) error                           // open channel (for read/write)
	Close() error                                      // close open channel
	IsOpen() bool                                      // check if channel is open
	Read([]byte, *concurrent.Signaller) (int, error)   // read from channel
	Write([]byte, *concurrent.Signaller) (int, error)  // write to channel
	ClosedByRemote() bool                              // true once the remote end closed the channel
}

// ChannelFactory instantiates specific Channel implementations.
type ChannelFactory func() Channel

// Known channel implementations.
var channelImpl = map[string]ChannelFactory{
	"unix": func() Channel { return NewNetworkChannel("unix") },
	"tcp":  func() Channel { return NewNetworkChannel("tcp") },
}

// NewChannel creates a new channel to the specified endpoint.
// Called by a client to connect to a service.
func NewChannel(spec string) (Channel, error) {
	parts := strings.SplitN(spec, "+", 2)
	if fac, ok := channelImpl[parts[0]]; ok {
		inst := fac()
		err := inst.Open(spec)
		return inst, err
	}
	return nil, ErrChannelNotImplemented
}

////////////////////////////////////////////////////////////////////////
// NETWORK CHANNEL

// NetworkChannel is a minimal Channel over a net.Conn. It illustrates how
// a network layer plugs a concrete transport into the opaque Channel
// contract that the address book consumes; addrbook itself never
// constructs one directly.
type NetworkChannel struct {
	network  string
	conn     net.Conn
	closedBy bool
}

// NewNetworkChannel creates a new channel for a given network protocol.
// The channel is in pending state and needs to be opened before use.
func NewNetworkChannel(netw string) Channel {
	return &NetworkChannel{network: netw}
}

// Open a network channel based on a "<proto>+<addr>" specification.
func (c *NetworkChannel) Open(spec string) (err error) {
	parts := strings.SplitN(spec, "+", 2)
	if len(parts) != 2 || parts[0] != c.network {
		return ErrChannelNotImplemented
	}
	c.conn, err = net.Dial(c.network, parts[1])
	return
}

// Close a network channel.
func (c *NetworkChannel) Close() error {
	if c.conn == nil {
		return ErrChannelNotOpened
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// IsOpen reports whether the channel has a live connection.
func (c *NetworkChannel) IsOpen() bool {
	return c.conn != nil
}

// Read from the underlying connection. The signaller is accepted to
// satisfy the Channel interface but is not consulted: a read blocks until
// data arrives or the connection fails.
func (c *NetworkChannel) Read(buf []byte, sig *concurrent.Signaller) (int, error) {
	if c.conn == nil {
		return 0, ErrChannelNotOpened
	}
	n, err := c.conn.Read(buf)
	if err != nil {
		c.closedBy = true
		logger.Printf(logger.DBG, "[transport] channel closed on read: %s", err.Error())
	}
	return n, err
}

// Write to the underlying connection.
func (c *NetworkChannel) Write(buf []byte, sig *concurrent.Signaller) (int, error) {
	if c.conn == nil {
		return 0, ErrChannelNotOpened
	}
	return c.conn.Write(buf)
}

// ClosedByRemote reports whether the last read observed the remote end
// tearing down the connection.
func (c *NetworkChannel) ClosedByRemote() bool {
	return c.closedBy
}
