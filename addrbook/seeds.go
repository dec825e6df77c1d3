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

// DefaultSeeds is the compile-time bootstrap list injected at Book
// construction via add(nil, seeds) (spec §6). Every entry carries
// Timestamp: 0, marking it a seed: exempt from aging, never physically
// removed, hidden from Query. Production deployments override this via
// config.NetworkConfig.Seeds; NewBookFromConfig falls back to this list
// when no seeds are configured. NewBook itself injects only the seeds it
// is given.
var DefaultSeeds = []PeerAddress{
	{
		Protocol:    WS,
		IdentityKey: "seed-ws-1.gnunet-addrbook.example",
		Services:    0xFFFFFFFF,
	},
	{
		Protocol:    WS,
		IdentityKey: "seed-ws-2.gnunet-addrbook.example",
		Services:    0xFFFFFFFF,
	},
	{
		Protocol:    DUMB,
		IdentityKey: "seed-dumb-1.gnunet-addrbook.example",
		Services:    0xFFFFFFFF,
	},
}
