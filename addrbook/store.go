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

// AddressStore is the primary mapping from identity key to per-peer
// record, with a secondary index from RTC peer id to identity key. It is
// exclusively owned by Book (spec §5) and carries no locking of its own:
// the whole address book runs single-threaded, cooperative, on one
// executor, the way the teacher's Core owns its PeerAddrList.
type AddressStore struct {
	byKey      map[string]*PeerRecord
	byPeerID   map[string]string // RTC peer id -> identity key
	Connecting uint32            // number of records currently Connecting
}

// NewAddressStore returns an empty store.
func NewAddressStore() *AddressStore {
	return &AddressStore{
		byKey:    make(map[string]*PeerRecord),
		byPeerID: make(map[string]string),
	}
}

// Get returns the record for an identity key, or nil.
func (s *AddressStore) Get(key string) *PeerRecord {
	return s.byKey[key]
}

// GetByPeerID returns the record known under an RTC relay-graph peer id.
func (s *AddressStore) GetByPeerID(peerID string) *PeerRecord {
	key, ok := s.byPeerID[peerID]
	if !ok {
		return nil
	}
	return s.byKey[key]
}

// Insert adds or replaces a record under its identity key.
func (s *AddressStore) Insert(r *PeerRecord) {
	s.byKey[r.Address.IdentityKey] = r
}

// PutPeerID indexes a record's identity key under its RTC peer id.
func (s *AddressStore) PutPeerID(peerID, key string) {
	if peerID != "" {
		s.byPeerID[peerID] = key
	}
}

// RemovePeerID drops the peer-id index entry, if any.
func (s *AddressStore) RemovePeerID(peerID string) {
	delete(s.byPeerID, peerID)
}

// Remove drops a record outright (no ban/seed special-casing here; that
// policy lives in Book.remove).
func (s *AddressStore) Remove(key string) {
	delete(s.byKey, key)
}

// Values returns every record in the store. Linear, as documented in
// spec §4.1; callers that mutate records in place (Book, Housekeeper) may
// range over this directly since nothing here suspends mid-iteration.
func (s *AddressStore) Values() []*PeerRecord {
	out := make([]*PeerRecord, 0, len(s.byKey))
	for _, r := range s.byKey {
		out = append(out, r)
	}
	return out
}

// Len returns the number of records in the store.
func (s *AddressStore) Len() int {
	return len(s.byKey)
}
