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

// Command addrbook-demo runs a standalone peer address book with a
// read-only HTTP introspection surface, the way the teacher's service
// commands wrap a long-running subsystem with a thin cmd/ main.
package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gnunet/addrbook"
	"gnunet/config"
	"gnunet/util"

	"github.com/bfix/gospel/crypto/ed25519"
	"github.com/bfix/gospel/logger"
	"github.com/gorilla/mux"
)

func main() {
	cfgFile := flag.String("c", "", "path to a network configuration file (JSON); uses built-in defaults if empty")
	listen := flag.String("l", "127.0.0.1:8080", "HTTP listen address for the introspection endpoint")
	logLevel := flag.Int("L", logger.INFO, "log level (see gospel/logger)")
	peers := flag.String("peers", "", "comma-separated transport.Channel specs (e.g. tcp+1.2.3.4:6789) to gossip addresses with")
	flag.Parse()

	logger.SetLogLevel(*logLevel)

	id, err := localIdentity()
	if err != nil {
		logger.Printf(logger.ERROR, "[addrbook-demo] identity generation failed: %s", err)
		os.Exit(1)
	}
	logger.Printf(logger.INFO, "[addrbook-demo] local peer id: %s", id)

	var book *addrbook.Book
	if *cfgFile != "" {
		if err := config.ParseConfig(*cfgFile); err != nil {
			logger.Printf(logger.ERROR, "[addrbook-demo] config: %s", err)
			os.Exit(1)
		}
		book, err = addrbook.NewBookFromConfig(config.Cfg.Network, nil, nil)
		if err != nil {
			logger.Printf(logger.ERROR, "[addrbook-demo] %s", err)
			os.Exit(1)
		}
	} else {
		local := addrbook.PeerAddress{
			Protocol:    addrbook.WS,
			IdentityKey: id,
			Services:    0xFFFFFFFF,
		}
		book = addrbook.NewBook(local, addrbook.DefaultSeeds, nil, nil)
	}

	// The book itself is single-threaded (spec §5): only the goroutine
	// below ever calls into it. HTTP handlers never touch book directly;
	// they read a thread-safe snapshot cache instead, the way the
	// teacher's util.Map lets a background owner publish state to
	// concurrent readers without an internal lock in the owned type.
	cache := util.NewMap[string, []*addrbook.PeerRecord]()
	cache.Put("snapshot", book.Snapshot(), 0)

	unsubscribe := book.Subscribe(func(addrs []*addrbook.PeerAddress, b *addrbook.Book) {
		logger.Printf(logger.DBG, "[addrbook-demo] added %d address(es)", len(addrs))
		cache.Put("snapshot", b.Snapshot(), 0)
	})
	defer unsubscribe()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hk := addrbook.NewHousekeeper(book)
	queryCh := make(chan queryRequest)
	batchCh := make(chan gossipBatch)
	go runBook(ctx, book, hk, cache, queryCh, batchCh)

	for _, spec := range strings.Split(*peers, ",") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		go runGossipPeer(ctx, spec, queryCh, batchCh)
	}

	srv := &http.Server{
		Addr:    *listen,
		Handler: newRouter(cache, queryCh),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf(logger.WARN, "[addrbook-demo] shutdown: %s", err)
		}
	}()

	logger.Printf(logger.INFO, "[addrbook-demo] listening on %s", *listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf(logger.ERROR, "[addrbook-demo] %s", err)
		os.Exit(1)
	}
}

// localIdentity generates a fresh ed25519 identity for this run; a
// production node would persist and reload the seed instead.
func localIdentity() (string, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return "", err
	}
	prv := ed25519.NewPrivateKeyFromSeed(seed)
	pub := prv.Public().Bytes()
	return util.EncodeBinaryToString(pub), nil
}

// queryRequest carries one /query call across to the goroutine that
// owns the book, since Book.Query has the side effect of refreshing
// best-route timestamps and so must run on the book's single executor,
// never concurrently from an HTTP handler goroutine (spec §5).
type queryRequest struct {
	protoMask uint8
	svcMask   addrbook.Services
	max       int
	resp      chan []addrbook.PeerAddress
}

// runBook is the book's sole executor goroutine: it drives housekeeping
// on a fixed interval, services queryRequests, and applies gossiped
// batches received by the peer goroutines started in main, keeping the
// snapshot cache fresh after every mutation. No other goroutine may call
// into book.
func runBook(ctx context.Context, book *addrbook.Book, hk *addrbook.Housekeeper, cache *util.Map[string, []*addrbook.PeerRecord], queryCh <-chan queryRequest, batchCh <-chan gossipBatch) {
	ticker := time.NewTicker(addrbook.HousekeepingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			hk.Tick(t.UnixMilli())
			cache.Put("snapshot", book.Snapshot(), 0)
		case req := <-queryCh:
			result := book.Query(req.protoMask, req.svcMask, req.max)
			cache.Put("snapshot", book.Snapshot(), 0)
			req.resp <- result
		case b := <-batchCh:
			book.Add(b.ch, b.addrs...)
			cache.Put("snapshot", book.Snapshot(), 0)
		}
	}
}

// newRouter wires the read-only introspection surface: GET /peers serves
// the latest cached snapshot (clone-on-read), GET /query runs the
// dialer-facing projection with protocol/service bitmasks and a result
// cap on the book's own goroutine.
func newRouter(cache *util.Map[string, []*addrbook.PeerRecord], queryCh chan<- queryRequest) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/peers", func(w http.ResponseWriter, req *http.Request) {
		snap, _ := cache.Get("snapshot", 0)
		writeJSON(w, snap)
	}).Methods(http.MethodGet)

	r.HandleFunc("/query", func(w http.ResponseWriter, req *http.Request) {
		protoMask := parseUint8(req.URL.Query().Get("protocol"), 0xFF)
		svcMask := parseUint32(req.URL.Query().Get("services"), 0xFFFFFFFF)
		max := int(parseUint32(req.URL.Query().Get("max"), addrbook.DefaultMaxAddresses))
		resp := make(chan []addrbook.PeerAddress, 1)
		select {
		case queryCh <- queryRequest{protoMask: protoMask, svcMask: addrbook.Services(svcMask), max: max, resp: resp}:
			writeJSON(w, <-resp)
		case <-req.Context().Done():
		}
	}).Methods(http.MethodGet)

	return r
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Printf(logger.WARN, "[addrbook-demo] encode response: %s", err)
	}
}

func parseUint8(s string, def uint8) uint8 {
	var v uint32
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return def
	}
	return uint8(v)
}

func parseUint32(s string, def uint32) uint32 {
	var v uint32
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return def
	}
	return v
}
