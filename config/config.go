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

package config

import (
	"encoding/json"
	"io/ioutil"
	"reflect"
	"regexp"
	"strings"

	"github.com/bfix/gospel/logger"
)

///////////////////////////////////////////////////////////////////////
// Address book / network configuration

// SeedConfig is the JSON form of one bootstrap or local peer address; it
// is translated into an addrbook.PeerAddress by addrbook.NewBookFromConfig.
type SeedConfig struct {
	Protocol    string `json:"protocol"`              // "ws", "rtc" or "dumb"
	IdentityKey string `json:"identityKey"`           // equality key
	NetAddress  string `json:"netAddress,omitempty"`  // e.g. "ip+tcp:1.2.3.4:6789"
	Services    uint32 `json:"services"`               // advertised service bitset
}

// NetworkConfig configures the address book: the node's own address, its
// bootstrap seeds, and the housekeeping/query tuning knobs.
type NetworkConfig struct {
	LocalAddress     SeedConfig   `json:"localAddress"`
	Seeds            []SeedConfig `json:"seeds"`
	MaxAddresses     int          `json:"maxAddresses"`
	HousekeepingSecs int          `json:"housekeepingSecs"`
}

///////////////////////////////////////////////////////////////////////

// Environ settings used for "${VAR}" substitution in string fields.
type Environ map[string]string

// Config is the aggregated configuration for the address-book node.
type Config struct {
	Env     Environ        `json:"environ"`
	Network *NetworkConfig `json:"network"`
}

var (
	// Cfg is the global configuration
	Cfg *Config
)

// ParseConfig reads a JSON-encoded configuration file and maps it to the
// Config data structure, applying "${VAR}" substitutions from Env.
func ParseConfig(fileName string) (err error) {
	file, err := ioutil.ReadFile(fileName)
	if err != nil {
		return
	}
	return ParseConfigBytes(file)
}

// ParseConfigBytes is ParseConfig over an in-memory buffer, split out for
// testability without a filesystem round-trip.
func ParseConfigBytes(data []byte) (err error) {
	Cfg = new(Config)
	if err = json.Unmarshal(data, Cfg); err == nil {
		applySubstitutions(Cfg, Cfg.Env)
	}
	return
}

var (
	rx = regexp.MustCompile(`\$\{([^\}]*)\}`)
)

// substString is a helper function to substitute environment variables
// with actual values.
func substString(s string, env map[string]string) string {
	matches := rx.FindAllStringSubmatch(s, -1)
	for _, m := range matches {
		if len(m[1]) != 0 {
			subst, ok := env[m[1]]
			if !ok {
				continue
			}
			s = strings.Replace(s, "${"+m[1]+"}", subst, -1)
		}
	}
	return s
}

// applySubstitutions traverses the configuration data structure
// and applies string substitutions to all string values.
func applySubstitutions(x interface{}, env map[string]string) {

	var process func(v reflect.Value)
	process = func(v reflect.Value) {
		for i := 0; i < v.NumField(); i++ {
			fld := v.Field(i)
			if fld.CanSet() {
				switch fld.Kind() {
				case reflect.String:
					// check for substitution
					s := fld.Interface().(string)
					for {
						s1 := substString(s, env)
						if s1 == s {
							break
						}
						logger.Printf(logger.DBG, "[config] %s --> %s\n", s, s1)
						fld.SetString(s1)
						s = s1
					}

				case reflect.Struct:
					// handle nested struct
					process(fld)

				case reflect.Slice:
					// handle slice of structs (e.g. Seeds)
					for j := 0; j < fld.Len(); j++ {
						e := fld.Index(j)
						if e.Kind() == reflect.Struct {
							process(e)
						}
					}

				case reflect.Ptr:
					// handle pointer
					e := fld.Elem()
					if e.IsValid() {
						process(fld.Elem())
					} else {
						logger.Printf(logger.ERROR, "[config] 'nil' pointer encountered")
					}
				}
			}
		}
	}
	// start processing at the top-level structure
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Ptr:
		// indirect top-level
		e := v.Elem()
		if e.IsValid() {
			process(e)
		} else {
			logger.Printf(logger.ERROR, "[config] 'nil' pointer encountered")
		}
	case reflect.Struct:
		// direct top-level
		process(v)
	}
}
