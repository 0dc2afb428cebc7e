// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fdb computes forwarding database views of overlay networks and
// the differences between them.
package fdb

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// FloodingEntry marks a tunnel endpoint as a destination of flooded
// broadcast and unknown traffic.
var FloodingEntry = Entry{MAC: "00:00:00:00:00:00", IP: "0.0.0.0"}

// Entry is a forwarding entry of a single port.
// It is serialized as a two-element JSON array [mac, ip].
type Entry struct {
	MAC string
	IP  string
}

// MarshalJSON encodes the entry as [mac, ip].
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.MAC, e.IP})
}

// UnmarshalJSON decodes the entry from [mac, ip].
func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return errors.Errorf("FDB entry must have 2 elements, got %d", len(pair))
	}
	e.MAC, e.IP = pair[0], pair[1]
	return nil
}

// String returns the entry as [mac, ip].
func (e Entry) String() string {
	return "[" + e.MAC + ", " + e.IP + "]"
}

// PortEntries is an ordered list of entries reachable through one tunnel endpoint.
type PortEntries []Entry

// Contains returns true if the list contains the entry.
func (pe PortEntries) Contains(entry Entry) bool {
	for _, e := range pe {
		if e == entry {
			return true
		}
	}
	return false
}

// AgentEntries maps tunnel IP of an agent to the entries reachable through it.
type AgentEntries map[string]PortEntries

// TunnelIPs returns sorted tunnel IPs.
func (ae AgentEntries) TunnelIPs() []string {
	var ips []string
	for ip := range ae {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return ips
}

// Copy returns a deep copy.
func (ae AgentEntries) Copy() AgentEntries {
	c := make(AgentEntries, len(ae))
	for ip, entries := range ae {
		c[ip] = append(PortEntries(nil), entries...)
	}
	return c
}

// Filter returns entries of tunnel IPs accepted by keep.
func (ae AgentEntries) Filter(keep func(tunnelIP string) bool) AgentEntries {
	res := AgentEntries{}
	for ip, entries := range ae {
		if keep(ip) {
			res[ip] = append(PortEntries(nil), entries...)
		}
	}
	return res
}

// String returns a deterministic representation for logging.
func (ae AgentEntries) String() string {
	var parts []string
	for _, ip := range ae.TunnelIPs() {
		var entries []string
		for _, e := range ae[ip] {
			entries = append(entries, e.String())
		}
		parts = append(parts, ip+": ["+strings.Join(entries, ", ")+"]")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Diff computes entries to add and remove to get from prev to next,
// for every tunnel IP. Order of the source lists is preserved and
// tunnel IPs without changes are omitted.
func Diff(prev, next AgentEntries) (add, remove AgentEntries) {
	return subtract(next, prev), subtract(prev, next)
}

func subtract(from, what AgentEntries) AgentEntries {
	res := AgentEntries{}
	for ip, entries := range from {
		for _, e := range entries {
			if !what[ip].Contains(e) {
				res[ip] = append(res[ip], e)
			}
		}
	}
	return res
}

// Delta is a change of the forwarding database of one network.
type Delta struct {
	NetworkID   string
	NetworkType string
	SegmentID   uint32
	Add         AgentEntries
	Remove      AgentEntries
}

// IsEmpty returns true if the delta neither adds nor removes entries.
func (d *Delta) IsEmpty() bool {
	return d == nil || (len(d.Add) == 0 && len(d.Remove) == 0)
}

// String returns a human-readable representation of the delta.
func (d *Delta) String() string {
	if d == nil {
		return "<nil>"
	}
	return fmt.Sprintf("network %s (%s, segment %d): add %v remove %v",
		d.NetworkID, d.NetworkType, d.SegmentID, d.Add, d.Remove)
}
