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

package model

import (
	"github.com/gogo/protobuf/proto"
)

const (
	// NetworkKeyPrefix is the prefix under which networks are persisted.
	NetworkKeyPrefix = "l2pop/network/"

	// PortKeyPrefix is the prefix under which ports are persisted.
	PortKeyPrefix = "l2pop/port/"
)

// Network types.
const (
	NetworkTypeVXLAN  = "vxlan"
	NetworkTypeGRE    = "gre"
	NetworkTypeGeneve = "geneve"
	NetworkTypeVLAN   = "vlan"
	NetworkTypeFlat   = "flat"
	NetworkTypeLocal  = "local"
)

// Port statuses.
const (
	PortStatusDown   = "DOWN"
	PortStatusBuild  = "BUILD"
	PortStatusActive = "ACTIVE"
	PortStatusError  = "ERROR"
)

// NetworkKey returns the key under which the network is persisted.
func NetworkKey(id string) string {
	return NetworkKeyPrefix + id
}

// PortKey returns the key under which the port is persisted.
func PortKey(id string) string {
	return PortKeyPrefix + id
}

// Network is an overlay or provider network.
type Network struct {
	ID          string `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Name        string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	NetworkType string `protobuf:"bytes,3,opt,name=network_type,json=networkType,proto3" json:"network_type,omitempty"`
	SegmentID   uint32 `protobuf:"varint,4,opt,name=segment_id,json=segmentId,proto3" json:"segment_id,omitempty"`
}

func (m *Network) Reset()         { *m = Network{} }
func (m *Network) String() string { return proto.CompactTextString(m) }
func (*Network) ProtoMessage()    {}

// Port is a logical switch port attached to a network.
type Port struct {
	ID           string   `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	NetworkID    string   `protobuf:"bytes,2,opt,name=network_id,json=networkId,proto3" json:"network_id,omitempty"`
	MACAddress   string   `protobuf:"bytes,3,opt,name=mac_address,json=macAddress,proto3" json:"mac_address,omitempty"`
	FixedIPs     []string `protobuf:"bytes,4,rep,name=fixed_ips,json=fixedIps,proto3" json:"fixed_ips,omitempty"`
	HostID       string   `protobuf:"bytes,5,opt,name=host_id,json=hostId,proto3" json:"host_id,omitempty"`
	Status       string   `protobuf:"bytes,6,opt,name=status,proto3" json:"status,omitempty"`
	AdminStateUp bool     `protobuf:"varint,7,opt,name=admin_state_up,json=adminStateUp,proto3" json:"admin_state_up,omitempty"`
	DeviceOwner  string   `protobuf:"bytes,8,opt,name=device_owner,json=deviceOwner,proto3" json:"device_owner,omitempty"`
}

func (m *Port) Reset()         { *m = Port{} }
func (m *Port) String() string { return proto.CompactTextString(m) }
func (*Port) ProtoMessage()    {}

// IsBound returns true if the port is bound to a host.
func (m *Port) IsBound() bool {
	return m.HostID != ""
}

// FirstIP returns the first fixed IP of the port, or an empty string
// if the port has none.
func (m *Port) FirstIP() string {
	if len(m.FixedIPs) == 0 {
		return ""
	}
	return m.FixedIPs[0]
}

// Copy returns a deep copy of the port.
func (m *Port) Copy() *Port {
	if m == nil {
		return nil
	}
	c := *m
	c.FixedIPs = append([]string(nil), m.FixedIPs...)
	return &c
}
