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

// KeyPrefix is the prefix under which agent records are persisted.
const KeyPrefix = "l2pop/agent/"

// Key returns the key under which the agent of the given host is persisted.
func Key(host string) string {
	return KeyPrefix + host
}

// Agent is the registry record of a switch agent, refreshed on every
// state report.
type Agent struct {
	Host               string   `protobuf:"bytes,1,opt,name=host,proto3" json:"host,omitempty"`
	AgentType          string   `protobuf:"bytes,2,opt,name=agent_type,json=agentType,proto3" json:"agent_type,omitempty"`
	Binary             string   `protobuf:"bytes,3,opt,name=binary,proto3" json:"binary,omitempty"`
	Topic              string   `protobuf:"bytes,4,opt,name=topic,proto3" json:"topic,omitempty"`
	TunnelIP           string   `protobuf:"bytes,5,opt,name=tunnel_ip,json=tunnelIp,proto3" json:"tunnel_ip,omitempty"`
	TunnelTypes        []string `protobuf:"bytes,6,rep,name=tunnel_types,json=tunnelTypes,proto3" json:"tunnel_types,omitempty"`
	HeartbeatTimestamp int64    `protobuf:"varint,7,opt,name=heartbeat_timestamp,json=heartbeatTimestamp,proto3" json:"heartbeat_timestamp,omitempty"`
	StartedAt          int64    `protobuf:"varint,8,opt,name=started_at,json=startedAt,proto3" json:"started_at,omitempty"`
	AdminStateUp       bool     `protobuf:"varint,9,opt,name=admin_state_up,json=adminStateUp,proto3" json:"admin_state_up,omitempty"`
}

func (m *Agent) Reset()         { *m = Agent{} }
func (m *Agent) String() string { return proto.CompactTextString(m) }
func (*Agent) ProtoMessage()    {}

// SupportsTunnelType returns true if the agent declared the given tunnel type.
func (m *Agent) SupportsTunnelType(tunnelType string) bool {
	for _, t := range m.TunnelTypes {
		if t == tunnelType {
			return true
		}
	}
	return false
}

// AgentState is a state report as sent by an agent with every heartbeat.
type AgentState struct {
	Binary         string              `json:"binary"`
	Host           string              `json:"host"`
	Topic          string              `json:"topic"`
	AgentType      string              `json:"agent_type"`
	Configurations AgentConfigurations `json:"configurations"`
	StartFlag      bool                `json:"start_flag,omitempty"`
}

// AgentConfigurations carries the agent capabilities relevant for L2 population.
type AgentConfigurations struct {
	TunnelingIP string   `json:"tunneling_ip"`
	TunnelTypes []string `json:"tunnel_types"`
}
