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

package l2pop

import (
	"github.com/contiv/l2pop/plugins/l2pop/rpc"
)

const (
	defaultMessagingConnection = "l2pop"
)

var defaultSupportedAgentTypes = []string{"Open vSwitch agent", "Linux bridge agent"}

// Config holds the L2Pop configuration.
type Config struct {
	// SupportedAgentTypes lists agent types that participate in L2 population.
	SupportedAgentTypes []string `json:"supportedAgentTypes"`

	// TopicPrefix is the fanout topic and the prefix of per-host topics.
	TopicPrefix string `json:"topicPrefix"`

	// MessagingConnection is the name of the messaging connection.
	MessagingConnection string `json:"messagingConnection"`
}

// ApplyDefaults fills unset configuration fields with default values.
func (cfg *Config) ApplyDefaults() {
	if len(cfg.SupportedAgentTypes) == 0 {
		cfg.SupportedAgentTypes = append([]string(nil), defaultSupportedAgentTypes...)
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = rpc.DefaultTopicPrefix
	}
	if cfg.MessagingConnection == "" {
		cfg.MessagingConnection = defaultMessagingConnection
	}
}
