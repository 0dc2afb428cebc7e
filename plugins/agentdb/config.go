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

package agentdb

import "time"

const (
	defaultAgentDownTime = 75
)

// Config holds the AgentDB configuration.
type Config struct {
	// AgentDownTime is the number of seconds since the last heartbeat
	// after which an agent is considered dead.
	AgentDownTime uint32 `json:"agentDownTime"`

	// LivenessCheckInterval is the period of the liveness sweep in seconds.
	// Defaults to half of AgentDownTime.
	LivenessCheckInterval uint32 `json:"livenessCheckInterval"`
}

// ApplyDefaults fills unset configuration fields with default values.
func (cfg *Config) ApplyDefaults() {
	if cfg.AgentDownTime == 0 {
		cfg.AgentDownTime = defaultAgentDownTime
	}
	if cfg.LivenessCheckInterval == 0 {
		cfg.LivenessCheckInterval = cfg.AgentDownTime / 2
		if cfg.LivenessCheckInterval == 0 {
			cfg.LivenessCheckInterval = 1
		}
	}
}

func (cfg *Config) agentDownTime() time.Duration {
	return time.Duration(cfg.AgentDownTime) * time.Second
}

func (cfg *Config) livenessCheckInterval() time.Duration {
	return time.Duration(cfg.LivenessCheckInterval) * time.Second
}
