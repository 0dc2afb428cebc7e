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

import (
	"time"

	"github.com/contiv/l2pop/plugins/agentdb/model"
)

// API defines methods provided by the AgentDB plugin for use by other plugins.
// Returned agents are shared with the registry and must not be modified.
type API interface {
	// ReportState registers or refreshes an agent from its state report
	// received at the given time. Lifecycle handlers are notified when
	// the agent came up, restarted or changed its tunnel configuration.
	// The heartbeat of a known agent never moves back in time.
	ReportState(state *model.AgentState, at time.Time) (Transition, error)

	// GetAgent returns the registry record of the agent running on the host.
	GetAgent(host string) (agent *model.Agent, found bool)

	// IsAlive returns true if the last heartbeat of the agent is not older
	// than the configured agent down time.
	IsAlive(agent *model.Agent) bool

	// ListAgents returns all registered agents sorted by host.
	ListAgents() []*model.Agent

	// LookupAgentsByType returns hosts of agents of the given type.
	LookupAgentsByType(agentType string) (hosts []string)

	// LookupAgentsByTunnelIP returns hosts of agents with the given tunnel IP.
	LookupAgentsByTunnelIP(tunnelIP string) (hosts []string)

	// DeleteAgent removes the agent from the registry. Lifecycle handlers
	// are notified that the agent went down.
	DeleteAgent(host string) (found bool, err error)

	// RegisterLifecycleHandler subscribes the handler to agent up/down
	// transitions.
	RegisterLifecycleHandler(subscriber string, handler LifecycleHandler)
}

// LifecycleHandler is notified about agents coming up and going down.
type LifecycleHandler interface {
	// OnAgentUp is called when an agent became alive or restarted.
	OnAgentUp(host string) error

	// OnAgentReconfigured is called when an alive agent changed its type
	// or tunnel configuration.
	OnAgentReconfigured(host string) error

	// OnAgentDown is called when an agent stopped reporting or was deleted.
	OnAgentDown(host string) error
}

// Transition classifies the effect of a state report.
type Transition int

const (
	// NoChange is a heartbeat of an alive agent with unchanged configuration.
	NoChange Transition = iota

	// AgentUp is the first report of a new agent or of an agent considered dead.
	AgentUp

	// AgentRestarted is a report carrying the start flag.
	AgentRestarted

	// AgentReconfigured is a report that changed the agent type or tunnel
	// configuration.
	AgentReconfigured
)

// String returns human-readable name of the transition.
func (t Transition) String() string {
	switch t {
	case NoChange:
		return "no-change"
	case AgentUp:
		return "agent-up"
	case AgentRestarted:
		return "agent-restarted"
	case AgentReconfigured:
		return "agent-reconfigured"
	}
	return "unknown"
}
