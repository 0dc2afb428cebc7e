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
	"sort"
	"sync"
	"time"

	"github.com/ligato/cn-infra/db/keyval"
	"github.com/ligato/cn-infra/idxmap"
	"github.com/ligato/cn-infra/idxmap/mem"
	"github.com/ligato/cn-infra/infra"
	"github.com/ligato/cn-infra/rpc/rest"
	"github.com/pkg/errors"

	"github.com/contiv/l2pop/plugins/agentdb/model"
)

const (
	agentTypeKey = "agentTypeKey"
	tunnelIPKey  = "tunnelIPKey"
)

// AgentDB is the registry of switch agents. It tracks agent capabilities
// and liveness derived from periodic state reports.
type AgentDB struct {
	Deps

	config  *Config
	broker  keyval.ProtoBroker
	mapping idxmap.NamedMappingRW

	// serializes read-modify-write of agent records and liveness bookkeeping
	sync.Mutex
	alive map[string]bool // liveness observed by the last report or sweep

	handlersLock sync.RWMutex
	handlers     map[string]LifecycleHandler

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Deps groups the dependencies of the AgentDB plugin.
type Deps struct {
	infra.PluginDeps

	// KVStore is used to persist agent records, can be nil
	KVStore KVBrokerFactory

	// HTTPHandlers are used to expose the REST API, can be nil
	HTTPHandlers rest.HTTPHandlers

	// Clock returns the current time, defaults to time.Now
	Clock func() time.Time
}

// KVBrokerFactory is used to generalize different means of accessing KV-store.
type KVBrokerFactory interface {
	NewBroker(keyPrefix string) keyval.ProtoBroker
}

func kvStoreDisabled(kvStore KVBrokerFactory) bool {
	plugin, ok := kvStore.(interface{ Disabled() bool })
	return ok && plugin.Disabled()
}

// Init loads the configuration and persisted agents.
func (db *AgentDB) Init() error {
	if db.config == nil {
		db.config = &Config{}
		if _, err := db.Cfg.LoadValue(db.config); err != nil {
			return errors.Wrapf(err, "failed to load %s configuration", db.String())
		}
	}
	db.config.ApplyDefaults()
	db.Log.Infof("AgentDB configuration: %+v", *db.config)

	if db.Clock == nil {
		db.Clock = time.Now
	}
	db.alive = make(map[string]bool)
	db.handlers = make(map[string]LifecycleHandler)
	db.closeCh = make(chan struct{})
	db.mapping = mem.NewNamedMapping(db.Log, "agentdb", IndexFunction)

	if db.KVStore != nil && !kvStoreDisabled(db.KVStore) {
		db.broker = db.KVStore.NewBroker("")
	}
	if err := db.loadAgents(); err != nil {
		return errors.Wrap(err, "failed to load persisted agents")
	}
	return nil
}

// AfterInit registers REST handlers and starts the liveness sweeper.
func (db *AgentDB) AfterInit() error {
	if db.HTTPHandlers != nil {
		db.registerHandlers(db.HTTPHandlers)
	}
	db.wg.Add(1)
	go db.livenessLoop()
	return nil
}

// Close stops the liveness sweeper.
func (db *AgentDB) Close() error {
	if db.closeCh != nil {
		close(db.closeCh)
		db.wg.Wait()
	}
	return nil
}

// RegisterLifecycleHandler subscribes the handler to agent up/down transitions.
func (db *AgentDB) RegisterLifecycleHandler(subscriber string, handler LifecycleHandler) {
	db.handlersLock.Lock()
	defer db.handlersLock.Unlock()
	db.handlers[subscriber] = handler
}

// ReportState registers or refreshes an agent from its state report.
func (db *AgentDB) ReportState(state *model.AgentState, at time.Time) (Transition, error) {
	if state == nil || state.Host == "" {
		return NoChange, errors.New("agent state report without host")
	}
	if at.IsZero() {
		at = db.Clock()
	}

	db.Lock()
	now := db.Clock()
	prev, found := db.lookupAgent(state.Host)
	agent := &model.Agent{
		Host:               state.Host,
		AgentType:          state.AgentType,
		Binary:             state.Binary,
		Topic:              state.Topic,
		TunnelIP:           state.Configurations.TunnelingIP,
		TunnelTypes:        append([]string(nil), state.Configurations.TunnelTypes...),
		HeartbeatTimestamp: at.UnixNano(),
		StartedAt:          at.UnixNano(),
		AdminStateUp:       true,
	}
	if found {
		agent.AdminStateUp = prev.AdminStateUp
		if !state.StartFlag {
			agent.StartedAt = prev.StartedAt
		}
		if prev.HeartbeatTimestamp > agent.HeartbeatTimestamp {
			// delayed report
			agent.HeartbeatTimestamp = prev.HeartbeatTimestamp
		}
	}

	transition := NoChange
	switch {
	case !found || !db.alive[state.Host] || !db.isAliveAt(prev, now):
		transition = AgentUp
	case state.StartFlag:
		transition = AgentRestarted
	case reconfigured(prev, agent):
		transition = AgentReconfigured
	}

	if err := db.persistAgent(agent); err != nil {
		db.Unlock()
		return NoChange, errors.Wrapf(err, "failed to persist agent %s", agent.Host)
	}
	db.mapping.Put(agent.Host, agent)
	db.alive[agent.Host] = db.isAliveAt(agent, now)
	if !db.alive[agent.Host] {
		// stale report, the agent stays down
		transition = NoChange
	}
	db.Unlock()

	if transition != NoChange {
		db.Log.Infof("Agent %s (%s, tunnel IP %s): %s",
			agent.Host, agent.AgentType, agent.TunnelIP, transition)
		if transition == AgentReconfigured {
			db.notifyReconfigured(agent.Host)
		} else {
			db.notifyUp(agent.Host)
		}
	}
	return transition, nil
}

// GetAgent returns the registry record of the agent running on the host.
func (db *AgentDB) GetAgent(host string) (agent *model.Agent, found bool) {
	return db.lookupAgent(host)
}

// IsAlive returns true if the last heartbeat of the agent is recent enough.
func (db *AgentDB) IsAlive(agent *model.Agent) bool {
	return db.isAliveAt(agent, db.Clock())
}

// ListAgents returns all registered agents sorted by host.
func (db *AgentDB) ListAgents() []*model.Agent {
	hosts := db.mapping.ListAllNames()
	sort.Strings(hosts)
	var agents []*model.Agent
	for _, host := range hosts {
		if agent, found := db.lookupAgent(host); found {
			agents = append(agents, agent)
		}
	}
	return agents
}

// LookupAgentsByType returns hosts of agents of the given type.
func (db *AgentDB) LookupAgentsByType(agentType string) (hosts []string) {
	hosts = db.mapping.ListNames(agentTypeKey, agentType)
	sort.Strings(hosts)
	return hosts
}

// LookupAgentsByTunnelIP returns hosts of agents with the given tunnel IP.
func (db *AgentDB) LookupAgentsByTunnelIP(tunnelIP string) (hosts []string) {
	hosts = db.mapping.ListNames(tunnelIPKey, tunnelIP)
	sort.Strings(hosts)
	return hosts
}

// DeleteAgent removes the agent from the registry.
func (db *AgentDB) DeleteAgent(host string) (found bool, err error) {
	db.Lock()
	value, found := db.mapping.Delete(host)
	if !found {
		db.Unlock()
		return false, nil
	}
	if err = db.removePersistedAgent(host); err != nil {
		db.mapping.Put(host, value)
		db.Unlock()
		return true, errors.Wrapf(err, "failed to remove persisted agent %s", host)
	}
	wasAlive := db.alive[host]
	delete(db.alive, host)
	db.Unlock()

	db.Log.Infof("Agent %s was deleted", host)
	if wasAlive {
		db.notifyDown(host)
	}
	return true, nil
}

func (db *AgentDB) lookupAgent(host string) (*model.Agent, bool) {
	value, found := db.mapping.GetValue(host)
	if !found {
		return nil, false
	}
	agent, ok := value.(*model.Agent)
	return agent, ok
}

func (db *AgentDB) isAliveAt(agent *model.Agent, now time.Time) bool {
	if agent == nil {
		return false
	}
	return now.Sub(time.Unix(0, agent.HeartbeatTimestamp)) <= db.config.agentDownTime()
}

func (db *AgentDB) lifecycleHandlers() []LifecycleHandler {
	db.handlersLock.RLock()
	defer db.handlersLock.RUnlock()
	var names []string
	for name := range db.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	var handlers []LifecycleHandler
	for _, name := range names {
		handlers = append(handlers, db.handlers[name])
	}
	return handlers
}

func (db *AgentDB) notifyUp(host string) {
	for _, handler := range db.lifecycleHandlers() {
		if err := handler.OnAgentUp(host); err != nil {
			db.Log.Warnf("Failed to handle agent %s coming up: %v", host, err)
		}
	}
}

func (db *AgentDB) notifyReconfigured(host string) {
	for _, handler := range db.lifecycleHandlers() {
		if err := handler.OnAgentReconfigured(host); err != nil {
			db.Log.Warnf("Failed to handle reconfiguration of agent %s: %v", host, err)
		}
	}
}

func (db *AgentDB) notifyDown(host string) {
	for _, handler := range db.lifecycleHandlers() {
		if err := handler.OnAgentDown(host); err != nil {
			db.Log.Warnf("Failed to handle agent %s going down: %v", host, err)
		}
	}
}

func reconfigured(prev, next *model.Agent) bool {
	if prev.AgentType != next.AgentType || prev.TunnelIP != next.TunnelIP {
		return true
	}
	if len(prev.TunnelTypes) != len(next.TunnelTypes) {
		return true
	}
	for i := range prev.TunnelTypes {
		if prev.TunnelTypes[i] != next.TunnelTypes[i] {
			return true
		}
	}
	return false
}

// IndexFunction creates secondary indexes for agent type and tunnel IP.
func IndexFunction(data interface{}) map[string][]string {
	res := map[string][]string{}
	if agent, ok := data.(*model.Agent); ok && agent != nil {
		res[agentTypeKey] = []string{agent.AgentType}
		if agent.TunnelIP != "" {
			res[tunnelIPKey] = []string{agent.TunnelIP}
		}
	}
	return res
}
