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

package netstore

import (
	"sort"
	"strings"
	"sync"

	"github.com/ligato/cn-infra/db/keyval"
	"github.com/ligato/cn-infra/idxmap"
	"github.com/ligato/cn-infra/idxmap/mem"
	"github.com/ligato/cn-infra/infra"
	"github.com/ligato/cn-infra/rpc/rest"
	"github.com/pkg/errors"

	"github.com/contiv/l2pop/plugins/netstore/model"
)

const (
	networkIDKey   = "networkIDKey"
	hostIDKey      = "hostIDKey"
	networkTypeKey = "networkTypeKey"

	tapDevicePrefix = "tap"
)

// NetStore keeps networks and ports in indexed in-memory maps, optionally
// persisted into a KV-store.
type NetStore struct {
	Deps

	broker   keyval.ProtoBroker
	networks idxmap.NamedMappingRW
	ports    idxmap.NamedMappingRW

	// serializes read-modify-write operations
	sync.Mutex

	handlersLock sync.RWMutex
	handlers     map[string]PortHandler
}

// Deps groups the dependencies of the NetStore plugin.
type Deps struct {
	infra.PluginDeps

	// KVStore is used to persist networks and ports, can be nil
	KVStore KVBrokerFactory

	// HTTPHandlers are used to expose the REST API, can be nil
	HTTPHandlers rest.HTTPHandlers
}

// KVBrokerFactory is used to generalize different means of accessing KV-store.
type KVBrokerFactory interface {
	NewBroker(keyPrefix string) keyval.ProtoBroker
}

func kvStoreDisabled(kvStore KVBrokerFactory) bool {
	plugin, ok := kvStore.(interface{ Disabled() bool })
	return ok && plugin.Disabled()
}

// Init creates the indexes and loads persisted networks and ports.
func (s *NetStore) Init() error {
	s.handlers = make(map[string]PortHandler)
	s.networks = mem.NewNamedMapping(s.Log, "networks", NetworkIndexFunction)
	s.ports = mem.NewNamedMapping(s.Log, "ports", PortIndexFunction)

	if s.KVStore != nil && !kvStoreDisabled(s.KVStore) {
		s.broker = s.KVStore.NewBroker("")
	}
	if err := s.loadNetworks(); err != nil {
		return errors.Wrap(err, "failed to load persisted networks")
	}
	if err := s.loadPorts(); err != nil {
		return errors.Wrap(err, "failed to load persisted ports")
	}
	return nil
}

// AfterInit registers REST handlers.
func (s *NetStore) AfterInit() error {
	if s.HTTPHandlers != nil {
		s.registerHandlers(s.HTTPHandlers)
	}
	return nil
}

// Close does nothing.
func (s *NetStore) Close() error {
	return nil
}

// RegisterPortHandler subscribes the handler to port changes.
func (s *NetStore) RegisterPortHandler(subscriber string, handler PortHandler) {
	s.handlersLock.Lock()
	defer s.handlersLock.Unlock()
	s.handlers[subscriber] = handler
}

// PutNetwork creates or updates a network.
func (s *NetStore) PutNetwork(network *model.Network) error {
	if network == nil || network.ID == "" {
		return errors.New("network without ID")
	}
	network = &model.Network{
		ID:          network.ID,
		Name:        network.Name,
		NetworkType: network.NetworkType,
		SegmentID:   network.SegmentID,
	}
	s.Lock()
	defer s.Unlock()
	if err := s.persist(model.NetworkKey(network.ID), network); err != nil {
		return errors.Wrapf(err, "failed to persist network %s", network.ID)
	}
	s.networks.Put(network.ID, network)
	return nil
}

// GetNetwork returns the network with the given ID.
func (s *NetStore) GetNetwork(id string) (network *model.Network, found bool) {
	value, found := s.networks.GetValue(id)
	if !found {
		return nil, false
	}
	network, ok := value.(*model.Network)
	return network, ok
}

// DeleteNetwork removes a network without ports.
func (s *NetStore) DeleteNetwork(id string) (found bool, err error) {
	s.Lock()
	defer s.Unlock()
	if len(s.ports.ListNames(networkIDKey, id)) > 0 {
		return true, ErrNetworkInUse
	}
	value, found := s.networks.Delete(id)
	if !found {
		return false, nil
	}
	if err = s.removePersisted(model.NetworkKey(id)); err != nil {
		s.networks.Put(id, value)
		return true, errors.Wrapf(err, "failed to remove persisted network %s", id)
	}
	return true, nil
}

// ListNetworks returns all networks sorted by ID.
func (s *NetStore) ListNetworks() []*model.Network {
	ids := s.networks.ListAllNames()
	sort.Strings(ids)
	var networks []*model.Network
	for _, id := range ids {
		if network, found := s.GetNetwork(id); found {
			networks = append(networks, network)
		}
	}
	return networks
}

// PutPort creates or updates a port and notifies port handlers.
func (s *NetStore) PutPort(port *model.Port) (prev *model.Port, err error) {
	if port == nil || port.ID == "" {
		return nil, errors.New("port without ID")
	}
	if port.NetworkID == "" {
		return nil, errors.Errorf("port %s without network", port.ID)
	}
	port = port.Copy()
	if port.Status == "" {
		port.Status = model.PortStatusDown
	}

	s.Lock()
	prev, _ = s.GetPort(port.ID)
	if err = s.persist(model.PortKey(port.ID), port); err != nil {
		s.Unlock()
		return nil, errors.Wrapf(err, "failed to persist port %s", port.ID)
	}
	s.ports.Put(port.ID, port)
	s.Unlock()

	for _, handler := range s.portHandlers() {
		if err := handler.OnPortUpdate(prev, port); err != nil {
			s.Log.Warnf("Failed to handle update of port %s: %v", port.ID, err)
		}
	}
	return prev, nil
}

// GetPort returns the port with the given ID.
func (s *NetStore) GetPort(id string) (port *model.Port, found bool) {
	value, found := s.ports.GetValue(id)
	if !found {
		return nil, false
	}
	port, ok := value.(*model.Port)
	return port, ok
}

// DeletePort removes a port and notifies port handlers.
func (s *NetStore) DeletePort(id string) (port *model.Port, found bool, err error) {
	s.Lock()
	value, found := s.ports.Delete(id)
	if !found {
		s.Unlock()
		return nil, false, nil
	}
	if err = s.removePersisted(model.PortKey(id)); err != nil {
		s.ports.Put(id, value)
		s.Unlock()
		return nil, true, errors.Wrapf(err, "failed to remove persisted port %s", id)
	}
	s.Unlock()

	port, ok := value.(*model.Port)
	if !ok {
		return nil, true, errors.Errorf("unknown data stored for port %s", id)
	}
	for _, handler := range s.portHandlers() {
		if err := handler.OnPortDelete(port); err != nil {
			s.Log.Warnf("Failed to handle removal of port %s: %v", port.ID, err)
		}
	}
	return port, true, nil
}

// LookupPortByDevice resolves a port ID or a tap device name.
func (s *NetStore) LookupPortByDevice(device string) (port *model.Port, found bool) {
	if port, found = s.GetPort(device); found {
		return port, true
	}
	if !strings.HasPrefix(device, tapDevicePrefix) || len(device) == len(tapDevicePrefix) {
		return nil, false
	}
	prefix := strings.TrimPrefix(device, tapDevicePrefix)
	var match string
	for _, id := range s.ports.ListAllNames() {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if match != "" {
			s.Log.Warnf("Device %s matches multiple ports (%s, %s)", device, match, id)
			return nil, false
		}
		match = id
	}
	if match == "" {
		return nil, false
	}
	return s.GetPort(match)
}

// UpdatePortStatus sets the status of the port.
func (s *NetStore) UpdatePortStatus(id, status string) (prevStatus string, err error) {
	s.Lock()
	defer s.Unlock()
	port, found := s.GetPort(id)
	if !found {
		return "", ErrPortNotFound
	}
	if port.Status == status {
		return status, nil
	}
	updated := port.Copy()
	updated.Status = status
	if err = s.persist(model.PortKey(id), updated); err != nil {
		return port.Status, errors.Wrapf(err, "failed to persist status of port %s", id)
	}
	s.ports.Put(id, updated)
	return port.Status, nil
}

// ListNetworkPorts returns ports attached to the network sorted by ID.
func (s *NetStore) ListNetworkPorts(networkID string) []*model.Port {
	return s.lookupPorts(s.ports.ListNames(networkIDKey, networkID))
}

// ListHostPorts returns ports bound to the host sorted by ID.
func (s *NetStore) ListHostPorts(host string) []*model.Port {
	if host == "" {
		return nil
	}
	return s.lookupPorts(s.ports.ListNames(hostIDKey, host))
}

// ListActivePorts returns bound, administratively up and ACTIVE ports
// of the network, sorted by ID.
func (s *NetStore) ListActivePorts(networkID, excludeHost string) []*model.Port {
	var active []*model.Port
	for _, port := range s.ListNetworkPorts(networkID) {
		if !port.IsBound() || port.HostID == excludeHost {
			continue
		}
		if !port.AdminStateUp || port.Status != model.PortStatusActive {
			continue
		}
		active = append(active, port)
	}
	return active
}

func (s *NetStore) lookupPorts(ids []string) []*model.Port {
	sort.Strings(ids)
	var ports []*model.Port
	for _, id := range ids {
		if port, found := s.GetPort(id); found {
			ports = append(ports, port)
		}
	}
	return ports
}

func (s *NetStore) portHandlers() []PortHandler {
	s.handlersLock.RLock()
	defer s.handlersLock.RUnlock()
	var names []string
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	var handlers []PortHandler
	for _, name := range names {
		handlers = append(handlers, s.handlers[name])
	}
	return handlers
}

// PortIndexFunction creates secondary indexes for network and host.
func PortIndexFunction(data interface{}) map[string][]string {
	res := map[string][]string{}
	if port, ok := data.(*model.Port); ok && port != nil {
		res[networkIDKey] = []string{port.NetworkID}
		if port.HostID != "" {
			res[hostIDKey] = []string{port.HostID}
		}
	}
	return res
}

// NetworkIndexFunction creates secondary index for network type.
func NetworkIndexFunction(data interface{}) map[string][]string {
	res := map[string][]string{}
	if network, ok := data.(*model.Network); ok && network != nil {
		res[networkTypeKey] = []string{network.NetworkType}
	}
	return res
}
