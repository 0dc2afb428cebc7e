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
	"github.com/pkg/errors"

	"github.com/contiv/l2pop/plugins/netstore/model"
)

var (
	// ErrNetworkNotFound is returned for operations on unknown networks.
	ErrNetworkNotFound = errors.New("network not found")

	// ErrNetworkInUse is returned when deleting a network that still has ports.
	ErrNetworkInUse = errors.New("network has ports")

	// ErrPortNotFound is returned for operations on unknown ports.
	ErrPortNotFound = errors.New("port not found")
)

// API defines methods provided by the NetStore plugin for use by other plugins.
// Returned networks and ports are shared with the store and must not be
// modified, updates always go through Put* methods.
type API interface {
	// PutNetwork creates or updates a network.
	PutNetwork(network *model.Network) error

	// GetNetwork returns the network with the given ID.
	GetNetwork(id string) (network *model.Network, found bool)

	// DeleteNetwork removes a network without ports.
	DeleteNetwork(id string) (found bool, err error)

	// ListNetworks returns all networks sorted by ID.
	ListNetworks() []*model.Network

	// PutPort creates or updates a port and notifies port handlers.
	PutPort(port *model.Port) (prev *model.Port, err error)

	// GetPort returns the port with the given ID.
	GetPort(id string) (port *model.Port, found bool)

	// DeletePort removes a port and notifies port handlers.
	DeletePort(id string) (port *model.Port, found bool, err error)

	// LookupPortByDevice resolves a device reference which is either
	// a port ID or a tap device name ("tap" + port ID prefix).
	LookupPortByDevice(device string) (port *model.Port, found bool)

	// UpdatePortStatus sets the status of the port. Port handlers are not
	// notified, status transitions are driven by the device events themselves.
	UpdatePortStatus(id, status string) (prevStatus string, err error)

	// ListNetworkPorts returns ports attached to the network sorted by ID.
	ListNetworkPorts(networkID string) []*model.Port

	// ListHostPorts returns ports bound to the host sorted by ID.
	ListHostPorts(host string) []*model.Port

	// ListActivePorts returns ports of the network that are bound,
	// administratively up and ACTIVE, sorted by ID. Ports bound
	// to excludeHost are left out.
	ListActivePorts(networkID, excludeHost string) []*model.Port

	// RegisterPortHandler subscribes the handler to port changes.
	RegisterPortHandler(subscriber string, handler PortHandler)
}

// PortHandler is notified about created, updated and deleted ports.
type PortHandler interface {
	// OnPortUpdate is called after a port was created or updated,
	// prev is nil for a new port.
	OnPortUpdate(prev, port *model.Port) error

	// OnPortDelete is called after a port was deleted.
	OnPortDelete(port *model.Port) error
}
