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
	"github.com/contiv/l2pop/plugins/l2pop/fdb"
	netmodel "github.com/contiv/l2pop/plugins/netstore/model"
)

// API defines methods provided by the L2Pop plugin. Every event recomputes
// the forwarding database of the affected networks and notifies agents about
// the difference from the previously computed state. Returned errors are
// either store errors or delivery errors (see rpc.IsDeliveryError); failed
// deliveries are not retried, the next Resync or agent restart reconciles.
type API interface {
	// OnDeviceUp marks the port referenced by device as ACTIVE, provided it
	// is bound to the host reporting it.
	OnDeviceUp(host, device string) error

	// OnDeviceDown marks the port referenced by device as DOWN, provided it
	// is bound to the host reporting it.
	OnDeviceDown(host, device string) error

	// OnPortUpdate handles a created or updated port (binding, admin state).
	OnPortUpdate(prev, port *netmodel.Port) error

	// OnPortDelete handles a deleted port.
	OnPortDelete(port *netmodel.Port) error

	// OnAgentUp handles an agent that came up or restarted. The agent is
	// sent the complete forwarding database of every network it
	// participates in.
	OnAgentUp(host string) error

	// OnAgentReconfigured handles an alive agent that changed its type or
	// tunnel configuration. Agents only receive the difference.
	OnAgentReconfigured(host string) error

	// OnAgentDown handles an agent that is gone. Its entries are withdrawn
	// from all other agents.
	OnAgentDown(host string) error

	// Resync recomputes all networks.
	Resync() error

	// GetFDB returns the last computed view of the network.
	GetFDB(networkID string) (view *fdb.View, found bool)

	// ListFDB returns the last computed views of all networks sorted by ID.
	ListFDB() []*fdb.View
}
