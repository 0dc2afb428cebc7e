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

// Package rpc delivers forwarding database updates to switch agents.
package rpc

import (
	"github.com/ligato/cn-infra/messaging"

	"github.com/contiv/l2pop/plugins/l2pop/fdb"
)

// DefaultTopicPrefix is the default fanout topic, the cast topic of a host
// is "<prefix>.<host>".
const DefaultTopicPrefix = "q-agent-notifier-l2population-update"

// Notifier sends forwarding database updates to agents. Within one call,
// removals are always delivered before additions.
type Notifier interface {
	// Unicast sends the delta to the agent of the given host only.
	Unicast(host string, delta *fdb.Delta) error

	// Broadcast sends the delta to all agents.
	Broadcast(delta *fdb.Delta) error
}

// PublisherFactory creates publishers of messages into a topic.
// It is satisfied by the Kafka messaging plugin.
type PublisherFactory interface {
	NewSyncPublisher(connectionName string, topic string) (messaging.ProtoPublisher, error)
}
