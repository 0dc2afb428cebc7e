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

package rpc

import (
	"sync"

	"github.com/ligato/cn-infra/logging"
	"github.com/ligato/cn-infra/messaging"
	"github.com/pkg/errors"

	"github.com/contiv/l2pop/plugins/l2pop/fdb"
)

// AgentNotifier publishes forwarding database updates into the fanout topic
// or into per-host cast topics. Messages are keyed by network ID.
type AgentNotifier struct {
	log         logging.Logger
	factory     PublisherFactory
	connection  string
	topicPrefix string

	sync.Mutex
	publishers map[string]messaging.ProtoPublisher
}

// NewAgentNotifier creates a notifier publishing through publishers created
// by the factory for the given connection.
func NewAgentNotifier(log logging.Logger, factory PublisherFactory, connection, topicPrefix string) *AgentNotifier {
	if topicPrefix == "" {
		topicPrefix = DefaultTopicPrefix
	}
	return &AgentNotifier{
		log:         log,
		factory:     factory,
		connection:  connection,
		topicPrefix: topicPrefix,
		publishers:  make(map[string]messaging.ProtoPublisher),
	}
}

// FanoutTopic returns the topic all agents listen on.
func (n *AgentNotifier) FanoutTopic() string {
	return n.topicPrefix
}

// CastTopic returns the topic the agent of the given host listens on.
func (n *AgentNotifier) CastTopic(host string) string {
	return n.topicPrefix + "." + host
}

// Unicast sends the delta to the agent of the given host.
func (n *AgentNotifier) Unicast(host string, delta *fdb.Delta) error {
	return n.notify(n.CastTopic(host), delta)
}

// Broadcast sends the delta to all agents.
func (n *AgentNotifier) Broadcast(delta *fdb.Delta) error {
	return n.notify(n.FanoutTopic(), delta)
}

func (n *AgentNotifier) notify(topic string, delta *fdb.Delta) error {
	var failures []PublishFailure
	for _, call := range []struct {
		method  string
		entries fdb.AgentEntries
	}{
		{RemoveFDBEntries, delta.Remove},
		{AddFDBEntries, delta.Add},
	} {
		if len(call.entries) == 0 {
			continue
		}
		msg := NewMessage(call.method, delta, call.entries)
		if err := n.publish(topic, delta.NetworkID, msg); err != nil {
			n.log.Warnf("Failed to publish %s into %s: %v", call.method, topic, err)
			failures = append(failures, PublishFailure{Topic: topic, Method: call.method, Error: err})
			continue
		}
		n.log.Debugf("Published into %s: %v", topic, msg)
	}
	if len(failures) > 0 {
		return NewDeliveryError(failures...)
	}
	return nil
}

func (n *AgentNotifier) publish(topic, key string, msg *Message) error {
	publisher, err := n.publisher(topic)
	if err != nil {
		return err
	}
	return publisher.Put(key, msg)
}

func (n *AgentNotifier) publisher(topic string) (messaging.ProtoPublisher, error) {
	n.Lock()
	defer n.Unlock()
	if publisher, cached := n.publishers[topic]; cached {
		return publisher, nil
	}
	publisher, err := n.factory.NewSyncPublisher(n.connection, topic)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create publisher for topic %s", topic)
	}
	n.publishers[topic] = publisher
	return publisher, nil
}
