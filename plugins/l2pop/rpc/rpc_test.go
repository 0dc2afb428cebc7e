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
	"testing"

	"github.com/go-errors/errors"
	"github.com/golang/protobuf/jsonpb"
	"github.com/gogo/protobuf/proto"
	"github.com/ligato/cn-infra/datasync"
	"github.com/ligato/cn-infra/logging/logrus"
	"github.com/ligato/cn-infra/messaging"
	. "github.com/onsi/gomega"

	"github.com/contiv/l2pop/plugins/l2pop/fdb"
)

type published struct {
	topic string
	key   string
	msg   *Message
}

type fakeMessaging struct {
	sync.Mutex
	created    map[string]int
	messages   []published
	failTopics map[string]error
	factoryErr error
}

func newFakeMessaging() *fakeMessaging {
	return &fakeMessaging{created: map[string]int{}, failTopics: map[string]error{}}
}

func (m *fakeMessaging) NewSyncPublisher(connectionName string, topic string) (messaging.ProtoPublisher, error) {
	m.Lock()
	defer m.Unlock()
	if m.factoryErr != nil {
		return nil, m.factoryErr
	}
	m.created[topic]++
	return &fakePublisher{messaging: m, topic: topic}, nil
}

type fakePublisher struct {
	messaging *fakeMessaging
	topic     string
}

func (p *fakePublisher) Put(key string, data proto.Message, opts ...datasync.PutOption) error {
	m := p.messaging
	m.Lock()
	defer m.Unlock()
	if err := m.failTopics[p.topic]; err != nil {
		return err
	}
	m.messages = append(m.messages, published{topic: p.topic, key: key, msg: data.(*Message)})
	return nil
}

var (
	entry1 = fdb.Entry{MAC: "fa:16:3e:00:00:01", IP: "10.0.0.1"}
	entry2 = fdb.Entry{MAC: "fa:16:3e:00:00:02", IP: "10.0.0.2"}
)

func testDelta(add, remove fdb.AgentEntries) *fdb.Delta {
	return &fdb.Delta{
		NetworkID:   "net-1",
		NetworkType: "vxlan",
		SegmentID:   1001,
		Add:         add,
		Remove:      remove,
	}
}

func TestMessageJSON(t *testing.T) {
	RegisterTestingT(t)

	msg := NewMessage(AddFDBEntries, testDelta(nil, nil), fdb.AgentEntries{
		"20.0.0.1": {fdb.FloodingEntry, entry1},
	})
	expected := `{"method": "add_fdb_entries", "args": {"fdb_entries": {"net-1": {
		"network_type": "vxlan", "segment_id": 1001,
		"ports": {"20.0.0.1": [["00:00:00:00:00:00", "0.0.0.0"], ["fa:16:3e:00:00:01", "10.0.0.1"]]}}}}}`
	Expect(msg.String()).To(MatchJSON(expected))

	marshaler := &jsonpb.Marshaler{}
	data, err := marshaler.MarshalToString(msg)
	Expect(err).ToNot(HaveOccurred())
	Expect(data).To(MatchJSON(expected))

	decoded := &Message{}
	Expect(jsonpb.UnmarshalString(expected, decoded)).To(Succeed())
	Expect(decoded).To(Equal(msg))
}

func TestBroadcastOrder(t *testing.T) {
	RegisterTestingT(t)

	m := newFakeMessaging()
	notifier := NewAgentNotifier(logrus.DefaultLogger(), m, "l2pop", "")

	err := notifier.Broadcast(testDelta(
		fdb.AgentEntries{"20.0.0.2": {entry2}},
		fdb.AgentEntries{"20.0.0.1": {entry1}},
	))
	Expect(err).ToNot(HaveOccurred())
	Expect(m.messages).To(HaveLen(2))
	Expect(m.messages[0].topic).To(Equal(DefaultTopicPrefix))
	Expect(m.messages[0].key).To(Equal("net-1"))
	Expect(m.messages[0].msg.Method).To(Equal(RemoveFDBEntries))
	Expect(m.messages[0].msg.Args.FDBEntries["net-1"].Ports).To(Equal(fdb.AgentEntries{"20.0.0.1": {entry1}}))
	Expect(m.messages[1].msg.Method).To(Equal(AddFDBEntries))
	Expect(m.messages[1].msg.Args.FDBEntries["net-1"].Ports).To(Equal(fdb.AgentEntries{"20.0.0.2": {entry2}}))

	// only additions
	m.messages = nil
	Expect(notifier.Broadcast(testDelta(fdb.AgentEntries{"20.0.0.2": {entry2}}, nil))).To(Succeed())
	Expect(m.messages).To(HaveLen(1))
	Expect(m.messages[0].msg.Method).To(Equal(AddFDBEntries))

	// nothing to send
	m.messages = nil
	Expect(notifier.Broadcast(testDelta(fdb.AgentEntries{}, nil))).To(Succeed())
	Expect(m.messages).To(BeEmpty())

	// publisher is reused
	Expect(m.created).To(Equal(map[string]int{DefaultTopicPrefix: 1}))
}

func TestUnicastTopic(t *testing.T) {
	RegisterTestingT(t)

	m := newFakeMessaging()
	notifier := NewAgentNotifier(logrus.DefaultLogger(), m, "l2pop", "l2pop-update")
	Expect(notifier.FanoutTopic()).To(Equal("l2pop-update"))
	Expect(notifier.CastTopic("compute-1")).To(Equal("l2pop-update.compute-1"))

	Expect(notifier.Unicast("compute-1", testDelta(fdb.AgentEntries{"20.0.0.2": {entry2}}, nil))).To(Succeed())
	Expect(notifier.Unicast("compute-2", testDelta(fdb.AgentEntries{"20.0.0.1": {entry1}}, nil))).To(Succeed())
	Expect(notifier.Unicast("compute-1", testDelta(fdb.AgentEntries{"20.0.0.3": {entry2}}, nil))).To(Succeed())

	Expect(m.messages).To(HaveLen(3))
	Expect(m.messages[0].topic).To(Equal("l2pop-update.compute-1"))
	Expect(m.messages[1].topic).To(Equal("l2pop-update.compute-2"))
	Expect(m.created).To(Equal(map[string]int{"l2pop-update.compute-1": 1, "l2pop-update.compute-2": 1}))
}

func TestDeliveryError(t *testing.T) {
	RegisterTestingT(t)

	m := newFakeMessaging()
	notifier := NewAgentNotifier(logrus.DefaultLogger(), m, "l2pop", "")
	m.failTopics[DefaultTopicPrefix] = errors.New("broker unavailable")

	err := notifier.Broadcast(testDelta(
		fdb.AgentEntries{"20.0.0.2": {entry2}},
		fdb.AgentEntries{"20.0.0.1": {entry1}},
	))
	Expect(err).To(HaveOccurred())
	Expect(IsDeliveryError(err)).To(BeTrue())
	failures := err.(*DeliveryError).GetFailures()
	Expect(failures).To(HaveLen(2))
	Expect(failures[0].Method).To(Equal(RemoveFDBEntries))
	Expect(failures[1].Method).To(Equal(AddFDBEntries))
	Expect(failures[0].Topic).To(Equal(DefaultTopicPrefix))
	Expect(err.Error()).To(ContainSubstring("broker unavailable"))

	// cast topic still works
	Expect(notifier.Unicast("compute-1", testDelta(fdb.AgentEntries{"20.0.0.2": {entry2}}, nil))).To(Succeed())

	// publisher cannot be created
	m.factoryErr = errors.New("no connection")
	err = notifier.Unicast("compute-2", testDelta(fdb.AgentEntries{"20.0.0.2": {entry2}}, nil))
	Expect(IsDeliveryError(err)).To(BeTrue())
	Expect(err.Error()).To(ContainSubstring("no connection"))
}

func TestCombineErrors(t *testing.T) {
	RegisterTestingT(t)

	Expect(CombineErrors()).To(BeNil())
	Expect(CombineErrors(nil, nil)).To(BeNil())

	first := NewDeliveryError(PublishFailure{Topic: "a", Method: AddFDBEntries, Error: errors.New("e1")})
	second := NewDeliveryError(PublishFailure{Topic: "b", Method: RemoveFDBEntries, Error: errors.New("e2")})
	err := CombineErrors(first, nil, second, errors.New("other"))
	Expect(IsDeliveryError(err)).To(BeTrue())
	failures := err.(*DeliveryError).GetFailures()
	Expect(failures).To(HaveLen(3))
	Expect(failures[0].Topic).To(Equal("a"))
	Expect(failures[1].Topic).To(Equal("b"))
	Expect(failures[2].Topic).To(BeEmpty())

	var nilErr *DeliveryError
	Expect(nilErr.GetFailures()).To(BeNil())
	Expect(nilErr.Error()).To(BeEmpty())
	Expect(IsDeliveryError(errors.New("plain"))).To(BeFalse())
}
