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
	"sync"
	"testing"
	"time"

	"github.com/go-errors/errors"
	"github.com/ligato/cn-infra/logging"
	. "github.com/onsi/gomega"

	"github.com/contiv/l2pop/mock/broker"
	"github.com/contiv/l2pop/plugins/agentdb/model"
)

const (
	host1 = "compute-1"
	host2 = "compute-2"

	ovsAgent = "Open vSwitch agent"
)

type fakeClock struct {
	sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2019, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.Lock()
	defer c.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.Lock()
	defer c.Unlock()
	c.now = c.now.Add(d)
}

type lifecycleRecorder struct {
	sync.Mutex
	events []string
}

func (r *lifecycleRecorder) OnAgentUp(host string) error {
	r.Lock()
	defer r.Unlock()
	r.events = append(r.events, "up:"+host)
	return nil
}

func (r *lifecycleRecorder) OnAgentReconfigured(host string) error {
	r.Lock()
	defer r.Unlock()
	r.events = append(r.events, "reconfigured:"+host)
	return nil
}

func (r *lifecycleRecorder) OnAgentDown(host string) error {
	r.Lock()
	defer r.Unlock()
	r.events = append(r.events, "down:"+host)
	return nil
}

func (r *lifecycleRecorder) Events() []string {
	r.Lock()
	defer r.Unlock()
	events := r.events
	r.events = nil
	return events
}

func newTestAgentDB(clock *fakeClock, kvBroker *broker.MockBroker) *AgentDB {
	db := NewPlugin(UseDeps(func(deps *Deps) {
		deps.Log = logging.ForPlugin("agentdb-test")
		deps.HTTPHandlers = nil
		deps.KVStore = nil
		if kvBroker != nil {
			deps.KVStore = &broker.Factory{Broker: kvBroker}
		}
		deps.Clock = clock.Now
	}), UseConf(Config{AgentDownTime: 75}))
	Expect(db.Init()).To(Succeed())
	return db
}

func agentState(host, tunnelIP string, tunnelTypes ...string) *model.AgentState {
	return &model.AgentState{
		Binary:    "neutron-openvswitch-agent",
		Host:      host,
		Topic:     "N/A",
		AgentType: ovsAgent,
		Configurations: model.AgentConfigurations{
			TunnelingIP: tunnelIP,
			TunnelTypes: tunnelTypes,
		},
	}
}

func TestReportStateTransitions(t *testing.T) {
	RegisterTestingT(t)

	clock := newFakeClock()
	db := newTestAgentDB(clock, nil)
	recorder := &lifecycleRecorder{}
	db.RegisterLifecycleHandler("test", recorder)

	// first report
	transition, err := db.ReportState(agentState(host1, "20.0.0.1", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())
	Expect(transition).To(Equal(AgentUp))
	Expect(recorder.Events()).To(Equal([]string{"up:" + host1}))

	agent, found := db.GetAgent(host1)
	Expect(found).To(BeTrue())
	Expect(agent.TunnelIP).To(Equal("20.0.0.1"))
	Expect(agent.TunnelTypes).To(Equal([]string{"vxlan"}))
	Expect(agent.AdminStateUp).To(BeTrue())
	Expect(db.IsAlive(agent)).To(BeTrue())
	startedAt := agent.StartedAt

	// heartbeat
	clock.Advance(30 * time.Second)
	transition, err = db.ReportState(agentState(host1, "20.0.0.1", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())
	Expect(transition).To(Equal(NoChange))
	Expect(recorder.Events()).To(BeEmpty())
	agent, _ = db.GetAgent(host1)
	Expect(agent.StartedAt).To(Equal(startedAt))
	Expect(agent.HeartbeatTimestamp).To(Equal(clock.Now().UnixNano()))

	// restart
	clock.Advance(30 * time.Second)
	state := agentState(host1, "20.0.0.1", "vxlan")
	state.StartFlag = true
	transition, err = db.ReportState(state, clock.Now())
	Expect(err).ToNot(HaveOccurred())
	Expect(transition).To(Equal(AgentRestarted))
	Expect(recorder.Events()).To(Equal([]string{"up:" + host1}))
	agent, _ = db.GetAgent(host1)
	Expect(agent.StartedAt).To(Equal(clock.Now().UnixNano()))

	// tunnel configuration change
	transition, err = db.ReportState(agentState(host1, "20.0.0.11", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())
	Expect(transition).To(Equal(AgentReconfigured))
	Expect(recorder.Events()).To(Equal([]string{"reconfigured:" + host1}))

	// report after the agent was considered dead
	clock.Advance(80 * time.Second)
	transition, err = db.ReportState(agentState(host1, "20.0.0.11", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())
	Expect(transition).To(Equal(AgentUp))
	Expect(recorder.Events()).To(Equal([]string{"up:" + host1}))
}

func TestReportStateInvalid(t *testing.T) {
	RegisterTestingT(t)

	clock := newFakeClock()
	db := newTestAgentDB(clock, nil)

	_, err := db.ReportState(nil, clock.Now())
	Expect(err).To(HaveOccurred())
	_, err = db.ReportState(agentState("", "20.0.0.1", "vxlan"), clock.Now())
	Expect(err).To(HaveOccurred())
	Expect(db.ListAgents()).To(BeEmpty())
}

func TestStaleReport(t *testing.T) {
	RegisterTestingT(t)

	clock := newFakeClock()
	db := newTestAgentDB(clock, nil)
	recorder := &lifecycleRecorder{}
	db.RegisterLifecycleHandler("test", recorder)

	transition, err := db.ReportState(agentState(host1, "20.0.0.1", "vxlan"), clock.Now().Add(-2*time.Minute))
	Expect(err).ToNot(HaveOccurred())
	Expect(transition).To(Equal(NoChange))
	Expect(recorder.Events()).To(BeEmpty())

	agent, found := db.GetAgent(host1)
	Expect(found).To(BeTrue())
	Expect(db.IsAlive(agent)).To(BeFalse())
}

func TestDelayedReport(t *testing.T) {
	RegisterTestingT(t)

	clock := newFakeClock()
	db := newTestAgentDB(clock, nil)
	recorder := &lifecycleRecorder{}
	db.RegisterLifecycleHandler("test", recorder)

	_, err := db.ReportState(agentState(host1, "20.0.0.1", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())
	Expect(recorder.Events()).To(Equal([]string{"up:" + host1}))
	heartbeat := clock.Now().UnixNano()

	// a report sent before the last one arrives late
	clock.Advance(10 * time.Second)
	transition, err := db.ReportState(agentState(host1, "20.0.0.1", "vxlan"), clock.Now().Add(-100*time.Second))
	Expect(err).ToNot(HaveOccurred())
	Expect(transition).To(Equal(NoChange))
	Expect(recorder.Events()).To(BeEmpty())

	agent, _ := db.GetAgent(host1)
	Expect(agent.HeartbeatTimestamp).To(Equal(heartbeat))
	Expect(db.IsAlive(agent)).To(BeTrue())

	// the agent still expires and handlers learn about it
	clock.Advance(70 * time.Second)
	Expect(db.CheckLiveness()).To(Equal([]string{host1}))
	Expect(recorder.Events()).To(Equal([]string{"down:" + host1}))
}

func TestCheckLiveness(t *testing.T) {
	RegisterTestingT(t)

	clock := newFakeClock()
	db := newTestAgentDB(clock, nil)
	recorder := &lifecycleRecorder{}
	db.RegisterLifecycleHandler("test", recorder)

	_, err := db.ReportState(agentState(host1, "20.0.0.1", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())
	clock.Advance(10 * time.Second)
	_, err = db.ReportState(agentState(host2, "20.0.0.2", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())
	recorder.Events()

	clock.Advance(60 * time.Second)
	Expect(db.CheckLiveness()).To(BeEmpty())

	clock.Advance(10 * time.Second)
	Expect(db.CheckLiveness()).To(Equal([]string{host1}))
	Expect(recorder.Events()).To(Equal([]string{"down:" + host1}))

	agent, _ := db.GetAgent(host1)
	Expect(db.IsAlive(agent)).To(BeFalse())

	// reported only once
	Expect(db.CheckLiveness()).To(BeEmpty())

	clock.Advance(10 * time.Second)
	Expect(db.CheckLiveness()).To(Equal([]string{host2}))
	Expect(recorder.Events()).To(Equal([]string{"down:" + host2}))
}

func TestLookupAndList(t *testing.T) {
	RegisterTestingT(t)

	clock := newFakeClock()
	db := newTestAgentDB(clock, nil)

	_, err := db.ReportState(agentState(host2, "20.0.0.2", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())
	lb := agentState(host1, "20.0.0.1", "vxlan", "gre")
	lb.AgentType = "Linux bridge agent"
	_, err = db.ReportState(lb, clock.Now())
	Expect(err).ToNot(HaveOccurred())

	agents := db.ListAgents()
	Expect(agents).To(HaveLen(2))
	Expect(agents[0].Host).To(Equal(host1))
	Expect(agents[1].Host).To(Equal(host2))
	Expect(agents[0].SupportsTunnelType("gre")).To(BeTrue())
	Expect(agents[1].SupportsTunnelType("gre")).To(BeFalse())

	Expect(db.LookupAgentsByType(ovsAgent)).To(Equal([]string{host2}))
	Expect(db.LookupAgentsByType("Linux bridge agent")).To(Equal([]string{host1}))
	Expect(db.LookupAgentsByTunnelIP("20.0.0.1")).To(Equal([]string{host1}))

	// index follows the tunnel IP change
	_, err = db.ReportState(agentState(host2, "20.0.0.22", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())
	Expect(db.LookupAgentsByTunnelIP("20.0.0.2")).To(BeEmpty())
	Expect(db.LookupAgentsByTunnelIP("20.0.0.22")).To(Equal([]string{host2}))
}

func TestDeleteAgent(t *testing.T) {
	RegisterTestingT(t)

	clock := newFakeClock()
	db := newTestAgentDB(clock, nil)
	recorder := &lifecycleRecorder{}
	db.RegisterLifecycleHandler("test", recorder)

	_, err := db.ReportState(agentState(host1, "20.0.0.1", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())
	recorder.Events()

	found, err := db.DeleteAgent(host1)
	Expect(err).ToNot(HaveOccurred())
	Expect(found).To(BeTrue())
	Expect(recorder.Events()).To(Equal([]string{"down:" + host1}))
	_, found = db.GetAgent(host1)
	Expect(found).To(BeFalse())

	found, err = db.DeleteAgent(host1)
	Expect(err).ToNot(HaveOccurred())
	Expect(found).To(BeFalse())
	Expect(recorder.Events()).To(BeEmpty())
}

func TestPersistence(t *testing.T) {
	RegisterTestingT(t)

	clock := newFakeClock()
	kvBroker := broker.NewMockBroker()
	db := newTestAgentDB(clock, kvBroker)

	_, err := db.ReportState(agentState(host1, "20.0.0.1", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())
	Expect(kvBroker.Keys()).To(Equal([]string{model.Key(host1)}))

	// restore from the broker
	restored := newTestAgentDB(clock, kvBroker)
	agent, found := restored.GetAgent(host1)
	Expect(found).To(BeTrue())
	Expect(agent.TunnelIP).To(Equal("20.0.0.1"))
	Expect(restored.IsAlive(agent)).To(BeTrue())

	// failed put
	kvBroker.PutErr = errors.New("put failed")
	_, err = db.ReportState(agentState(host2, "20.0.0.2", "vxlan"), clock.Now())
	Expect(err).To(HaveOccurred())
	_, found = db.GetAgent(host2)
	Expect(found).To(BeFalse())
	kvBroker.PutErr = nil

	// failed delete keeps the agent registered
	kvBroker.DeleteErr = errors.New("delete failed")
	found, err = db.DeleteAgent(host1)
	Expect(err).To(HaveOccurred())
	Expect(found).To(BeTrue())
	_, found = db.GetAgent(host1)
	Expect(found).To(BeTrue())
	kvBroker.DeleteErr = nil

	found, err = db.DeleteAgent(host1)
	Expect(err).ToNot(HaveOccurred())
	Expect(found).To(BeTrue())
	Expect(kvBroker.Keys()).To(BeEmpty())
}

func TestLivenessLoop(t *testing.T) {
	RegisterTestingT(t)

	clock := newFakeClock()
	db := NewPlugin(UseDeps(func(deps *Deps) {
		deps.Log = logging.ForPlugin("agentdb-test")
		deps.HTTPHandlers = nil
		deps.KVStore = nil
		deps.Clock = clock.Now
	}), UseConf(Config{AgentDownTime: 2, LivenessCheckInterval: 1}))
	Expect(db.Init()).To(Succeed())
	recorder := &lifecycleRecorder{}
	db.RegisterLifecycleHandler("test", recorder)

	_, err := db.ReportState(agentState(host1, "20.0.0.1", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())
	recorder.Events()

	Expect(db.AfterInit()).To(Succeed())
	clock.Advance(5 * time.Second)
	Eventually(func() []string {
		recorder.Lock()
		defer recorder.Unlock()
		return recorder.events
	}, 3*time.Second, 100*time.Millisecond).Should(Equal([]string{"down:" + host1}))
	Expect(db.Close()).To(Succeed())
}
