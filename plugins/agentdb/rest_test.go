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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	. "github.com/onsi/gomega"
	"github.com/unrolled/render"
)

func TestRESTReportAndList(t *testing.T) {
	RegisterTestingT(t)

	clock := newFakeClock()
	db := newTestAgentDB(clock, nil)
	formatter := render.New()

	body := `{"agent_state": {"binary": "neutron-openvswitch-agent", "host": "compute-1",
		"topic": "N/A", "agent_type": "Open vSwitch agent", "start_flag": true,
		"configurations": {"tunneling_ip": "20.0.0.1", "tunnel_types": ["vxlan"]}}}`
	req := httptest.NewRequest(http.MethodPost, AgentsURL, strings.NewReader(body))
	rec := httptest.NewRecorder()
	db.reportStateHandler(formatter)(rec, req)
	Expect(rec.Code).To(Equal(http.StatusOK))

	var reply ReportStateReply
	Expect(json.Unmarshal(rec.Body.Bytes(), &reply)).To(Succeed())
	Expect(reply).To(Equal(ReportStateReply{Host: host1, Transition: AgentUp.String()}))

	req = httptest.NewRequest(http.MethodGet, AgentsURL, nil)
	rec = httptest.NewRecorder()
	db.agentsGetHandler(formatter)(rec, req)
	Expect(rec.Code).To(Equal(http.StatusOK))

	var agents []map[string]interface{}
	Expect(json.Unmarshal(rec.Body.Bytes(), &agents)).To(Succeed())
	Expect(agents).To(HaveLen(1))
	Expect(agents[0]["host"]).To(Equal(host1))
	Expect(agents[0]["tunnel_ip"]).To(Equal("20.0.0.1"))
	Expect(agents[0]["alive"]).To(BeTrue())

	req = httptest.NewRequest(http.MethodGet, AgentsURL+"?type=Linux+bridge+agent", nil)
	rec = httptest.NewRecorder()
	db.agentsGetHandler(formatter)(rec, req)
	Expect(rec.Body.String()).To(MatchJSON("[]"))
}

func TestRESTListFilters(t *testing.T) {
	RegisterTestingT(t)

	clock := newFakeClock()
	db := newTestAgentDB(clock, nil)
	formatter := render.New()

	_, err := db.ReportState(agentState(host2, "20.0.0.2", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())
	lb := agentState(host1, "20.0.0.1", "vxlan")
	lb.AgentType = "Linux bridge agent"
	_, err = db.ReportState(lb, clock.Now())
	Expect(err).ToNot(HaveOccurred())

	list := func(query string) []string {
		rec := httptest.NewRecorder()
		db.agentsGetHandler(formatter)(rec, httptest.NewRequest(http.MethodGet, AgentsURL+query, nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		var agents []AgentData
		Expect(json.Unmarshal(rec.Body.Bytes(), &agents)).To(Succeed())
		hosts := []string{}
		for _, agent := range agents {
			hosts = append(hosts, agent.Host)
		}
		return hosts
	}

	Expect(list("")).To(Equal([]string{host1, host2}))
	Expect(list("?type=Open+vSwitch+agent")).To(Equal([]string{host2}))
	Expect(list("?tunnel_ip=20.0.0.1")).To(Equal([]string{host1}))
	Expect(list("?type=Linux+bridge+agent&tunnel_ip=20.0.0.1")).To(Equal([]string{host1}))
	Expect(list("?type=Open+vSwitch+agent&tunnel_ip=20.0.0.1")).To(BeEmpty())
	Expect(list("?tunnel_ip=20.0.0.9")).To(BeEmpty())
}

func TestRESTReportInvalid(t *testing.T) {
	RegisterTestingT(t)

	db := newTestAgentDB(newFakeClock(), nil)
	formatter := render.New()

	for _, body := range []string{
		`not json`,
		`{"agent_state": {"agent_type": "Open vSwitch agent"}}`,
		`{"agent_state": {"host": "compute-1"}, "time": "yesterday"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, AgentsURL, strings.NewReader(body))
		rec := httptest.NewRecorder()
		db.reportStateHandler(formatter)(rec, req)
		Expect(rec.Code).To(Equal(http.StatusBadRequest), body)
	}
	Expect(db.ListAgents()).To(BeEmpty())
}

func TestRESTDelete(t *testing.T) {
	RegisterTestingT(t)

	clock := newFakeClock()
	db := newTestAgentDB(clock, nil)
	formatter := render.New()

	_, err := db.ReportState(agentState(host1, "20.0.0.1", "vxlan"), clock.Now())
	Expect(err).ToNot(HaveOccurred())

	req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, AgentsURL+"/"+host1, nil),
		map[string]string{hostVar: host1})
	rec := httptest.NewRecorder()
	db.agentDeleteHandler(formatter)(rec, req)
	Expect(rec.Code).To(Equal(http.StatusNoContent))

	rec = httptest.NewRecorder()
	db.agentDeleteHandler(formatter)(rec, req)
	Expect(rec.Code).To(Equal(http.StatusNotFound))
}
