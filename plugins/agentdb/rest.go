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
	"time"

	"github.com/gorilla/mux"
	"github.com/ligato/cn-infra/rpc/rest"
	"github.com/unrolled/render"

	"github.com/contiv/l2pop/plugins/agentdb/model"
)

const (
	// Prefix is versioned prefix for REST urls
	Prefix = "/l2pop/v1/"
	// AgentsURL is versioned URL (using prefix) for agent registry REST endpoint
	AgentsURL = Prefix + "agents"
	// AgentURL is versioned URL (using prefix) for a single agent
	AgentURL = AgentsURL + "/{host}"

	hostVar       = "host"
	agentTypeParm = "type"
	tunnelIPParm  = "tunnel_ip"
)

// ReportStateRequest is the body of the state report POST request.
type ReportStateRequest struct {
	AgentState *model.AgentState `json:"agent_state"`
	// Time of the report in RFC3339 format, the time of reception if empty
	Time string `json:"time,omitempty"`
}

// ReportStateReply is returned for a processed state report.
type ReportStateReply struct {
	Host       string `json:"host"`
	Transition string `json:"transition"`
}

// AgentData is the REST representation of a registered agent.
type AgentData struct {
	*model.Agent
	Alive bool `json:"alive"`
}

type errorReply struct {
	Error string `json:"error"`
}

func (db *AgentDB) registerHandlers(http rest.HTTPHandlers) {
	if http == nil {
		db.Log.Warnf("No http handler provided, skipping registration of AgentDB REST handlers")
		return
	}
	http.RegisterHTTPHandler(AgentsURL, db.agentsGetHandler, "GET")
	http.RegisterHTTPHandler(AgentsURL, db.reportStateHandler, "POST")
	http.RegisterHTTPHandler(AgentURL, db.agentDeleteHandler, "DELETE")
	db.Log.Infof("AgentDB REST handlers registered: GET, POST %v, DELETE %v", AgentsURL, AgentURL)
}

func (db *AgentDB) agentsGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		db.Log.Debug("Getting registered agents")
		data := []AgentData{}
		for _, agent := range db.filterAgents(req.URL.Query().Get(agentTypeParm), req.URL.Query().Get(tunnelIPParm)) {
			data = append(data, AgentData{Agent: agent, Alive: db.IsAlive(agent)})
		}
		formatter.JSON(w, http.StatusOK, data)
	}
}

// filterAgents returns agents matching all non-empty filters, sorted by host.
func (db *AgentDB) filterAgents(agentType, tunnelIP string) []*model.Agent {
	if agentType == "" && tunnelIP == "" {
		return db.ListAgents()
	}
	var hosts []string
	switch {
	case agentType != "" && tunnelIP != "":
		byIP := map[string]struct{}{}
		for _, host := range db.LookupAgentsByTunnelIP(tunnelIP) {
			byIP[host] = struct{}{}
		}
		for _, host := range db.LookupAgentsByType(agentType) {
			if _, match := byIP[host]; match {
				hosts = append(hosts, host)
			}
		}
	case agentType != "":
		hosts = db.LookupAgentsByType(agentType)
	default:
		hosts = db.LookupAgentsByTunnelIP(tunnelIP)
	}
	var agents []*model.Agent
	for _, host := range hosts {
		if agent, found := db.lookupAgent(host); found {
			agents = append(agents, agent)
		}
	}
	return agents
}

func (db *AgentDB) reportStateHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var request ReportStateRequest
		if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
			formatter.JSON(w, http.StatusBadRequest, errorReply{Error: err.Error()})
			return
		}
		if request.AgentState == nil || request.AgentState.Host == "" {
			formatter.JSON(w, http.StatusBadRequest, errorReply{Error: "agent_state with host is required"})
			return
		}
		var at time.Time
		if request.Time != "" {
			var err error
			if at, err = time.Parse(time.RFC3339, request.Time); err != nil {
				formatter.JSON(w, http.StatusBadRequest, errorReply{Error: err.Error()})
				return
			}
		}
		transition, err := db.ReportState(request.AgentState, at)
		if err != nil {
			db.Log.Errorf("Error processing state report of agent %s: %v", request.AgentState.Host, err)
			formatter.JSON(w, http.StatusInternalServerError, errorReply{Error: err.Error()})
			return
		}
		formatter.JSON(w, http.StatusOK, ReportStateReply{
			Host:       request.AgentState.Host,
			Transition: transition.String(),
		})
	}
}

func (db *AgentDB) agentDeleteHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		host := mux.Vars(req)[hostVar]
		found, err := db.DeleteAgent(host)
		if err != nil {
			db.Log.Errorf("Error deleting agent %s: %v", host, err)
			formatter.JSON(w, http.StatusInternalServerError, errorReply{Error: err.Error()})
			return
		}
		if !found {
			formatter.JSON(w, http.StatusNotFound, errorReply{Error: "agent " + host + " not found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
