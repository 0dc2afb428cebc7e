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
	"encoding/json"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/ligato/cn-infra/rpc/rest"
	"github.com/pkg/errors"
	"github.com/unrolled/render"

	"github.com/contiv/l2pop/plugins/netstore/model"
)

const (
	// Prefix is versioned prefix for REST urls
	Prefix = "/l2pop/v1/"
	// NetworksURL is versioned URL (using prefix) for networks REST endpoint
	NetworksURL = Prefix + "networks"
	// NetworkURL is versioned URL (using prefix) for a single network
	NetworkURL = NetworksURL + "/{id}"
	// PortsURL is versioned URL (using prefix) for ports REST endpoint
	PortsURL = Prefix + "ports"
	// PortURL is versioned URL (using prefix) for a single port
	PortURL = PortsURL + "/{id}"

	idVar          = "id"
	networkTypeArg = "type"
	networkArg     = "network"
	hostArg        = "host"
)

type errorReply struct {
	Error string `json:"error"`
}

func (s *NetStore) registerHandlers(http rest.HTTPHandlers) {
	if http == nil {
		s.Log.Warnf("No http handler provided, skipping registration of NetStore REST handlers")
		return
	}
	http.RegisterHTTPHandler(NetworksURL, s.networksGetHandler, "GET")
	http.RegisterHTTPHandler(NetworksURL, s.networkPutHandler, "PUT")
	http.RegisterHTTPHandler(NetworkURL, s.networkDeleteHandler, "DELETE")
	http.RegisterHTTPHandler(PortsURL, s.portsGetHandler, "GET")
	http.RegisterHTTPHandler(PortsURL, s.portPutHandler, "PUT")
	http.RegisterHTTPHandler(PortURL, s.portDeleteHandler, "DELETE")
	s.Log.Infof("NetStore REST handlers registered: %v, %v", NetworksURL, PortsURL)
}

func (s *NetStore) networksGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		networkType := req.URL.Query().Get(networkTypeArg)
		networks := []*model.Network{}
		if networkType != "" {
			ids := s.networks.ListNames(networkTypeKey, networkType)
			sort.Strings(ids)
			for _, id := range ids {
				if network, found := s.GetNetwork(id); found {
					networks = append(networks, network)
				}
			}
		} else {
			networks = append(networks, s.ListNetworks()...)
		}
		formatter.JSON(w, http.StatusOK, networks)
	}
}

func (s *NetStore) networkPutHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		network := &model.Network{}
		if err := json.NewDecoder(req.Body).Decode(network); err != nil {
			formatter.JSON(w, http.StatusBadRequest, errorReply{Error: err.Error()})
			return
		}
		if network.ID == "" {
			formatter.JSON(w, http.StatusBadRequest, errorReply{Error: "network id is required"})
			return
		}
		if err := s.PutNetwork(network); err != nil {
			s.Log.Errorf("Error storing network %s: %v", network.ID, err)
			formatter.JSON(w, http.StatusInternalServerError, errorReply{Error: err.Error()})
			return
		}
		formatter.JSON(w, http.StatusOK, network)
	}
}

func (s *NetStore) networkDeleteHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)[idVar]
		found, err := s.DeleteNetwork(id)
		switch {
		case errors.Cause(err) == ErrNetworkInUse:
			formatter.JSON(w, http.StatusConflict, errorReply{Error: err.Error()})
		case err != nil:
			s.Log.Errorf("Error deleting network %s: %v", id, err)
			formatter.JSON(w, http.StatusInternalServerError, errorReply{Error: err.Error()})
		case !found:
			formatter.JSON(w, http.StatusNotFound, errorReply{Error: "network " + id + " not found"})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

func (s *NetStore) portsGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		query := req.URL.Query()
		networkID, host := query.Get(networkArg), query.Get(hostArg)

		var candidates []*model.Port
		switch {
		case networkID != "":
			candidates = s.ListNetworkPorts(networkID)
		case host != "":
			candidates = s.ListHostPorts(host)
		default:
			candidates = s.lookupPorts(s.ports.ListAllNames())
		}
		ports := []*model.Port{}
		for _, port := range candidates {
			if host != "" && port.HostID != host {
				continue
			}
			ports = append(ports, port)
		}
		formatter.JSON(w, http.StatusOK, ports)
	}
}

func (s *NetStore) portPutHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		port := &model.Port{}
		if err := json.NewDecoder(req.Body).Decode(port); err != nil {
			formatter.JSON(w, http.StatusBadRequest, errorReply{Error: err.Error()})
			return
		}
		if port.ID == "" || port.NetworkID == "" {
			formatter.JSON(w, http.StatusBadRequest, errorReply{Error: "port id and network_id are required"})
			return
		}
		if _, found := s.GetNetwork(port.NetworkID); !found {
			formatter.JSON(w, http.StatusBadRequest, errorReply{Error: "network " + port.NetworkID + " not found"})
			return
		}
		if _, err := s.PutPort(port); err != nil {
			s.Log.Errorf("Error storing port %s: %v", port.ID, err)
			formatter.JSON(w, http.StatusInternalServerError, errorReply{Error: err.Error()})
			return
		}
		stored, _ := s.GetPort(port.ID)
		formatter.JSON(w, http.StatusOK, stored)
	}
}

func (s *NetStore) portDeleteHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)[idVar]
		_, found, err := s.DeletePort(id)
		switch {
		case err != nil:
			s.Log.Errorf("Error deleting port %s: %v", id, err)
			formatter.JSON(w, http.StatusInternalServerError, errorReply{Error: err.Error()})
		case !found:
			formatter.JSON(w, http.StatusNotFound, errorReply{Error: "port " + id + " not found"})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}
