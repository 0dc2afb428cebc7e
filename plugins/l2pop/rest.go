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
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ligato/cn-infra/rpc/rest"
	"github.com/unrolled/render"

	"github.com/contiv/l2pop/plugins/l2pop/fdb"
	"github.com/contiv/l2pop/plugins/l2pop/rpc"
)

const (
	// Prefix is versioned prefix for REST urls
	Prefix = "/l2pop/v1/"
	// FDBURL is versioned URL (using prefix) for forwarding databases of all networks
	FDBURL = Prefix + "fdb"
	// NetworkFDBURL is versioned URL (using prefix) for the forwarding database of one network
	NetworkFDBURL = FDBURL + "/{network}"
	// DeviceUpURL is versioned URL (using prefix) for device up events
	DeviceUpURL = Prefix + "device/up"
	// DeviceDownURL is versioned URL (using prefix) for device down events
	DeviceDownURL = Prefix + "device/down"
	// ResyncURL is versioned URL (using prefix) triggering full resynchronization
	ResyncURL = Prefix + "resync"

	networkVar = "network"
)

// FDBData is the REST representation of the forwarding database of a network.
type FDBData struct {
	NetworkID   string `json:"network_id"`
	NetworkType string `json:"network_type"`
	SegmentID   uint32 `json:"segment_id"`

	// Agents maps host to tunnel IP.
	Agents map[string]string `json:"agents"`

	// Ports maps tunnel IP to entries, including the flooding entry.
	Ports fdb.AgentEntries `json:"ports"`
}

// DeviceRequest is the body of device up/down requests.
type DeviceRequest struct {
	Host   string `json:"host"`
	Device string `json:"device"`
}

type errorReply struct {
	Error string `json:"error"`
}

func newFDBData(view *fdb.View) FDBData {
	return FDBData{
		NetworkID:   view.NetworkID,
		NetworkType: view.NetworkType,
		SegmentID:   view.SegmentID,
		Agents:      view.Agents,
		Ports:       view.FDB(),
	}
}

func (p *L2Pop) registerHandlers(http rest.HTTPHandlers) {
	http.RegisterHTTPHandler(FDBURL, p.fdbGetHandler, "GET")
	http.RegisterHTTPHandler(NetworkFDBURL, p.networkFDBGetHandler, "GET")
	http.RegisterHTTPHandler(DeviceUpURL, p.deviceHandler(p.OnDeviceUp), "POST")
	http.RegisterHTTPHandler(DeviceDownURL, p.deviceHandler(p.OnDeviceDown), "POST")
	http.RegisterHTTPHandler(ResyncURL, p.resyncHandler, "POST")
	p.Log.Infof("L2Pop REST handlers registered: GET %v, %v, POST %v, %v, %v",
		FDBURL, NetworkFDBURL, DeviceUpURL, DeviceDownURL, ResyncURL)
}

func (p *L2Pop) fdbGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		p.Log.Debug("Getting FDB of all networks")
		data := []FDBData{}
		for _, view := range p.ListFDB() {
			data = append(data, newFDBData(view))
		}
		formatter.JSON(w, http.StatusOK, data)
	}
}

func (p *L2Pop) networkFDBGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		networkID := mux.Vars(req)[networkVar]
		view, found := p.GetFDB(networkID)
		if !found {
			formatter.JSON(w, http.StatusNotFound, errorReply{Error: "no FDB for network " + networkID})
			return
		}
		formatter.JSON(w, http.StatusOK, newFDBData(view))
	}
}

func (p *L2Pop) deviceHandler(event func(host, device string) error) func(formatter *render.Render) http.HandlerFunc {
	return func(formatter *render.Render) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			var request DeviceRequest
			if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
				formatter.JSON(w, http.StatusBadRequest, errorReply{Error: err.Error()})
				return
			}
			if request.Host == "" || request.Device == "" {
				formatter.JSON(w, http.StatusBadRequest, errorReply{Error: "host and device are required"})
				return
			}
			p.replyEventResult(formatter, w, event(request.Host, request.Device))
		}
	}
}

func (p *L2Pop) resyncHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		p.replyEventResult(formatter, w, p.Resync())
	}
}

func (p *L2Pop) replyEventResult(formatter *render.Render, w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case rpc.IsDeliveryError(err):
		formatter.JSON(w, http.StatusBadGateway, errorReply{Error: err.Error()})
	default:
		p.Log.Errorf("Error processing request: %v", err)
		formatter.JSON(w, http.StatusInternalServerError, errorReply{Error: err.Error()})
	}
}
