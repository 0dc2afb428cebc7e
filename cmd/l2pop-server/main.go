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

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ligato/cn-infra/agent"
	"github.com/ligato/cn-infra/health/probe"
	"github.com/ligato/cn-infra/logging/logrus"

	"github.com/contiv/l2pop/plugins/agentdb"
	"github.com/contiv/l2pop/plugins/l2pop"
	"github.com/contiv/l2pop/plugins/netstore"
	"github.com/contiv/l2pop/plugins/statscollector"
)

// L2PopServer groups plugins of the L2 population control plane.
type L2PopServer struct {
	HealthProbe *probe.Plugin
	AgentDB     *agentdb.AgentDB
	NetStore    *netstore.NetStore
	Stats       *statscollector.Plugin
	L2Pop       *l2pop.L2Pop
}

func (s *L2PopServer) String() string {
	return "L2PopServer"
}

// Init is called at startup phase. Method added in order to implement Plugin interface.
func (s *L2PopServer) Init() error {
	return nil
}

// Close is called at cleanup phase. Method added in order to implement Plugin interface.
func (s *L2PopServer) Close() error {
	return nil
}

func main() {
	server := &L2PopServer{
		HealthProbe: &probe.DefaultPlugin,
		AgentDB:     &agentdb.DefaultPlugin,
		NetStore:    &netstore.DefaultPlugin,
		Stats:       &statscollector.DefaultPlugin,
		L2Pop:       &l2pop.DefaultPlugin,
	}

	a := agent.NewAgent(agent.AllPlugins(server), agent.QuitOnClose(closeChanFiredBySigterm()))
	if err := a.Run(); err != nil {
		logrus.DefaultLogger().Fatal(err)
	}
}

// closeChanFiredBySigterm creates close channel for the agent that will close when SIGTERM is detected
func closeChanFiredBySigterm() chan struct{} {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)

	closeChan := make(chan struct{})
	go func() {
		<-sigChan
		close(closeChan)
	}()
	return closeChan
}
