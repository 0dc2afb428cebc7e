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
	"sort"
	"time"
)

func (db *AgentDB) livenessLoop() {
	defer db.wg.Done()
	ticker := time.NewTicker(db.config.livenessCheckInterval())
	defer ticker.Stop()
	for {
		select {
		case <-db.closeCh:
			return
		case <-ticker.C:
			db.CheckLiveness()
		}
	}
}

// CheckLiveness finds agents whose heartbeat expired since the previous
// check and notifies lifecycle handlers that they went down.
func (db *AgentDB) CheckLiveness() (down []string) {
	db.Lock()
	now := db.Clock()
	for _, host := range db.mapping.ListAllNames() {
		agent, found := db.lookupAgent(host)
		if !found {
			continue
		}
		alive := db.isAliveAt(agent, now)
		if db.alive[host] && !alive {
			down = append(down, host)
		}
		db.alive[host] = alive
	}
	db.Unlock()

	sort.Strings(down)
	for _, host := range down {
		db.Log.Infof("Agent %s stopped reporting its state", host)
		db.notifyDown(host)
	}
	return down
}
