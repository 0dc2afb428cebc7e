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
	"github.com/contiv/l2pop/plugins/agentdb/model"
)

func (db *AgentDB) loadAgents() error {
	if db.broker == nil {
		db.Log.Info("No broker specified, agents will not be loaded from persisted storage")
		return nil
	}
	it, err := db.broker.ListValues(model.KeyPrefix)
	if err != nil {
		return err
	}
	cnt := 0
	now := db.Clock()
	for {
		item := &model.Agent{}
		kv, stop := it.GetNext()
		if stop {
			break
		}
		err = kv.GetValue(item)
		if err != nil {
			return err
		}
		cnt++
		db.mapping.Put(item.Host, item)
		db.alive[item.Host] = db.isAliveAt(item, now)
	}
	db.Log.Infof("%v persisted agents were loaded", cnt)
	return nil
}

func (db *AgentDB) persistAgent(agent *model.Agent) error {
	if db.broker == nil {
		return nil
	}
	return db.broker.Put(model.Key(agent.Host), agent)
}

func (db *AgentDB) removePersistedAgent(host string) error {
	if db.broker == nil {
		return nil
	}
	_, err := db.broker.Delete(model.Key(host))
	return err
}
