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
	"github.com/golang/protobuf/proto"

	"github.com/contiv/l2pop/plugins/netstore/model"
)

func (s *NetStore) loadNetworks() error {
	if s.broker == nil {
		s.Log.Info("No broker specified, networks will not be loaded from persisted storage")
		return nil
	}
	it, err := s.broker.ListValues(model.NetworkKeyPrefix)
	if err != nil {
		return err
	}
	cnt := 0
	for {
		item := &model.Network{}
		kv, stop := it.GetNext()
		if stop {
			break
		}
		err = kv.GetValue(item)
		if err != nil {
			return err
		}
		cnt++
		s.networks.Put(item.ID, item)
	}
	s.Log.Infof("%v persisted networks were loaded", cnt)
	return nil
}

func (s *NetStore) loadPorts() error {
	if s.broker == nil {
		s.Log.Info("No broker specified, ports will not be loaded from persisted storage")
		return nil
	}
	it, err := s.broker.ListValues(model.PortKeyPrefix)
	if err != nil {
		return err
	}
	cnt := 0
	for {
		item := &model.Port{}
		kv, stop := it.GetNext()
		if stop {
			break
		}
		err = kv.GetValue(item)
		if err != nil {
			return err
		}
		cnt++
		s.ports.Put(item.ID, item)
	}
	s.Log.Infof("%v persisted ports were loaded", cnt)
	return nil
}

func (s *NetStore) persist(key string, value proto.Message) error {
	if s.broker == nil {
		return nil
	}
	return s.broker.Put(key, value)
}

func (s *NetStore) removePersisted(key string) error {
	if s.broker == nil {
		return nil
	}
	_, err := s.broker.Delete(key)
	return err
}
