// Copyright (c) 2018 Cisco and/or its affiliates.
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

package broker

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/gogo/protobuf/proto"
	"github.com/ligato/cn-infra/datasync"
	"github.com/ligato/cn-infra/db/keyval"
)

// MockBroker is an in-memory keyval.ProtoBroker. PutErr and DeleteErr, when
// set, are returned by the corresponding operations without touching the data.
type MockBroker struct {
	sync.Mutex
	Data      map[string]proto.Message
	PutErr    error
	DeleteErr error
}

// NewMockBroker returns an empty broker.
func NewMockBroker() *MockBroker {
	return &MockBroker{Data: map[string]proto.Message{}}
}

// Keys returns sorted keys of all stored values.
func (mb *MockBroker) Keys() []string {
	mb.Lock()
	defer mb.Unlock()
	var res []string
	for k := range mb.Data {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// Put stores the value under the given key.
func (mb *MockBroker) Put(key string, data proto.Message, opts ...datasync.PutOption) error {
	mb.Lock()
	defer mb.Unlock()
	if mb.PutErr != nil {
		return mb.PutErr
	}
	if mb.Data == nil {
		mb.Data = map[string]proto.Message{}
	}
	mb.Data[key] = data
	return nil
}

// Delete removes the value stored under the given key.
func (mb *MockBroker) Delete(key string, opts ...datasync.DelOption) (found bool, err error) {
	mb.Lock()
	defer mb.Unlock()
	if mb.DeleteErr != nil {
		return false, mb.DeleteErr
	}
	_, found = mb.Data[key]
	delete(mb.Data, key)
	return found, nil
}

// GetValue copies the value stored under the given key into val.
func (mb *MockBroker) GetValue(key string, val proto.Message) (found bool, rev int64, err error) {
	mb.Lock()
	defer mb.Unlock()
	stored, found := mb.Data[key]
	if !found {
		return false, 0, nil
	}
	return true, 0, copyValue(stored, val)
}

// NewTxn is not supported by the mock.
func (mb *MockBroker) NewTxn() keyval.ProtoTxn {
	return nil
}

// ListKeys lists keys with the given prefix.
func (mb *MockBroker) ListKeys(prefix string) (keyval.ProtoKeyIterator, error) {
	return &mockKeyIt{match: mb.match(prefix)}, nil
}

// ListValues lists values stored under keys with the given prefix.
func (mb *MockBroker) ListValues(prefix string) (keyval.ProtoKeyValIterator, error) {
	return &mockIt{broker: mb, match: mb.match(prefix)}, nil
}

func (mb *MockBroker) match(prefix string) []string {
	mb.Lock()
	defer mb.Unlock()
	var match []string
	for k := range mb.Data {
		if strings.HasPrefix(k, prefix) {
			match = append(match, k)
		}
	}
	sort.Strings(match)
	return match
}

func (mb *MockBroker) get(key string) proto.Message {
	mb.Lock()
	defer mb.Unlock()
	return mb.Data[key]
}

// copyValue copies src into dst, both must be pointers to the same type.
func copyValue(src, dst proto.Message) error {
	if src == nil {
		return nil
	}
	sv, dv := reflect.ValueOf(src), reflect.ValueOf(dst)
	if sv.Type() != dv.Type() {
		tmp, err := proto.Marshal(src)
		if err != nil {
			return err
		}
		return proto.Unmarshal(tmp, dst)
	}
	dv.Elem().Set(sv.Elem())
	return nil
}

type mockIt struct {
	broker *MockBroker
	match  []string
	index  int
}

func (mi *mockIt) GetNext() (kv keyval.ProtoKeyVal, stop bool) {
	if mi.index >= len(mi.match) {
		return nil, true
	}
	key := mi.match[mi.index]
	kv = &mockKv{key: key, val: mi.broker.get(key)}
	mi.index++
	return kv, false
}

func (mi *mockIt) Close() error {
	return nil
}

type mockKeyIt struct {
	match []string
	index int
}

func (mi *mockKeyIt) GetNext() (key string, rev int64, stop bool) {
	if mi.index >= len(mi.match) {
		return "", 0, true
	}
	key = mi.match[mi.index]
	mi.index++
	return key, 0, false
}

func (mi *mockKeyIt) Close() error {
	return nil
}

type mockKv struct {
	key string
	val proto.Message
}

func (mk *mockKv) GetValue(val proto.Message) error {
	return copyValue(mk.val, val)
}

func (mk *mockKv) GetPrevValue(val proto.Message) (exists bool, err error) {
	return false, nil
}

func (mk *mockKv) GetKey() string {
	return mk.key
}

func (mk *mockKv) GetRevision() int64 {
	return 0
}

// Factory hands out the same broker for every key prefix.
type Factory struct {
	Broker *MockBroker
}

// NewBroker returns the wrapped broker.
func (f *Factory) NewBroker(keyPrefix string) keyval.ProtoBroker {
	return f.Broker
}
