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

package rpc

import (
	"encoding/json"

	"github.com/golang/protobuf/jsonpb"

	"github.com/contiv/l2pop/plugins/l2pop/fdb"
)

// Methods invoked on agents.
const (
	AddFDBEntries    = "add_fdb_entries"
	RemoveFDBEntries = "remove_fdb_entries"
)

// Message is a notification invoking a method on agents.
// Its JSON form is {"method": ..., "args": {"fdb_entries": {...}}}.
type Message struct {
	Method string      `protobuf:"bytes,1,opt,name=method,proto3" json:"method"`
	Args   MessageArgs `protobuf:"bytes,2,opt,name=args,proto3" json:"args"`
}

// MessageArgs are arguments of the invoked method.
type MessageArgs struct {
	FDBEntries map[string]*NetworkEntries `json:"fdb_entries"`
}

// NetworkEntries are forwarding entries of one network.
type NetworkEntries struct {
	NetworkType string           `json:"network_type"`
	SegmentID   uint32           `json:"segment_id"`
	Ports       fdb.AgentEntries `json:"ports"`
}

// NewMessage builds a message invoking method with entries of the network.
func NewMessage(method string, delta *fdb.Delta, entries fdb.AgentEntries) *Message {
	return &Message{
		Method: method,
		Args: MessageArgs{
			FDBEntries: map[string]*NetworkEntries{
				delta.NetworkID: {
					NetworkType: delta.NetworkType,
					SegmentID:   delta.SegmentID,
					Ports:       entries,
				},
			},
		},
	}
}

func (m *Message) Reset()      { *m = Message{} }
func (*Message) ProtoMessage() {}

// String returns the JSON form of the message.
func (m *Message) String() string {
	data, err := json.Marshal(m)
	if err != nil {
		return err.Error()
	}
	return string(data)
}

// MarshalJSONPB keeps the plain JSON form when the message is serialized
// by a protobuf-aware JSON serializer.
func (m *Message) MarshalJSONPB(*jsonpb.Marshaler) ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalJSONPB decodes the plain JSON form.
func (m *Message) UnmarshalJSONPB(_ *jsonpb.Unmarshaler, data []byte) error {
	return json.Unmarshal(data, m)
}
