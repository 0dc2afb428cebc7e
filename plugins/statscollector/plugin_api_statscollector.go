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

package statscollector

// Label values of the cast label.
const (
	CastUnicast   = "unicast"
	CastBroadcast = "broadcast"
)

// API defines API of the stats collector plugin.
type API interface {
	// RegisterGaugeFunc registers a new gauge with specific name, help string and valueFunc to report status when invoked.
	RegisterGaugeFunc(name string, help string, valueFunc func() float64)

	// CountNotification increments the number of sent notifications invoking
	// the method by unicast or broadcast.
	CountNotification(method, cast string)

	// CountDeliveryError increments the number of failed unicast or broadcast
	// deliveries.
	CountDeliveryError(cast string)
}
