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

package notifier

import (
	"sync"

	"github.com/contiv/l2pop/plugins/l2pop/fdb"
)

// Broadcast is the host recorded for broadcast notifications.
const Broadcast = "*"

// Notification is one recorded call of the notifier.
type Notification struct {
	// Host is the target of a unicast, or Broadcast
	Host  string
	Delta *fdb.Delta
}

// MockNotifier records notifications instead of sending them.
// Err, when set, is returned from every call after recording it.
type MockNotifier struct {
	sync.Mutex
	notifications []Notification
	Err           error
}

// NewMockNotifier is a constructor for MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Unicast records the delta sent to one host.
func (mn *MockNotifier) Unicast(host string, delta *fdb.Delta) error {
	mn.Lock()
	defer mn.Unlock()
	mn.notifications = append(mn.notifications, Notification{Host: host, Delta: delta})
	return mn.Err
}

// Broadcast records the delta sent to all hosts.
func (mn *MockNotifier) Broadcast(delta *fdb.Delta) error {
	mn.Lock()
	defer mn.Unlock()
	mn.notifications = append(mn.notifications, Notification{Host: Broadcast, Delta: delta})
	return mn.Err
}

// Notifications returns recorded notifications.
func (mn *MockNotifier) Notifications() []Notification {
	mn.Lock()
	defer mn.Unlock()
	return append([]Notification(nil), mn.notifications...)
}

// Pop returns recorded notifications and forgets them.
func (mn *MockNotifier) Pop() []Notification {
	mn.Lock()
	defer mn.Unlock()
	notifications := mn.notifications
	mn.notifications = nil
	return notifications
}

// Reset forgets all recorded notifications.
func (mn *MockNotifier) Reset() {
	mn.Lock()
	defer mn.Unlock()
	mn.notifications = nil
}
