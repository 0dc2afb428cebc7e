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

package cmdimpl

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/contiv/l2pop/plugins/l2pop"
	"github.com/contiv/l2pop/plugins/netctl/remote"
)

// Resync asks the server to recompute forwarding databases of all networks.
func Resync(w io.Writer, client *remote.HTTPClient, server string) error {
	if _, err := postData(client, server, resyncCmd, "{}"); err != nil {
		return err
	}
	fmt.Fprintln(w, "Resync done")
	return nil
}

// DeviceEvent reports a device of the host going up or down.
func DeviceEvent(w io.Writer, client *remote.HTTPClient, server string, up bool, host, device string) error {
	body, err := json.Marshal(l2pop.DeviceRequest{Host: host, Device: device})
	if err != nil {
		return err
	}
	cmd, state := deviceDnCmd, "down"
	if up {
		cmd, state = deviceUpCmd, "up"
	}
	if _, err := postData(client, server, cmd, string(body)); err != nil {
		return err
	}
	fmt.Fprintf(w, "Device %s on %s is %s\n", device, host, state)
	return nil
}
