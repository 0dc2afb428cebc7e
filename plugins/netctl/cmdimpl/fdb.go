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
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/contiv/l2pop/plugins/l2pop"
	"github.com/contiv/l2pop/plugins/netctl/remote"
)

// PrintFDB prints forwarding databases of all networks, or of the given one.
func PrintFDB(w io.Writer, client *remote.HTTPClient, server, network, format string) error {
	var data []l2pop.FDBData
	if network == "" {
		if err := getData(client, server, getFDBCmd, &data); err != nil {
			return err
		}
	} else {
		var single l2pop.FDBData
		if err := getData(client, server, getFDBCmd+"/"+network, &single); err != nil {
			return err
		}
		data = append(data, single)
	}

	if format != OutputTable {
		return printStructured(w, format, data)
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "NETWORK\tTYPE\tSEGMENT\tTUNNEL-IP\tHOSTS\tMAC\tIP\n")
	for _, fdb := range data {
		hosts := map[string][]string{}
		for host, ip := range fdb.Agents {
			hosts[ip] = append(hosts[ip], host)
		}
		var ips []string
		for ip := range fdb.Ports {
			ips = append(ips, ip)
		}
		sort.Strings(ips)
		for _, ip := range ips {
			sort.Strings(hosts[ip])
			for _, entry := range fdb.Ports[ip] {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
					fdb.NetworkID,
					fdb.NetworkType,
					fdb.SegmentID,
					ip,
					strings.Join(hosts[ip], ","),
					entry.MAC,
					entry.IP)
			}
		}
	}
	return tw.Flush()
}
