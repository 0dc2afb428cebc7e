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
	"strings"
	"text/tabwriter"
	"time"

	"github.com/contiv/l2pop/plugins/agentdb"
	"github.com/contiv/l2pop/plugins/netctl/remote"
)

// PrintAgents prints agents registered at the server.
func PrintAgents(w io.Writer, client *remote.HTTPClient, server, format string) error {
	var agents []agentdb.AgentData
	if err := getData(client, server, getAgentsCmd, &agents); err != nil {
		return err
	}

	if format != OutputTable {
		return printStructured(w, format, agents)
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "HOST\tTYPE\tTUNNEL-IP\tTUNNEL-TYPES\tALIVE\tHEARTBEAT\tSTARTED\n")
	for _, agent := range agents {
		if agent.Agent == nil {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\t%s\n",
			agent.Host,
			agent.AgentType,
			agent.TunnelIP,
			strings.Join(agent.TunnelTypes, ","),
			agent.Alive,
			time.Unix(0, agent.HeartbeatTimestamp).UTC().Format(timeLayout),
			time.Unix(0, agent.StartedAt).UTC().Format(timeLayout))
	}
	return tw.Flush()
}
