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
//

package cmdimpl

import (
	"strings"

	"github.com/contiv/l2pop/plugins/agentdb"
	"github.com/contiv/l2pop/plugins/l2pop"
)

var (
	getFDBCmd    = strings.TrimPrefix(l2pop.FDBURL, "/")
	getAgentsCmd = strings.TrimPrefix(agentdb.AgentsURL, "/")
	resyncCmd    = strings.TrimPrefix(l2pop.ResyncURL, "/")
	deviceUpCmd  = strings.TrimPrefix(l2pop.DeviceUpURL, "/")
	deviceDnCmd  = strings.TrimPrefix(l2pop.DeviceDownURL, "/")
)

const timeLayout = "Mon Jan _2 15:04:05 2006"

// Supported output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)
