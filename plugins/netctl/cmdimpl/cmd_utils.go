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
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/ghodss/yaml"

	"github.com/contiv/l2pop/plugins/netctl/remote"
)

// getData makes an http get request for the given command and decodes the JSON reply into out.
func getData(client *remote.HTTPClient, server string, cmd string, out interface{}) error {
	res, err := client.Get(server, cmd)
	if err != nil {
		return fmt.Errorf("getData: url: %s Get Error: %s", cmd, err.Error())
	}
	defer res.Body.Close()

	b, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("getData: url: %s HTTP res.Status: %s %s", cmd, res.Status, string(b))
	}
	return json.Unmarshal(b, out)
}

// postData makes an http json post request and returns the reply body.
func postData(client *remote.HTTPClient, server string, cmd string, body string) ([]byte, error) {
	res, err := client.Post(server, cmd, body)
	if err != nil {
		return nil, fmt.Errorf("postData: url: %s Post Error: %s", cmd, err.Error())
	}
	defer res.Body.Close()

	b, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return b, fmt.Errorf("postData: url: %s HTTP res.Status: %s %s", cmd, res.Status, string(b))
	}
	return b, nil
}

// printStructured prints data as indented JSON or as YAML.
func printStructured(w io.Writer, format string, data interface{}) error {
	var (
		out []byte
		err error
	)
	switch format {
	case OutputJSON:
		out, err = json.MarshalIndent(data, "", "  ")
		out = append(out, '\n')
	case OutputYAML:
		out, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("unsupported output format '%s'", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
