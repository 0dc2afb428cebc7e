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

package remote

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ligato/cn-infra/config"
)

// HTTPClient wraps http.Client with configured authorization and url base
type HTTPClient struct {
	// Config for this client
	Config *HTTPClientConfig

	http *http.Client
}

// HTTPClientConfig is configuration for http client
type HTTPClientConfig struct {
	// Basic authorization for client
	BasicAuth string `json:"basic-auth"`
	// If https or http should be used
	UseHTTPS bool `json:"use-https"`
	// Request timeout in seconds, 10 if unset
	Timeout uint32 `json:"timeout"`
}

// CreateHTTPClient uses environment variable HTTP_CLIENT_CONFIG or HTTP config file to establish connection
func CreateHTTPClient(configFile string) (*HTTPClient, error) {
	if configFile == "" {
		configFile = os.Getenv("HTTP_CLIENT_CONFIG")
	}

	cfg := &HTTPClientConfig{}
	if configFile != "" {
		if err := config.ParseConfigFromYamlFile(configFile, cfg); err != nil {
			return nil, err
		}
	}
	timeout := 10 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &HTTPClient{
		Config: cfg,
		http: &http.Client{
			Transport: &http.Transport{},
			Timeout:   timeout,
		},
	}, nil
}

// Helper function to create url from config
func (client *HTTPClient) createURL(server string, cmd string) string {
	if strings.HasPrefix(server, "http://") || strings.HasPrefix(server, "https://") {
		return strings.TrimSuffix(server, "/") + "/" + strings.TrimPrefix(cmd, "/")
	}
	url := "http://"
	if client.Config.UseHTTPS {
		url = "https://"
	}
	return url + server + "/" + strings.TrimPrefix(cmd, "/")
}

// Get creates http get request for cmd on the server using correct authentication
func (client *HTTPClient) Get(server string, cmd string) (*http.Response, error) {
	return client.do(http.MethodGet, server, cmd, "")
}

// Post creates http post request for cmd on the server using correct authentication
func (client *HTTPClient) Post(server string, cmd string, body string) (*http.Response, error) {
	return client.do(http.MethodPost, server, cmd, body)
}

// Delete creates http delete request for cmd on the server using correct authentication
func (client *HTTPClient) Delete(server string, cmd string) (*http.Response, error) {
	return client.do(http.MethodDelete, server, cmd, "")
}

func (client *HTTPClient) do(method, server, cmd, body string) (*http.Response, error) {
	req, err := http.NewRequest(method, client.createURL(server, cmd), bytes.NewBufferString(body))
	if err != nil {
		return nil, err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if len(client.Config.BasicAuth) > 0 {
		fields := strings.Split(client.Config.BasicAuth, ":")
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid format of basic auth entry '%v' expected 'user:pass'", client.Config.BasicAuth)
		}
		req.SetBasicAuth(fields[0], fields[1])
	}

	return client.http.Do(req)
}
