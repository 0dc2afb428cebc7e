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

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contiv/l2pop/plugins/netctl/cmdimpl"
	"github.com/contiv/l2pop/plugins/netctl/remote"
)

const defaultServer = "localhost:9191"

var (
	server         string
	outputFormat   string
	httpConfigFile string
)

var cmdFDB = &cobra.Command{
	Use:   "fdb [network]",
	Short: "Shows forwarding databases computed for networks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network := ""
		if len(args) == 1 {
			network = args[0]
		}
		client, err := remote.CreateHTTPClient(httpConfigFile)
		if err != nil {
			return err
		}
		return cmdimpl.PrintFDB(os.Stdout, client, server, network, outputFormat)
	},
}

var cmdAgents = &cobra.Command{
	Use:   "agents",
	Short: "Shows registered switch agents",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := remote.CreateHTTPClient(httpConfigFile)
		if err != nil {
			return err
		}
		return cmdimpl.PrintAgents(os.Stdout, client, server, outputFormat)
	},
}

var cmdResync = &cobra.Command{
	Use:   "resync",
	Short: "Recomputes all networks and notifies agents about differences",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := remote.CreateHTTPClient(httpConfigFile)
		if err != nil {
			return err
		}
		return cmdimpl.Resync(os.Stdout, client, server)
	},
}

var cmdDevice = &cobra.Command{
	Use:   "device up|down host device",
	Short: "Reports a device going up or down on the host",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var up bool
		switch args[0] {
		case "up":
			up = true
		case "down":
		default:
			return fmt.Errorf("unknown device state '%s', expected up or down", args[0])
		}
		client, err := remote.CreateHTTPClient(httpConfigFile)
		if err != nil {
			return err
		}
		return cmdimpl.DeviceEvent(os.Stdout, client, server, up, args[1], args[2])
	},
}

// NewRootCmd returns the l2popctl command with all subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "l2popctl",
		Short:        "Inspects and drives the L2 population control plane",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", defaultServer,
		"address (host:port or URL) of the l2pop server REST API")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", cmdimpl.OutputTable,
		"output format: table, json or yaml")
	rootCmd.PersistentFlags().StringVar(&httpConfigFile, "http-config", "",
		"http client configuration file (HTTP_CLIENT_CONFIG if unset)")
	rootCmd.AddCommand(cmdFDB)
	rootCmd.AddCommand(cmdAgents)
	rootCmd.AddCommand(cmdResync)
	rootCmd.AddCommand(cmdDevice)
	return rootCmd
}

//Execute will execute the command l2popctl
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
