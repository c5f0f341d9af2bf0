// Copyright 2024 The jackal Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rosterctl

import (
	"time"

	"github.com/jackal-xmpp/rostersync/pkg/cmd/rosterctl/command"
	"github.com/spf13/cobra"
)

const (
	cliName        = "rosterctl"
	cliDescription = "A command line tool to exercise the roster sync engine."

	defaultCommandTimeOut = time.Minute
)

var (
	globalFlags = command.GlobalFlags{}
)

var (
	rootCmd = &cobra.Command{
		Use:        cliName,
		Short:      cliDescription,
		SuggestFor: []string{"rosterctl"},
	}
)

func init() {
	rootCmd.PersistentFlags().DurationVar(&globalFlags.CommandTimeOut, "command-timeout", defaultCommandTimeOut, "timeout for running command, zero disables it")

	rootCmd.AddCommand(
		command.NewReplayCommand(),
		command.NewVersionCommand(),
	)
	cobra.EnablePrefixMatching = true
}

// Start starts rosterctl command.
func Start() error {
	// Make help just show the usage
	rootCmd.SetHelpTemplate(`{{.UsageString}}`)
	return rootCmd.Execute()
}

// MustStart is like Start but exiting in case an error occurs.
func MustStart() {
	if err := Start(); err != nil {
		command.ExitWithError(command.ExitError, err)
	}
}
