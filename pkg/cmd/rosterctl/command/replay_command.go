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

package command

import (
	"fmt"
	"os"

	"github.com/go-kit/log/level"
	"github.com/jackal-xmpp/rostersync/pkg/log"
	"github.com/jackal-xmpp/rostersync/pkg/replay"
	"github.com/jackal-xmpp/rostersync/pkg/version"
	"github.com/spf13/cobra"
)

const envConfigFile = "ROSTERCTL_CONFIG_FILE"

// NewReplayCommand returns the cobra command for "replay".
func NewReplayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <transcript file>",
		Short: "Replays a stanza transcript against a roster engine",
		Args:  cobra.ExactArgs(1),
		Run:   replayCommandFunc,
	}
	cmd.Flags().String("config", "config.yaml", "configuration file path")
	return cmd
}

func replayCommandFunc(cmd *cobra.Command, args []string) {
	if err := runReplay(cmd, args[0]); err != nil {
		ExitWithError(ExitError, err)
	}
}

func runReplay(cmd *cobra.Command, transcriptFile string) error {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	// if present, override config file path with env var
	if envCfgFile := os.Getenv(envConfigFile); len(envCfgFile) > 0 {
		configFile = envCfgFile
	}
	cfg, err := replay.LoadConfig(configFile)
	if err != nil {
		return err
	}
	logger := log.NewDefaultLogger(cfg.Logger.Level, cfg.Logger.Format)

	level.Info(logger).Log("msg", "replaying transcript", "file", transcriptFile, "jid", cfg.JID, "version", version.Version)

	f, err := os.Open(transcriptFile)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	r, err := replay.New(*cfg, cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}
	ctx, cancel := commandCtx(cmd)
	defer cancel()

	if err := r.Run(ctx, f); err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}
	return nil
}
