package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jmottier/notihub/app/plugins"
	"github.com/jmottier/notihub/config"
	"github.com/jmottier/notihub/core/handler"
	"github.com/jmottier/notihub/core/registry"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the channel types configured for dispatch",
	RunE:  listChannels,
}

func init() {
	rootCmd.AddCommand(channelsCmd)
}

func listChannels(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	reg := registry.New[handler.Factory]()
	if err := plugins.BuildChannels(cfg.Channels, reg); err != nil {
		return err
	}
	types := reg.Types()
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintln(cmd.OutOrStdout(), t)
	}
	return nil
}
