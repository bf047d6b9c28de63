package agent

import (
	"fmt"

	"portkeeper/internal/agent"
	"portkeeper/internal/config"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the four provider agents and their install state",
	Run: func(cmd *cobra.Command, args []string) {
		for _, info := range agent.InspectAll(config.Config.Agents.Dir) {
			if !info.Installed {
				fmt.Printf("%s: not installed\n", info.Provider)
				continue
			}
			version := info.Version
			if version == "" {
				version = "unknown version"
			}
			fmt.Printf("%s: %s (%s)\n", info.Provider, version, info.Path)
		}
	},
}

func init() {
	agentCmd.AddCommand(listCmd)
}
