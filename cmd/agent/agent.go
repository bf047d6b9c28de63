package agent

import (
	"portkeeper/cmd/root"

	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Inspect installed tunnel agent binaries",
	Long:  `Inspect installed tunnel agent binaries`,
}

func init() {
	root.RootCmd.AddCommand(agentCmd)

	agentCmd.Example = `  # show which tunnel agents are installed
  portkeeper agent list`
}
