package health

import (
	"portkeeper/cmd/root"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Relay server reachability checks",
	Long:  `Relay server reachability checks`,
}

func init() {
	root.RootCmd.AddCommand(healthCmd)

	healthCmd.Example = `  # probe the configured relay servers
  portkeeper health check`
}
