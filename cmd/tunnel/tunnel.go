package tunnel

import (
	"portkeeper/cmd/root"

	"github.com/spf13/cobra"
)

var tunnelCmd = &cobra.Command{
	Use:   "tunnel",
	Short: "Tunnel operations (start/stop/status/list)",
	Long:  `Tunnel operations (start/stop/status/list)`,
}

const tunnelExample = `  # start a bore tunnel for a server instance
  portkeeper tunnel start --instance my-server --provider bore --port 25565`

func init() {
	root.RootCmd.AddCommand(tunnelCmd)

	tunnelCmd.Example = tunnelExample
}
