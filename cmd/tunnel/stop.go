package tunnel

import (
	"fmt"

	"portkeeper/internal/logger"
	"portkeeper/internal/rpc"

	"github.com/spf13/cobra"
)

var stopInstance string

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the tunnel of a server instance",
	Run: func(cmd *cobra.Command, args []string) {
		if stopInstance == "" {
			logger.Fatal("Must specify instance id (--instance)")
		}

		client := rpc.NewClient()
		if !client.Available() {
			logger.Fatal("Keeper daemon is not running, nothing to stop")
		}

		resp, err := client.Delete("/portkeeper/api/v1/tunnels/" + stopInstance)
		if err != nil {
			logger.Fatalf("Failed to call keeper API: %v", err)
		}
		if !resp.Ok() {
			logger.Fatalf("Failed to stop tunnel: %s", resp.Error)
		}
		fmt.Printf("Tunnel stopped for instance %s\n", stopInstance)
	},
}

func init() {
	tunnelCmd.AddCommand(stopCmd)

	stopCmd.Flags().StringVarP(&stopInstance, "instance", "i", "", "Server instance id")
}
