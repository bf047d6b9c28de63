package tunnel

import (
	"fmt"

	"portkeeper/internal/logger"
	"portkeeper/internal/models"
	"portkeeper/internal/rpc"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered tunnels",
	Run: func(cmd *cobra.Command, args []string) {
		client := rpc.NewClient()
		if !client.Available() {
			fmt.Println("Keeper daemon is not running")
			return
		}

		resp, err := client.Get("/portkeeper/api/v1/tunnels", nil)
		if err != nil {
			logger.Fatalf("Failed to call keeper API: %v", err)
		}
		if !resp.Ok() {
			logger.Fatalf("Failed to list tunnels: %s", resp.Error)
		}

		var tunnels []models.StatusResponse
		if err := resp.Decode(&tunnels); err != nil {
			logger.Fatal(err)
		}
		if len(tunnels) == 0 {
			fmt.Println("No tunnels registered")
			return
		}
		for _, t := range tunnels {
			printStatus(t)
		}
	},
}

func init() {
	tunnelCmd.AddCommand(listCmd)
}
