package tunnel

import (
	"fmt"

	"portkeeper/internal/logger"
	"portkeeper/internal/models"
	"portkeeper/internal/rpc"

	"github.com/spf13/cobra"
)

var statusInstance string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the tunnel status of a server instance",
	Run: func(cmd *cobra.Command, args []string) {
		if statusInstance == "" {
			logger.Fatal("Must specify instance id (--instance)")
		}

		client := rpc.NewClient()
		if !client.Available() {
			fmt.Printf("%s: disconnected (keeper daemon is not running)\n", statusInstance)
			return
		}

		resp, err := client.Get("/portkeeper/api/v1/tunnels/"+statusInstance+"/status", nil)
		if err != nil {
			logger.Fatalf("Failed to call keeper API: %v", err)
		}
		if !resp.Ok() {
			logger.Fatalf("Failed to get tunnel status: %s", resp.Error)
		}

		var out models.StatusResponse
		if err := resp.Decode(&out); err != nil {
			logger.Fatal(err)
		}
		printStatus(out)
	},
}

func printStatus(s models.StatusResponse) {
	switch s.Status.Kind {
	case models.StatusConnected:
		fmt.Printf("%s: connected (%s)\n", s.InstanceID, s.Status.URL)
	case models.StatusWaitingForClaim:
		fmt.Printf("%s: waiting for claim (%s)\n", s.InstanceID, s.Status.ClaimURL)
	case models.StatusError:
		fmt.Printf("%s: error (%s)\n", s.InstanceID, s.Status.Message)
	default:
		fmt.Printf("%s: %s\n", s.InstanceID, s.Status.Kind)
	}
}

func init() {
	tunnelCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusInstance, "instance", "i", "", "Server instance id")
}
