package health

import (
	"fmt"
	"os"
	"strings"
	"time"

	"portkeeper/internal/config"
	"portkeeper/internal/health"

	"github.com/spf13/cobra"
)

var findServers string

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find the first reachable relay server",
	Run: func(cmd *cobra.Command, args []string) {
		servers := config.Config.Health.DefaultServers
		if findServers != "" {
			servers = strings.Split(findServers, ",")
		}

		checker := health.NewChecker()
		timeout := time.Duration(config.Config.Health.TimeoutSeconds) * time.Second
		server, found := checker.SelectFirstAvailable(servers, timeout, config.Config.Health.MaxRetries)
		if !found {
			fmt.Println("No reachable relay server")
			os.Exit(1)
		}
		fmt.Println(server)
	},
}

func init() {
	healthCmd.AddCommand(findCmd)

	findCmd.Flags().StringVar(&findServers, "servers", "", "Comma-separated relay servers to try instead of the configured list")
}
