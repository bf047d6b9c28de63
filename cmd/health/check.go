package health

import (
	"fmt"
	"strings"
	"time"

	"portkeeper/internal/config"
	"portkeeper/internal/health"
	"portkeeper/internal/models"

	"github.com/spf13/cobra"
)

var checkServers string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe relay servers and report reachability",
	Run: func(cmd *cobra.Command, args []string) {
		servers := config.Config.Health.DefaultServers
		if checkServers != "" {
			servers = strings.Split(checkServers, ",")
		}

		checker := health.NewChecker()
		timeout := time.Duration(config.Config.Health.TimeoutSeconds) * time.Second
		for _, result := range checker.ProbeAll(servers, timeout) {
			printResult(result)
		}
	},
}

func printResult(r models.HealthCheckResult) {
	if r.Reachable {
		fmt.Printf("%s: reachable (%dms)\n", r.Server, *r.LatencyMs)
	} else {
		fmt.Printf("%s: unreachable (%s)\n", r.Server, r.Error)
	}
}

func init() {
	healthCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkServers, "servers", "", "Comma-separated relay servers to probe instead of the configured list")
}
