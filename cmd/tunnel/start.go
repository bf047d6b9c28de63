package tunnel

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"portkeeper/internal/config"
	"portkeeper/internal/health"
	"portkeeper/internal/logger"
	"portkeeper/internal/models"
	"portkeeper/internal/proc"
	"portkeeper/internal/rpc"
	"portkeeper/services"

	"github.com/spf13/cobra"
)

var (
	startInstance string
	startProvider string
	startPort     int
	startSecret   string
	startServers  string
	startAuto     bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a tunnel for a server instance",
	Run: func(cmd *cobra.Command, args []string) {
		if startInstance == "" {
			logger.Fatal("Must specify instance id (--instance)")
		}
		p, err := models.ParseProviderType(startProvider)
		if err != nil {
			logger.Fatal(err)
		}
		if startPort <= 0 {
			logger.Fatal("Must specify local port (--port)")
		}

		cfg := models.TunnelConfig{
			Provider:  p,
			Enabled:   true,
			AutoStart: startAuto,
			Secret:    startSecret,
			Port:      startPort,
		}
		if startServers != "" {
			cfg.CandidateServers = strings.Split(startServers, ",")
		}

		client := rpc.NewClient()
		if client.Available() {
			startViaRPC(client, startInstance, cfg)
			return
		}

		logger.Info("Keeper daemon is not running, starting tunnel in foreground")
		startForeground(startInstance, cfg)
	},
}

func startViaRPC(client *rpc.Client, instanceID string, cfg models.TunnelConfig) {
	resp, err := client.Post("/portkeeper/api/v1/tunnels", models.StartTunnelRequest{
		InstanceID: instanceID,
		Config:     cfg,
	})
	if err != nil {
		logger.Fatalf("Failed to call keeper API: %v", err)
	}
	if !resp.Ok() {
		logger.Fatalf("Failed to start tunnel: %s", resp.Error)
	}
	fmt.Printf("Tunnel started for instance %s\n", instanceID)
}

// startForeground runs the tunnel inside this process until interrupted.
// The agent is this process's child, so exiting stops the tunnel.
func startForeground(instanceID string, cfg models.TunnelConfig) {
	supervisor := proc.NewSupervisor()
	checker := health.NewChecker()
	bus := services.NewEventBus()
	bus.SubscribeStatus(func(ev services.StatusEvent) {
		switch ev.Status.Kind {
		case models.StatusConnected:
			fmt.Printf("Tunnel connected: %s\n", ev.Status.URL)
		case models.StatusWaitingForClaim:
			fmt.Printf("Claim your tunnel at: %s\n", ev.Status.ClaimURL)
		case models.StatusError:
			fmt.Printf("Tunnel error: %s\n", ev.Status.Message)
		}
	})
	manager := services.NewTunnelManager(services.NewTunnelRegistry(), bus, supervisor, checker, &config.Config)

	if err := manager.Start(instanceID, &cfg); err != nil {
		logger.Fatalf("Failed to start tunnel: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	manager.StopAll()
}

func init() {
	tunnelCmd.AddCommand(startCmd)

	startCmd.Flags().StringVarP(&startInstance, "instance", "i", "", "Server instance id")
	startCmd.Flags().StringVarP(&startProvider, "provider", "p", "bore", "Tunnel provider (bore, cloudflare, ngrok, playit)")
	startCmd.Flags().IntVarP(&startPort, "port", "P", 0, "Local port to expose")
	startCmd.Flags().StringVarP(&startSecret, "secret", "s", "", "Provider credential (ngrok authtoken, playit secret, bore secret)")
	startCmd.Flags().StringVar(&startServers, "servers", "", "Comma-separated relay server candidates (bore only)")
	startCmd.Flags().BoolVar(&startAuto, "auto-start", false, "Start this tunnel automatically when the keeper starts")
}
