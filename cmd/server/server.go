package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"portkeeper/cmd/root"
	"portkeeper/controllers"
	"portkeeper/internal/config"
	"portkeeper/internal/health"
	"portkeeper/internal/logger"
	"portkeeper/internal/middleware"
	"portkeeper/internal/proc"
	"portkeeper/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the keeper HTTP service",
	Run: func(cmd *cobra.Command, args []string) {
		if err := startServer(context.Background()); err != nil {
			logger.Fatal(err)
		}
	},
}

func startServer(ctx context.Context) error {
	cfg := &config.Config

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.MetricsMiddleware())

	supervisor := proc.NewSupervisor()
	checker := health.NewChecker()
	registry := services.NewTunnelRegistry()
	bus := services.NewEventBus()
	manager := services.NewTunnelManager(registry, bus, supervisor, checker, cfg)
	store := services.NewFileStore(config.DataDir())
	services.RememberURLs(store, bus)

	controllers.NewTunnelController(manager, store).RegisterRoutes(router)
	controllers.NewHealthController(checker).RegisterRoutes(router)
	controllers.NewAgentController().RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	autoStartTunnels(manager, store)

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Sweep.Schedule, manager.CheckTunnels); err != nil {
		logger.Errorf("Invalid sweep schedule %q: %v", cfg.Sweep.Schedule, err)
	} else {
		sweeper.Start()
	}

	// Stop agents before the process goes away; orphaned agents would
	// keep ports exposed with nobody watching them.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down, stopping all tunnels")
		sweeper.Stop()
		manager.StopAll()
		os.Exit(0)
	}()

	logger.Infof("Listening on %s", cfg.Server.Address)
	return router.Run(cfg.Server.Address)
}

// autoStartTunnels brings up every stored config flagged for automatic
// start. Failures are logged per instance; one broken config must not
// keep the others down.
func autoStartTunnels(manager *services.TunnelManager, store services.ConfigStore) {
	configs, err := store.List()
	if err != nil {
		logger.Warnf("Failed to list stored tunnel configs: %v", err)
		return
	}
	for i := range configs {
		cfg := configs[i]
		if !cfg.Enabled || !cfg.AutoStart {
			continue
		}
		if err := manager.Start(cfg.InstanceID, &cfg); err != nil {
			logger.Errorf("Auto-start failed for instance %s: %v", cfg.InstanceID, err)
		}
	}
}

func init() {
	root.RootCmd.AddCommand(serverCmd)
}
