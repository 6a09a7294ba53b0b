package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/shareporter/shareporter/internal/bootstrap"
	"github.com/shareporter/shareporter/internal/conf"
	"github.com/shareporter/shareporter/pkg/utils"
	"github.com/shareporter/shareporter/server"
)

var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server and the cron runner",
	Run: func(cmd *cobra.Command, args []string) {
		if err := bootstrap.Init(); err != nil {
			utils.Log.Fatalf("init failed: %+v", err)
		}

		gin.SetMode(gin.ReleaseMode)
		engine := gin.New()
		engine.Use(gin.LoggerWithWriter(utils.Log.Out), gin.RecoveryWithWriter(utils.Log.Out))
		server.Init(engine)

		srv := &http.Server{Addr: conf.Conf.ListenAddr(), Handler: engine}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				utils.Log.Fatalf("listen on %s failed: %+v", srv.Addr, err)
			}
		}()
		utils.Log.Infof("listening on %s", srv.Addr)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		utils.Log.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			utils.Log.Warnf("server shutdown: %+v", err)
		}
		bootstrap.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(ServerCmd)
}
