package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	backend "github.com/redis/go-redis/v9"

	"github.com/BiAffectBridge/cairn"
	"github.com/BiAffectBridge/cairn/pkg/adapters/file"
	httpAdapter "github.com/BiAffectBridge/cairn/pkg/adapters/http"
	redisAdapter "github.com/BiAffectBridge/cairn/pkg/adapters/redis"
	"github.com/BiAffectBridge/cairn/pkg/ports"
	"github.com/BiAffectBridge/cairn/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the Cairn engine in server mode, exposing assessment runs as a JSON API over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		port, _ := cmd.Flags().GetString("port")
		saveDir, _ := cmd.Flags().GetString("save-dir")
		redisAddr, _ := cmd.Flags().GetString("redis")
		redisPassword, _ := cmd.Flags().GetString("redis-password")
		redisDB, _ := cmd.Flags().GetInt("redis-db")

		logger, err := newLogger(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		loader := file.NewLoader(dir)
		engine, err := cairn.New(loader, cairn.WithLogger(logger))
		if err != nil {
			fmt.Printf("Error initializing cairn: %v\n", err)
			os.Exit(1)
		}

		var (
			store  ports.ResultStore
			locker ports.RunLocker
		)
		if redisAddr != "" {
			client := backend.NewClient(&backend.Options{
				Addr:     redisAddr,
				Password: redisPassword,
				DB:       redisDB,
			})
			store = redisAdapter.NewFromClient(client)
			locker = redisAdapter.NewLocker(client, "cairn:")
		} else {
			store = file.NewStore(saveDir)
		}

		sessionOpts := []session.Option{session.WithLogger(logger)}
		if locker != nil {
			sessionOpts = append(sessionOpts, session.WithLocker(locker))
		}
		sessions := session.NewManager(store, sessionOpts...)

		handler := httpAdapter.NewHandler(engine, sessions, httpAdapter.WithLogger(logger))

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Cairn Server on %s\n", srv.Addr)
			fmt.Printf("Serving assessments from: %s\n", dir)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Cairn Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("save-dir", ".cairn/runs", "Directory for saved run results (ignored with --redis)")
	serveCmd.Flags().String("redis", "", "Redis address for shared run storage (e.g. localhost:6379)")
	serveCmd.Flags().String("redis-password", "", "Redis password")
	serveCmd.Flags().Int("redis-db", 0, "Redis database number")
}
