package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/punchamoorthee/cardfees/internal/api"
	"github.com/punchamoorthee/cardfees/internal/config"
	"github.com/punchamoorthee/cardfees/internal/mailer"
	"github.com/punchamoorthee/cardfees/internal/payment"
	"github.com/punchamoorthee/cardfees/internal/service"
	"github.com/punchamoorthee/cardfees/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "listen port (overrides SERVER_PORT)")
	v.BindPFlag("server_port", serveCmd.Flags().Lookup("port"))
	// serve is also the root's default action, so the root accepts its flags.
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFrom(v, cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.New(ctx, cfg.DBSource, cfg.DBMaxConns)
	if err != nil {
		log.Printf("Unable to connect to database: %v", err)
		return err
	}
	defer db.Close()

	var m service.Mailer = mailer.LogMailer{}
	if cfg.SMTPHost != "" {
		m = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		log.Printf("SMTP_HOST not set, emails will be logged instead of sent")
	}

	// Initialize Layers
	gateway := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentKeyID, cfg.PaymentKeySecret)
	handler := api.NewHandler(
		service.NewCalculationService(db),
		service.NewPaymentService(db, gateway, cfg.PaymentKeySecret, cfg.UnlockFeePaise, cfg.Currency),
		service.NewAuthService(db, m, service.AuthConfig{
			JWTSecret: cfg.JWTSecret,
			BaseURL:   cfg.AppBaseURL,
		}),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler, cfg.RequestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on :%s (%s)", cfg.Port, cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
