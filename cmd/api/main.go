package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "cardfees",
	Short: "Credit-card interest and late-fee calculator API",
	Long: `cardfees computes interest and late-payment fees on credit-card
statements, stores each calculation, and unlocks the per-transaction
breakdown once a small payment is verified.

Configuration comes from environment variables (DB_SOURCE, SERVER_PORT,
JWT_SECRET, PAYMENT_KEY_ID, ...) or a config file passed with --config.

Examples:
  cardfees migrate
  cardfees serve --port 9090
  cardfees --config /etc/cardfees.yaml`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
