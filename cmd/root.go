// Package cmd implements the nailgrow command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cppla/nailgrow/config"
	"github.com/cppla/nailgrow/utils"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "nailgrow",
	Short: "Habit streak ledger for quitting nail biting",
	Long: `Nailgrow keeps a daily check-in streak, rewards check-ins with credits
and spends those credits on nail-art inspiration. It runs as a small JSON API
for the mobile client and offers the same ledger operations on the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if cfgFile != "" {
			c, err := config.LoadFrom(cfgFile)
			if err != nil {
				return fmt.Errorf("load config %s: %w", cfgFile, err)
			}
			cfg = c
		}
		return utils.InitLogger(cfg)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is config/config.json or $NAILGROW_CONFIG)")
}
