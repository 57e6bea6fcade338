package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"volcano-sdk/models"
)

var validateInput string

// validateCmd checks an input configuration offline, without any call
// to the computation server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check an input configuration and its network file without contacting the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := models.LoadInputConfig(validateInput)
		if err != nil {
			return err
		}
		list, err := models.LoadNetworkList(cfg.PredictionSettings.NetworkFile)
		if err != nil {
			return err
		}
		if err := models.ValidateReferences(cfg, list); err != nil {
			return err
		}
		logrus.Infof("%s is valid: %d transmitters, %s %s computation",
			validateInput, len(list.Transmitters), cfg.ComputationType(), cfg.PredictionType())
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "input", "i", "", "Input configuration file (json or yaml)")
	validateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(validateCmd)
}
