package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	volcano "volcano-sdk"
	"volcano-sdk/models"
	"volcano-sdk/services"
)

var (
	inputPath           string        // Input configuration file
	downloadPredictions bool          // Also pull the per-transmitter prediction rasters
	pollInterval        time.Duration // Delay between two status polls
	pollTimeout         time.Duration // Give up polling after this duration, 0 waits forever
	outputOverride      string        // Override the outputPath of the input file
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation from an input configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input configuration file (json or yaml)")
	runCmd.Flags().BoolVarP(&downloadPredictions, "download-predictions", "p", false, "Also download the per-transmitter prediction rasters")
	runCmd.Flags().DurationVar(&pollInterval, "poll-interval", services.DefaultPollInterval, "Delay between two status polls")
	runCmd.Flags().DurationVar(&pollTimeout, "timeout", 0, "Give up polling after this duration (0 waits forever)")
	runCmd.Flags().StringVar(&outputOverride, "output", "", "Override the outputPath of the input configuration")
	runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}

func runSimulation(ctx context.Context) error {
	start := time.Now()

	cfg, err := models.LoadInputConfig(inputPath)
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

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	resources, err := provision(ctx, client, cfg)
	if err != nil {
		return err
	}

	out, err := models.BuildSimulationRequest(cfg, list, resources)
	if err != nil {
		return err
	}
	for _, w := range out.Warnings {
		logrus.Warn(w)
	}

	logrus.Info("Simulation calculation ...")
	job, err := client.Simulations.Submit(ctx, out)
	if err != nil {
		return err
	}

	simStart := time.Now()
	job, err = waitForSimulation(ctx, client.Simulations, job, services.PollConfig{
		Interval: pollInterval,
		MaxWait:  pollTimeout,
	})
	if err != nil {
		return err
	}
	if job.Failed() {
		logrus.Errorf("Error simulation %s", job.ID)
		for i, msg := range job.Err {
			logrus.Errorf("%d : %s", i, msg)
		}
		return fmt.Errorf("simulation %s failed", job.ID)
	}
	if len(job.Warnings) > 0 {
		logrus.Warnf("Simulation finished : some steps failed %s", job.ID)
		for i, msg := range job.Warnings {
			logrus.Errorf("%d : %s", i, msg)
		}
		logrus.Warn("Simulation may have partial results")
	} else {
		logrus.Infof("Success simulation %s", job.ID)
	}
	computationDone := time.Now()

	// outputPath/sessionName/date/networkFileName
	outputRoot := cfg.OutputPath
	if outputOverride != "" {
		outputRoot = outputOverride
	}
	networkFile := filepath.Base(cfg.PredictionSettings.NetworkFile)
	networkBase := strings.TrimSuffix(networkFile, filepath.Ext(networkFile))
	runDir := filepath.Join(outputRoot, cfg.Session.Name,
		time.Now().UTC().Format("20060102-150405"), networkBase)

	logrus.Infof("Download simulation results %s", job.ID)
	artifacts, err := client.Simulations.Results(ctx, job.ID)
	if err != nil {
		return err
	}
	if err := client.Results.DownloadAll(ctx, artifacts, filepath.Join(runDir, "simulationResult")); err != nil {
		return err
	}
	downloadDone := time.Now()

	if downloadPredictions {
		if err := downloadPredictionResults(ctx, client, job.ID, filepath.Join(runDir, "predictionsResults")); err != nil {
			return err
		}
	}
	predictionsDone := time.Now()

	logrus.Infof("Simulation execution time: %.2f seconds", downloadDone.Sub(simStart).Seconds())
	logrus.Infof("    - Simulation computation time: %.2f seconds", computationDone.Sub(simStart).Seconds())
	logrus.Infof("    - Simulation download time: %.2f seconds", downloadDone.Sub(computationDone).Seconds())
	if downloadPredictions {
		logrus.Infof("    - Prediction download time: %.2f seconds", predictionsDone.Sub(downloadDone).Seconds())
	}
	logrus.Infof("Job done. All results are available in the following path : %s", runDir)

	if cfg.PredictionSettings.DeleteScenariiDir {
		logrus.Info("Deleting volcano scenarii folders ...")
		if err := client.Maintenance.CleanupScenarioDirs(ctx); err != nil {
			logrus.Warnf("Scenarii folders cleanup failed: %v", err)
		}
	}

	logrus.Infof("Total execution time: %.2f seconds", time.Since(start).Seconds())
	return nil
}

func newClient(cfg *models.InputConfig) (*volcano.VolcanoClient, error) {
	// Raster downloads can take a while, leave the per-request timeout
	// well above the SDK default
	opts := []volcano.ClientOption{volcano.WithTimeout(10 * time.Minute)}
	if cfg.AuthRequired() {
		creds, err := resolveCredentials(cfg.Authentication)
		if err != nil {
			return nil, err
		}
		opts = append(opts,
			volcano.WithTokenSource(volcano.NewPasswordTokenSource(creds)),
			volcano.WithPublicPredictions(cfg.Authentication.PublicPrediction),
		)
	}
	return volcano.NewClient(cfg.ServerURL, opts...), nil
}

// provision declares every resource of the input configuration on the
// server and collects the name to uuid indexes the simulation request
// is built from.
func provision(ctx context.Context, client *volcano.VolcanoClient, cfg *models.InputConfig) (*models.ResourceIndex, error) {
	mapdata, err := client.MapData.Create(ctx, cfg.MapData)
	if err != nil {
		return nil, err
	}

	antennas, known, err := client.Antennas.Create(ctx, cfg.Antennas)
	if err != nil {
		return nil, err
	}
	for _, name := range known {
		logrus.Infof("Antenna %s already exists on the server", name)
	}

	if cfg.ComputationType() == models.Computation5G && len(cfg.Gobs) > 0 {
		gobs, knownGobs, err := client.Antennas.CreateGobs(ctx, cfg.Gobs, antennas)
		if err != nil {
			return nil, err
		}
		for _, name := range knownGobs {
			logrus.Infof("Gob %s already exists on the server", name)
		}
		for name, id := range gobs {
			antennas[name] = id
		}
	}

	if err := client.Sessions.Create(ctx, cfg.Session); err != nil {
		return nil, err
	}

	modelIndex, err := client.Models.Create(ctx, cfg.Models, mapdata, cfg.Session.UUID)
	if err != nil {
		return nil, err
	}

	return &models.ResourceIndex{
		SessionUUID: cfg.Session.UUID,
		Antennas:    antennas,
		Models:      modelIndex,
	}, nil
}

func downloadPredictionResults(ctx context.Context, client *volcano.VolcanoClient, simulationID, dir string) error {
	logrus.Infof("Download predictions results of simulation %s", simulationID)

	info, err := client.Simulations.Get(ctx, simulationID)
	if err != nil {
		return err
	}
	groupID, ok := info.PredictionGroupUUID()
	if !ok {
		return fmt.Errorf("prediction group uuid cannot be extracted from simulation %s", simulationID)
	}

	predictions, err := client.Predictions.List(ctx, groupID)
	if err != nil {
		return err
	}
	for _, prediction := range predictions {
		artifacts, err := client.Predictions.Results(ctx, prediction.UUID)
		if err != nil {
			return err
		}
		if err := client.Results.DownloadAll(ctx, artifacts, filepath.Join(dir, prediction.Name)); err != nil {
			return err
		}
	}
	return nil
}
