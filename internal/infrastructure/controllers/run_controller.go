package controllers

import (
	"context"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/repopatch/internal/domain/commands"
	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

// RunController handles the "run" subcommand (batch mode).
type RunController struct {
	command commands.Run
	exit    func(code int)
}

// NewRunController creates a new RunController.
func NewRunController(command commands.Run) *RunController {
	return &RunController{command: command, exit: os.Exit}
}

// GetBind returns the Cobra command metadata for the run controller.
func (it *RunController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "run",
		Short: "Apply the configured file action to every repository",
		Long: `Read the batch file, select the repositories (listed explicitly or
discovered by owner, name search and CEL filter), resolve the placeholders
of each repository and apply the configured action: remove a file, update
or create files, or add a new file. Each repository gets its own branch
and pull request.

Exits with a non-zero status when any repository failed.`,
	}
}

// Execute runs the batch and prints the results table.
func (it *RunController) Execute(cmd *cobra.Command, _ []string) {
	ctx := context.Background()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	token, _ := cmd.Flags().GetString("token")

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		it.exit(1)
		return
	}

	logger.Info("Starting repopatch run...")

	batch, err := it.command.Execute(ctx, settings, commands.RunOptions{
		DryRun:  dryRun,
		Verbose: verbose,
		Token:   token,
	})
	if err != nil {
		logger.Errorf("Run failed: %v", err)
		it.exit(1)
		return
	}

	printBatchReport(cmd.OutOrStdout(), batch, verbose)
	if batch.Failed() > 0 {
		it.exit(1)
	}
}

// loadSettings reads the batch file named by --config or found in the default locations.
func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		found, err := entities.FindConfigFile()
		if err != nil {
			return nil, entities.NewConfigError("config",
				"no config file found: %v; specify one with --config or create repopatch.yaml", err)
		}
		configPath = found
	}

	logger.Infof("Using config file: %s", configPath)
	return entities.NewSettings(configPath)
}
