package controllers

import (
	"context"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/repopatch/internal/domain/commands"
	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

// PlaceholdersController handles the "placeholders" subcommand.
type PlaceholdersController struct {
	command commands.TestPlaceholders
	exit    func(code int)
}

// NewPlaceholdersController creates a new PlaceholdersController.
func NewPlaceholdersController(command commands.TestPlaceholders) *PlaceholdersController {
	return &PlaceholdersController{command: command, exit: os.Exit}
}

// GetBind returns the Cobra command metadata for the placeholders controller.
func (it *PlaceholdersController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "placeholders <owner/name>",
		Short: "Resolve the batch file placeholders against one repository",
		Long: `Evaluate every placeholder definition of the batch file against the
default branch of one repository and print each extracted value or the
extraction error. Nothing is written to the repository.`,
	}
}

// Execute resolves and prints the placeholders of the repository given as argument.
func (it *PlaceholdersController) Execute(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if len(args) != 1 {
		logger.Error("expected exactly one repository (owner/name)")
		it.exit(1)
		return
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		it.exit(1)
		return
	}
	if token, _ := cmd.Flags().GetString("token"); token != "" {
		settings.Provider.Token = token
	}

	reports, err := it.command.Execute(ctx, settings, args[0])
	if err != nil {
		logger.Errorf("Placeholder test failed: %v", err)
		it.exit(1)
		return
	}

	printPlaceholderReports(cmd.OutOrStdout(), args[0], reports)
	if failedPlaceholders(reports) > 0 {
		it.exit(1)
	}
}
