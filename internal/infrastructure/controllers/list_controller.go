package controllers

import (
	"context"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/repopatch/internal/domain/commands"
	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

// ListController handles the "list" subcommand.
type ListController struct {
	command commands.ListRepositories
	exit    func(code int)
}

// NewListController creates a new ListController.
func NewListController(command commands.ListRepositories) *ListController {
	return &ListController{command: command, exit: os.Exit}
}

// GetBind returns the Cobra command metadata for the list controller.
func (it *ListController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "list",
		Short: "List the repositories a batch would target",
		Long: `List the repositories of an owner (organization, user or group),
optionally narrowed by a case-insensitive name search and a CEL filter
over repository metadata, for example:

  repopatch list --owner my-org --filter '!repo.archived && !repo.fork'

Provider settings and discovery defaults come from the batch file when one
is found; flags override them.`,
	}
}

// Execute lists the matching repositories.
func (it *ListController) Execute(cmd *cobra.Command, _ []string) {
	ctx := context.Background()

	opts := commands.ListOptions{}
	if settings, err := loadSettings(cmd); err == nil {
		opts.Provider = settings.Provider
		if settings.Discover != nil {
			opts.Discover = *settings.Discover
		}
	} else {
		logger.Debugf("No usable config file, relying on flags: %v", err)
	}

	overrideString(cmd, "provider", &opts.Provider.Type)
	overrideString(cmd, "base-url", &opts.Provider.BaseURL)
	overrideString(cmd, "token", &opts.Provider.Token)
	overrideString(cmd, "owner", &opts.Discover.Owner)
	overrideString(cmd, "search", &opts.Discover.Search)
	overrideString(cmd, "filter", &opts.Discover.Filter)
	if cmd.Flags().Changed("limit") {
		opts.Discover.Limit, _ = cmd.Flags().GetInt("limit")
	}
	if opts.Provider.Type == "" {
		opts.Provider.Type = "github"
	}

	repos, err := it.command.Execute(ctx, opts)
	if err != nil {
		logger.Errorf("List failed: %v", err)
		it.exit(1)
		return
	}
	printRepositories(cmd.OutOrStdout(), repos)
}

// AddFlags adds the list-specific flags to the given Cobra command.
func (it *ListController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "Git hosting provider (github, gitlab, azuredevops)")
	cmd.Flags().String("base-url", "", "Base URL of a self-hosted instance or Azure DevOps organization")
	cmd.Flags().String("owner", "", "Organization, user or group to list")
	cmd.Flags().String("search", "", "Case-insensitive substring of the repository name")
	cmd.Flags().String("filter", "", "CEL expression over `repo`, e.g. '!repo.archived'")
	cmd.Flags().Int("limit", 0, "Maximum number of repositories (0 = no limit)")
}

func overrideString(cmd *cobra.Command, flag string, target *string) {
	if value, err := cmd.Flags().GetString(flag); err == nil && value != "" {
		*target = value
	}
}
