package entities

// ActionType names one of the batch file actions.
type ActionType string

const (
	ActionRemoveFile ActionType = "remove_file"
	ActionUpdateFile ActionType = "update_file"
	ActionAddFile    ActionType = "add_file"
)

// Parameter keys shared by the action configs.
const (
	ParamFilePath       = "file_path"
	ParamTargetFilePath = "target_file_path"
	ParamFileContent    = "file_content"
	ParamSearch         = "search"
	ParamReplace        = "replace"
	ParamTargetPath     = "target_path"
	ParamFilenameFilter = "filename_filter"
	ParamContentQuery   = "content_query"
	ParamBranchName     = "branch_name"
	ParamCommitMessage  = "commit_message"
	ParamPRTitle        = "pr_title"
	ParamPRBody         = "pr_body"
)

// UpdateMode selects how Update-or-Create computes the new content.
type UpdateMode string

const (
	UpdateModeReplace       UpdateMode = "replace"
	UpdateModeSearchReplace UpdateMode = "search_replace"
)

// UnchangedPolicy decides what happens when the computed content equals the current content.
type UnchangedPolicy string

const (
	// UnchangedSkip leaves the file alone and does not count it as changed.
	UnchangedSkip UnchangedPolicy = "skip"
	// UnchangedCommit writes the file anyway and counts it as changed.
	UnchangedCommit UnchangedPolicy = "commit"
)

// PullRequestTemplate holds the human-facing text of the branch, commit and pull request.
type PullRequestTemplate struct {
	BranchName    string `yaml:"branch_name"`
	CommitMessage string `yaml:"commit_message"`
	PRTitle       string `yaml:"pr_title"`
	PRBody        string `yaml:"pr_body"`
}

func (t PullRequestTemplate) orDefaults(defaults PullRequestTemplate) PullRequestTemplate {
	if t.BranchName == "" {
		t.BranchName = defaults.BranchName
	}
	if t.CommitMessage == "" {
		t.CommitMessage = defaults.CommitMessage
	}
	if t.PRTitle == "" {
		t.PRTitle = defaults.PRTitle
	}
	if t.PRBody == "" {
		t.PRBody = defaults.PRBody
	}
	return t
}

func (t PullRequestTemplate) appendTo(params ActionParams) ActionParams {
	return append(params,
		Param{Key: ParamBranchName, Value: t.BranchName},
		Param{Key: ParamCommitMessage, Value: t.CommitMessage},
		Param{Key: ParamPRTitle, Value: t.PRTitle},
		Param{Key: ParamPRBody, Value: t.PRBody},
	)
}

// RemoveFileConfig deletes one file per repository.
type RemoveFileConfig struct {
	FilePath            string `yaml:"file_path"`
	PullRequestTemplate `yaml:",inline"`
}

// Params returns the raw parameters with default templates applied.
func (c RemoveFileConfig) Params() ActionParams {
	tpl := c.PullRequestTemplate.orDefaults(PullRequestTemplate{
		BranchName:    "remove-file-{{timestamp}}",
		CommitMessage: "Remove {{file_path}}",
		PRTitle:       "Remove {{file_path}}",
		PRBody:        "Automated removal of `{{file_path}}` from {{repo_full_name}}.",
	})
	return tpl.appendTo(ActionParams{{Key: ParamFilePath, Value: c.FilePath}})
}

// RemovePhase2Keys are re-substituted once file_path is known.
func RemovePhase2Keys() []string {
	return []string{ParamBranchName, ParamCommitMessage, ParamPRTitle, ParamPRBody}
}

// UpdateFileConfig updates or creates one explicit file, or every file matched
// by TargetPath, FilenameFilter and ContentQuery when FilePath is empty.
type UpdateFileConfig struct {
	FilePath       string          `yaml:"file_path"`
	TargetPath     string          `yaml:"target_path"`
	FilenameFilter string          `yaml:"filename_filter"`
	ContentQuery   string          `yaml:"content_query"`
	Mode           UpdateMode      `yaml:"update_mode"`
	FileContent    string          `yaml:"file_content"`
	Search         string          `yaml:"search"`
	Replace        string          `yaml:"replace"`
	IsRegex        bool            `yaml:"is_regex"`
	ReplaceAll     *bool           `yaml:"replace_all"`
	ForceUpdate    bool            `yaml:"force_update"`
	Unchanged      UnchangedPolicy `yaml:"unchanged_policy"`

	PullRequestTemplate `yaml:",inline"`
}

// MultiFile reports whether targets are discovered instead of named explicitly.
func (c UpdateFileConfig) MultiFile() bool {
	return c.FilePath == "" && (c.TargetPath != "" || c.FilenameFilter != "" || c.ContentQuery != "")
}

// ReplaceAllOccurrences defaults to true when unset.
func (c UpdateFileConfig) ReplaceAllOccurrences() bool {
	return c.ReplaceAll == nil || *c.ReplaceAll
}

// UnchangedPolicy defaults to UnchangedSkip.
func (c UpdateFileConfig) UnchangedPolicy() UnchangedPolicy {
	if c.Unchanged == "" {
		return UnchangedSkip
	}
	return c.Unchanged
}

// ActionName is the branch-name prefix of the action.
func (c UpdateFileConfig) ActionName() string {
	if c.MultiFile() {
		return "update-files"
	}
	return "update-file"
}

// Params returns the raw parameters with default templates applied.
func (c UpdateFileConfig) Params() ActionParams {
	defaults := PullRequestTemplate{
		BranchName:    "update-file-{{timestamp}}",
		CommitMessage: "Update {{file_path}}",
		PRTitle:       "Update {{file_path}}",
		PRBody:        "Automated update of `{{file_path}}` in {{repo_full_name}}.",
	}
	if c.MultiFile() {
		defaults = PullRequestTemplate{
			BranchName:    "update-files-{{timestamp}}",
			CommitMessage: "Update {{file_path}}",
			PRTitle:       "Update files in {{repo_name}}",
			PRBody:        "Automated update of the following files:\n\n{{changed_files}}",
		}
	}
	tpl := c.PullRequestTemplate.orDefaults(defaults)

	params := ActionParams{}
	if c.MultiFile() {
		params = append(params, Param{Key: ParamTargetPath, Value: c.TargetPath},
			Param{Key: ParamFilenameFilter, Value: c.FilenameFilter},
			Param{Key: ParamContentQuery, Value: c.ContentQuery})
	} else {
		params = append(params, Param{Key: ParamFilePath, Value: c.FilePath})
	}
	params = append(params,
		Param{Key: ParamFileContent, Value: c.FileContent},
		Param{Key: ParamSearch, Value: c.Search},
		Param{Key: ParamReplace, Value: c.Replace},
	)
	return tpl.appendTo(params)
}

// UpdatePhase2Keys are re-substituted once file_path is known.
func UpdatePhase2Keys() []string {
	return []string{ParamBranchName, ParamCommitMessage, ParamPRTitle, ParamPRBody}
}

// AddFileConfig creates one new file per repository.
type AddFileConfig struct {
	FilePath            string `yaml:"file_path"`
	FileContent         string `yaml:"file_content"`
	PullRequestTemplate `yaml:",inline"`
}

// Params returns the raw parameters with default templates applied.
func (c AddFileConfig) Params() ActionParams {
	tpl := c.PullRequestTemplate.orDefaults(PullRequestTemplate{
		BranchName:    "add-file-{{timestamp}}",
		CommitMessage: "Add {{file_path}}",
		PRTitle:       "Add {{file_path}}",
		PRBody:        "Automated addition of `{{file_path}}` to {{repo_full_name}}.",
	})
	return tpl.appendTo(ActionParams{
		{Key: ParamFilePath, Value: c.FilePath},
		{Key: ParamFileContent, Value: c.FileContent},
	})
}

// AddPhase2Keys are re-substituted once file_path is known.
func AddPhase2Keys() []string {
	return []string{ParamFilePath, ParamFileContent, ParamBranchName, ParamCommitMessage, ParamPRTitle, ParamPRBody}
}
