package azuredevops

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

const (
	providerName  = "azuredevops"
	headsPrefix   = "refs/heads/"
	searchTop     = 100
	treeType      = "tree"
	publicProject = "public"
)

var commitSHAPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// AzureDevOpsHostRepository implements repositories.HostRepository for Azure DevOps.
// Repositories are addressed as "project/repository" inside the organization of
// the base URL. Every write is a push guarded by the branch head, and blob SHAs
// are compared locally before it.
type AzureDevOpsHostRepository struct {
	client *client
}

// NewAzureDevOpsHostRepository creates a host for the organization named by
// baseURL (a full URL or just the organization name) with a personal access token.
func NewAzureDevOpsHostRepository(token, baseURL string) repositories.HostRepository {
	return &AzureDevOpsHostRepository{client: newClient(baseURL, token)}
}

func (p *AzureDevOpsHostRepository) Name() string { return providerName }

type project struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Visibility     string    `json:"visibility"`
	LastUpdateTime time.Time `json:"lastUpdateTime"`
}

type repository struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	WebURL        string  `json:"webUrl"`
	DefaultBranch string  `json:"defaultBranch"`
	IsFork        bool    `json:"isFork"`
	IsDisabled    bool    `json:"isDisabled"`
	Project       project `json:"project"`
}

type item struct {
	ObjectID      string `json:"objectId"`
	GitObjectType string `json:"gitObjectType"`
	Path          string `json:"path"`
	IsFolder      bool   `json:"isFolder"`
	Content       string `json:"content"`
}

type ref struct {
	Name     string `json:"name"`
	ObjectID string `json:"objectId"`
}

type pullRequest struct {
	ID     int    `json:"pullRequestId"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

func (p *AzureDevOpsHostRepository) GetRepository(
	ctx context.Context,
	fullName string,
) (entities.Repository, error) {
	projectName, repoName := entities.SplitFullName(fullName)

	var repo repository
	_, err := p.client.get(ctx, "get repository "+fullName,
		endpoint(nil, projectName, "_apis", "git", "repositories", repoName), &repo)
	if err != nil {
		return entities.Repository{}, err
	}
	return toRepository(repo), nil
}

// ListRepositories lists the repositories of a project. Passing the
// organization name lists every project of the organization.
func (p *AzureDevOpsHostRepository) ListRepositories(
	ctx context.Context,
	owner string,
) ([]entities.Repository, error) {
	if !strings.EqualFold(owner, p.client.organization()) {
		return p.listProjectRepositories(ctx, owner)
	}

	projects, err := p.listProjects(ctx)
	if err != nil {
		return nil, err
	}

	var allRepos []entities.Repository
	for _, proj := range projects {
		repos, listErr := p.listProjectRepositories(ctx, proj.Name)
		if listErr != nil {
			logger.Warnf("Skipping project %q: %v", proj.Name, listErr)
			continue
		}
		allRepos = append(allRepos, repos...)
	}
	return allRepos, nil
}

func (p *AzureDevOpsHostRepository) listProjects(ctx context.Context) ([]project, error) {
	var allProjects []project
	continuationToken := ""

	for {
		query := url.Values{}
		if continuationToken != "" {
			query.Set("continuationToken", continuationToken)
		}

		var result struct {
			Value []project `json:"value"`
		}
		headers, err := p.client.get(ctx, "list projects", endpoint(query, "_apis", "projects"), &result)
		if err != nil {
			return nil, err
		}
		allProjects = append(allProjects, result.Value...)

		continuationToken = headers.Get("x-ms-continuationtoken")
		if continuationToken == "" {
			break
		}
	}

	return allProjects, nil
}

func (p *AzureDevOpsHostRepository) listProjectRepositories(
	ctx context.Context,
	projectName string,
) ([]entities.Repository, error) {
	var result struct {
		Value []repository `json:"value"`
	}
	_, err := p.client.get(ctx, fmt.Sprintf("list repositories for %q", projectName),
		endpoint(nil, projectName, "_apis", "git", "repositories"), &result)
	if err != nil {
		return nil, err
	}

	repos := make([]entities.Repository, 0, len(result.Value))
	for _, repo := range result.Value {
		repos = append(repos, toRepository(repo))
	}
	return repos, nil
}

func (p *AzureDevOpsHostRepository) GetFile(
	ctx context.Context,
	repoFullName, path, refName string,
) (*entities.FileContent, error) {
	file, err := p.getItem(ctx, repoFullName, path, refName, true)
	if err != nil {
		return nil, err
	}
	if file.IsFolder || file.GitObjectType == treeType {
		return nil, fmt.Errorf("failed to get file %q: %w", path, entities.ErrIsDirectory)
	}

	return &entities.FileContent{
		Path:    strings.TrimPrefix(file.Path, "/"),
		Content: file.Content,
		SHA:     file.ObjectID,
	}, nil
}

func (p *AzureDevOpsHostRepository) getItem(
	ctx context.Context,
	repoFullName, path, refName string,
	includeContent bool,
) (*item, error) {
	projectName, repoName := entities.SplitFullName(repoFullName)

	query := versionQuery(refName)
	query.Set("path", itemPath(path))
	query.Set("$format", "json")
	if includeContent {
		query.Set("includeContent", "true")
	}

	var file item
	_, err := p.client.get(ctx, fmt.Sprintf("get file %q", path),
		endpoint(query, projectName, "_apis", "git", "repositories", repoName, "items"), &file)
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (p *AzureDevOpsHostRepository) GetBranch(
	ctx context.Context,
	repoFullName, branchName string,
) (entities.Branch, bool, error) {
	projectName, repoName := entities.SplitFullName(repoFullName)

	query := url.Values{}
	query.Set("filter", "heads/"+branchName)

	var result struct {
		Value []ref `json:"value"`
	}
	_, err := p.client.get(ctx, fmt.Sprintf("get branch %q", branchName),
		endpoint(query, projectName, "_apis", "git", "repositories", repoName, "refs"), &result)
	if err != nil {
		if entities.IsNotFound(err) {
			return entities.Branch{}, false, nil
		}
		return entities.Branch{}, false, err
	}

	// the filter is a prefix match
	for _, candidate := range result.Value {
		if candidate.Name == headsPrefix+branchName {
			return entities.Branch{Name: branchName, SHA: candidate.ObjectID}, true, nil
		}
	}
	return entities.Branch{}, false, nil
}

func (p *AzureDevOpsHostRepository) CreateBranch(
	ctx context.Context,
	repoFullName, branchName, sha string,
) error {
	projectName, repoName := entities.SplitFullName(repoFullName)
	op := fmt.Sprintf("create branch %q", branchName)

	body := []map[string]string{{
		"name":        headsPrefix + branchName,
		"oldObjectId": zeroObjectID,
		"newObjectId": sha,
	}}

	var result struct {
		Value []struct {
			Success      bool   `json:"success"`
			UpdateStatus string `json:"updateStatus"`
		} `json:"value"`
	}
	if err := p.client.post(ctx, op,
		endpoint(nil, projectName, "_apis", "git", "repositories", repoName, "refs"), body, &result); err != nil {
		return err
	}

	for _, update := range result.Value {
		if !update.Success {
			return &entities.HostAPIError{
				Op:      "failed to " + op,
				Status:  http.StatusConflict,
				Message: update.UpdateStatus,
				Err:     entities.ErrAlreadyExists,
			}
		}
	}
	return nil
}

func (p *AzureDevOpsHostRepository) PutFile(
	ctx context.Context,
	repoFullName string,
	write entities.FileWrite,
) (string, error) {
	changeType := "add"
	if write.SHA != "" {
		if err := p.guard(ctx, repoFullName, write.Path, write.Branch, write.SHA); err != nil {
			return "", err
		}
		changeType = "edit"
	}

	change := map[string]any{
		"changeType": changeType,
		"item":       map[string]string{"path": itemPath(write.Path)},
		"newContent": map[string]string{
			"content":     base64.StdEncoding.EncodeToString([]byte(write.Content)),
			"contentType": "base64encoded",
		},
	}
	op := fmt.Sprintf("%s file %q", changeVerb(changeType), write.Path)
	if err := p.push(ctx, op, repoFullName, write.Branch, write.Message, change); err != nil {
		return "", err
	}
	return entities.BlobHash(write.Content), nil
}

func (p *AzureDevOpsHostRepository) DeleteFile(
	ctx context.Context,
	repoFullName string,
	deletion entities.FileDeletion,
) error {
	if err := p.guard(ctx, repoFullName, deletion.Path, deletion.Branch, deletion.SHA); err != nil {
		return err
	}

	change := map[string]any{
		"changeType": "delete",
		"item":       map[string]string{"path": itemPath(deletion.Path)},
	}
	return p.push(ctx, fmt.Sprintf("delete file %q", deletion.Path),
		repoFullName, deletion.Branch, deletion.Message, change)
}

// guard checks the expected blob SHA of path on branch.
func (p *AzureDevOpsHostRepository) guard(
	ctx context.Context,
	repoFullName, path, branch, expectedSHA string,
) error {
	current, err := p.getItem(ctx, repoFullName, path, branch, false)
	if err != nil {
		return err
	}
	if current.ObjectID != expectedSHA {
		return &entities.HostAPIError{
			Op:      fmt.Sprintf("failed to write file %q", path),
			Status:  http.StatusConflict,
			Message: fmt.Sprintf("blob %s does not match expected %s", current.ObjectID, expectedSHA),
			Err:     entities.ErrConflict,
		}
	}
	return nil
}

// push commits one change on top of the current head of branch. A head moved
// by another client fails with a conflict.
func (p *AzureDevOpsHostRepository) push(
	ctx context.Context,
	op, repoFullName, branchName, message string,
	change map[string]any,
) error {
	head, found, err := p.GetBranch(ctx, repoFullName, branchName)
	if err != nil {
		return err
	}
	if !found {
		return &entities.HostAPIError{
			Op:      "failed to " + op,
			Status:  http.StatusNotFound,
			Message: fmt.Sprintf("branch %q does not exist", branchName),
			Err:     entities.ErrNotFound,
		}
	}

	projectName, repoName := entities.SplitFullName(repoFullName)
	body := map[string]any{
		"refUpdates": []map[string]string{{
			"name":        headsPrefix + branchName,
			"oldObjectId": head.SHA,
		}},
		"commits": []map[string]any{{
			"comment": message,
			"changes": []map[string]any{change},
		}},
	}
	return p.client.post(ctx, op,
		endpoint(nil, projectName, "_apis", "git", "repositories", repoName, "pushes"), body, nil)
}

func (p *AzureDevOpsHostRepository) FindPullRequest(
	ctx context.Context,
	repoFullName, head, base string,
) (*entities.PullRequest, error) {
	projectName, repoName := entities.SplitFullName(repoFullName)

	query := url.Values{}
	query.Set("searchCriteria.sourceRefName", branchRef(head))
	query.Set("searchCriteria.targetRefName", branchRef(base))
	query.Set("searchCriteria.status", "active")

	var result struct {
		Value []pullRequest `json:"value"`
	}
	_, err := p.client.get(ctx, "list pull requests",
		endpoint(query, projectName, "_apis", "git", "repositories", repoName, "pullrequests"), &result)
	if err != nil {
		return nil, err
	}
	if len(result.Value) == 0 {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	return p.toPullRequest(repoFullName, result.Value[0]), nil
}

func (p *AzureDevOpsHostRepository) CreatePullRequest(
	ctx context.Context,
	repoFullName string,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	projectName, repoName := entities.SplitFullName(repoFullName)

	body := map[string]any{
		"sourceRefName": branchRef(input.SourceBranch),
		"targetRefName": branchRef(input.TargetBranch),
		"title":         input.Title,
		"description":   input.Description,
	}

	var created pullRequest
	if err := p.client.post(ctx, "create pull request",
		endpoint(nil, projectName, "_apis", "git", "repositories", repoName, "pullrequests"),
		body, &created); err != nil {
		return nil, err
	}
	return p.toPullRequest(repoFullName, created), nil
}

func (p *AzureDevOpsHostRepository) SearchCode(
	ctx context.Context,
	repoFullName, query string,
) ([]string, error) {
	projectName, repoName := entities.SplitFullName(repoFullName)

	body := map[string]any{
		"searchText": strings.TrimSpace(query),
		"$top":       searchTop,
		"filters": map[string][]string{
			"Project":    {projectName},
			"Repository": {repoName},
		},
	}

	var result struct {
		Results []struct {
			Path string `json:"path"`
		} `json:"results"`
	}
	target := p.client.searchURL + endpoint(nil, projectName, "_apis", "search", "codesearchresults")
	if _, err := p.client.do(ctx, "search code", http.MethodPost, target, body, &result); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(result.Results))
	for _, hit := range result.Results {
		paths = append(paths, hit.Path)
	}
	return paths, nil
}

func (p *AzureDevOpsHostRepository) ListTree(
	ctx context.Context,
	repoFullName, refName string,
) ([]entities.File, error) {
	projectName, repoName := entities.SplitFullName(repoFullName)

	query := versionQuery(refName)
	query.Set("scopePath", "/")
	query.Set("recursionLevel", "Full")

	var result struct {
		Value []item `json:"value"`
	}
	_, err := p.client.get(ctx, "list tree",
		endpoint(query, projectName, "_apis", "git", "repositories", repoName, "items"), &result)
	if err != nil {
		return nil, err
	}

	files := make([]entities.File, 0, len(result.Value))
	for _, entry := range result.Value {
		path := strings.TrimPrefix(entry.Path, "/")
		if path == "" {
			continue
		}
		files = append(files, entities.File{
			Path:     path,
			ObjectID: entry.ObjectID,
			IsDir:    entry.IsFolder || entry.GitObjectType == treeType,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (p *AzureDevOpsHostRepository) toPullRequest(repoFullName string, pr pullRequest) *entities.PullRequest {
	projectName, repoName := entities.SplitFullName(repoFullName)
	webURL := fmt.Sprintf("%s/%s/_git/%s/pullrequest/%s",
		p.client.baseURL, url.PathEscape(projectName), url.PathEscape(repoName), strconv.Itoa(pr.ID))
	return &entities.PullRequest{
		ID:     pr.ID,
		Title:  pr.Title,
		URL:    webURL,
		Status: pr.Status,
	}
}

func toRepository(repo repository) entities.Repository {
	defaultBranch := strings.TrimPrefix(repo.DefaultBranch, headsPrefix)
	if defaultBranch == "" {
		defaultBranch = "main"
	}
	return entities.Repository{
		Name:          repo.Name,
		FullName:      repo.Project.Name + "/" + repo.Name,
		HTMLURL:       repo.WebURL,
		DefaultBranch: defaultBranch,
		Description:   repo.Project.Description,
		Owner:         repo.Project.Name,
		ProviderName:  providerName,
		UpdatedAt:     repo.Project.LastUpdateTime,
		Private:       repo.Project.Visibility != publicProject,
		Fork:          repo.IsFork,
		Archived:      repo.IsDisabled,
	}
}

// versionQuery selects ref as a commit when it is a full SHA and as a branch otherwise.
func versionQuery(refName string) url.Values {
	query := url.Values{}
	if refName == "" {
		return query
	}
	versionType := "branch"
	if commitSHAPattern.MatchString(refName) {
		versionType = "commit"
	}
	query.Set("versionDescriptor.version", strings.TrimPrefix(refName, headsPrefix))
	query.Set("versionDescriptor.versionType", versionType)
	return query
}

func itemPath(path string) string { return "/" + strings.TrimPrefix(path, "/") }

func branchRef(branch string) string { return headsPrefix + strings.TrimPrefix(branch, headsPrefix) }

func changeVerb(changeType string) string {
	if changeType == "add" {
		return "create"
	}
	return "update"
}
