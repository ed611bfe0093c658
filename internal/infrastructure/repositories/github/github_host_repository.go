package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v66/github"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

const (
	providerName = "github"
	perPage      = 100
	treeType     = "tree"
	blobType     = "blob"
)

var errClientNotInitialized = errors.New("github client not initialized")

// GitHubHostRepository implements repositories.HostRepository for GitHub.
type GitHubHostRepository struct {
	client *gh.Client
}

// NewGitHubHostRepository creates a new GitHub host with the given token.
// A non-empty baseURL targets a GitHub Enterprise Server instance.
func NewGitHubHostRepository(token, baseURL string) repositories.HostRepository {
	client := gh.NewClient(nil).WithAuthToken(token)
	if baseURL != "" {
		enterprise, err := client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			logger.Errorf("Invalid GitHub base URL %q: %v", baseURL, err)
			// Return a host that will fail on use rather than panicking at construction
			return &GitHubHostRepository{client: nil}
		}
		client = enterprise
	}
	return &GitHubHostRepository{client: client}
}

// NewGitHubHostRepositoryWithClient wraps an existing client.
func NewGitHubHostRepositoryWithClient(client *gh.Client) *GitHubHostRepository {
	return &GitHubHostRepository{client: client}
}

func (p *GitHubHostRepository) Name() string { return providerName }

func (p *GitHubHostRepository) GetRepository(
	ctx context.Context,
	fullName string,
) (entities.Repository, error) {
	if p.client == nil {
		return entities.Repository{}, errClientNotInitialized
	}

	owner, name := entities.SplitFullName(fullName)
	repo, resp, err := p.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return entities.Repository{}, mapError("get repository "+fullName, resp, err)
	}
	return toRepository(repo), nil
}

// ListRepositories lists all repositories in a GitHub
// organization or user account.
func (p *GitHubHostRepository) ListRepositories(
	ctx context.Context,
	owner string,
) ([]entities.Repository, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	var allRepos []entities.Repository
	opts := &gh.RepositoryListByOrgOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	for {
		repos, resp, err := p.client.Repositories.ListByOrg(ctx, owner, opts)
		if err != nil {
			// Fall back to listing user repos if org listing fails
			return p.listUserRepositories(ctx, owner)
		}

		for _, r := range repos {
			allRepos = append(allRepos, toRepository(r))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

func (p *GitHubHostRepository) listUserRepositories(
	ctx context.Context,
	user string,
) ([]entities.Repository, error) {
	var allRepos []entities.Repository
	opts := &gh.RepositoryListByUserOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
		Type:        "owner",
	}

	for {
		repos, resp, err := p.client.Repositories.ListByUser(ctx, user, opts)
		if err != nil {
			return nil, mapError(fmt.Sprintf("list repos for %q", user), resp, err)
		}

		for _, r := range repos {
			allRepos = append(allRepos, toRepository(r))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

func (p *GitHubHostRepository) GetFile(
	ctx context.Context,
	repoFullName, path, ref string,
) (*entities.FileContent, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	owner, name := entities.SplitFullName(repoFullName)
	fileContent, dirContent, resp, err := p.client.Repositories.GetContents(
		ctx, owner, name, path,
		&gh.RepositoryContentGetOptions{Ref: ref},
	)
	if err != nil {
		return nil, mapError(fmt.Sprintf("get file %q", path), resp, err)
	}
	if fileContent == nil {
		if dirContent != nil {
			return nil, fmt.Errorf("failed to get file %q: %w", path, entities.ErrIsDirectory)
		}
		return nil, fmt.Errorf("failed to get file %q: %w", path, entities.ErrNotFound)
	}
	if fileContent.GetType() != "" && fileContent.GetType() != "file" {
		return nil, fmt.Errorf("failed to get file %q (%s): %w", path, fileContent.GetType(), entities.ErrIsDirectory)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode file content: %w", err)
	}

	return &entities.FileContent{
		Path:    fileContent.GetPath(),
		Content: content,
		SHA:     fileContent.GetSHA(),
	}, nil
}

func (p *GitHubHostRepository) GetBranch(
	ctx context.Context,
	repoFullName, branchName string,
) (entities.Branch, bool, error) {
	if p.client == nil {
		return entities.Branch{}, false, errClientNotInitialized
	}

	owner, name := entities.SplitFullName(repoFullName)
	ref, resp, err := p.client.Git.GetRef(ctx, owner, name, "refs/heads/"+branchName)
	if err != nil {
		mapped := mapError(fmt.Sprintf("get branch %q", branchName), resp, err)
		if entities.IsNotFound(mapped) {
			return entities.Branch{}, false, nil
		}
		return entities.Branch{}, false, mapped
	}

	return entities.Branch{Name: branchName, SHA: ref.GetObject().GetSHA()}, true, nil
}

func (p *GitHubHostRepository) CreateBranch(
	ctx context.Context,
	repoFullName, branchName, sha string,
) error {
	if p.client == nil {
		return errClientNotInitialized
	}

	owner, name := entities.SplitFullName(repoFullName)
	branchRef := "refs/heads/" + branchName
	_, resp, err := p.client.Git.CreateRef(
		ctx, owner, name,
		&gh.Reference{
			Ref:    &branchRef,
			Object: &gh.GitObject{SHA: &sha},
		},
	)
	if err != nil {
		return mapError(fmt.Sprintf("create branch %q", branchName), resp, err)
	}
	return nil
}

func (p *GitHubHostRepository) PutFile(
	ctx context.Context,
	repoFullName string,
	write entities.FileWrite,
) (string, error) {
	if p.client == nil {
		return "", errClientNotInitialized
	}

	owner, name := entities.SplitFullName(repoFullName)
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(write.Message),
		Content: []byte(write.Content),
		Branch:  gh.String(write.Branch),
	}

	var (
		result *gh.RepositoryContentResponse
		resp   *gh.Response
		err    error
	)
	if write.SHA == "" {
		result, resp, err = p.client.Repositories.CreateFile(ctx, owner, name, write.Path, opts)
	} else {
		opts.SHA = gh.String(write.SHA)
		result, resp, err = p.client.Repositories.UpdateFile(ctx, owner, name, write.Path, opts)
	}
	if err != nil {
		return "", mapError(fmt.Sprintf("write file %q", write.Path), resp, err)
	}

	return result.GetContent().GetSHA(), nil
}

func (p *GitHubHostRepository) DeleteFile(
	ctx context.Context,
	repoFullName string,
	deletion entities.FileDeletion,
) error {
	if p.client == nil {
		return errClientNotInitialized
	}

	owner, name := entities.SplitFullName(repoFullName)
	_, resp, err := p.client.Repositories.DeleteFile(
		ctx, owner, name, deletion.Path,
		&gh.RepositoryContentFileOptions{
			Message: gh.String(deletion.Message),
			SHA:     gh.String(deletion.SHA),
			Branch:  gh.String(deletion.Branch),
		},
	)
	if err != nil {
		return mapError(fmt.Sprintf("delete file %q", deletion.Path), resp, err)
	}
	return nil
}

func (p *GitHubHostRepository) FindPullRequest(
	ctx context.Context,
	repoFullName, head, base string,
) (*entities.PullRequest, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	owner, name := entities.SplitFullName(repoFullName)
	prs, resp, err := p.client.PullRequests.List(
		ctx, owner, name,
		&gh.PullRequestListOptions{
			Head:  owner + ":" + head,
			Base:  base,
			State: "open",
		},
	)
	if err != nil {
		return nil, mapError("list pull requests", resp, err)
	}
	if len(prs) == 0 {
		return nil, nil //nolint:nilnil // absence is not an error
	}

	return toPullRequest(prs[0]), nil
}

func (p *GitHubHostRepository) CreatePullRequest(
	ctx context.Context,
	repoFullName string,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	owner, name := entities.SplitFullName(repoFullName)
	sourceBranch := strings.TrimPrefix(input.SourceBranch, "refs/heads/")
	targetBranch := strings.TrimPrefix(input.TargetBranch, "refs/heads/")

	maintainerCanModify := true
	pr, resp, err := p.client.PullRequests.Create(
		ctx, owner, name,
		&gh.NewPullRequest{
			Title:               &input.Title,
			Head:                &sourceBranch,
			Base:                &targetBranch,
			Body:                &input.Description,
			MaintainerCanModify: &maintainerCanModify,
		},
	)
	if err != nil {
		return nil, mapError("create pull request", resp, err)
	}

	return toPullRequest(pr), nil
}

// SearchCode returns the paths of the first page of code search hits.
func (p *GitHubHostRepository) SearchCode(
	ctx context.Context,
	repoFullName, query string,
) ([]string, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	result, resp, err := p.client.Search.Code(
		ctx,
		strings.TrimSpace(query+" repo:"+repoFullName),
		&gh.SearchOptions{ListOptions: gh.ListOptions{PerPage: perPage}},
	)
	if err != nil {
		return nil, mapError("search code", resp, err)
	}

	paths := make([]string, 0, len(result.CodeResults))
	for _, hit := range result.CodeResults {
		paths = append(paths, hit.GetPath())
	}
	return paths, nil
}

func (p *GitHubHostRepository) ListTree(
	ctx context.Context,
	repoFullName, ref string,
) ([]entities.File, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	owner, name := entities.SplitFullName(repoFullName)
	tree, resp, err := p.client.Git.GetTree(ctx, owner, name, ref, true)
	if err != nil {
		return nil, mapError("get repo tree", resp, err)
	}
	if tree.GetTruncated() {
		logger.Warnf("Tree of %s@%s is truncated, some files will not be considered", repoFullName, ref)
	}

	files := make([]entities.File, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry.GetType() != blobType && entry.GetType() != treeType {
			continue
		}
		files = append(files, entities.File{
			Path:     entry.GetPath(),
			ObjectID: entry.GetSHA(),
			IsDir:    entry.GetType() == treeType,
		})
	}

	return files, nil
}

func toRepository(r *gh.Repository) entities.Repository {
	defaultBranch := "main"
	if r.DefaultBranch != nil {
		defaultBranch = *r.DefaultBranch
	}
	return entities.Repository{
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		HTMLURL:       r.GetHTMLURL(),
		DefaultBranch: defaultBranch,
		Description:   r.GetDescription(),
		Owner:         r.GetOwner().GetLogin(),
		ProviderName:  providerName,
		UpdatedAt:     r.GetUpdatedAt().Time,
		Private:       r.GetPrivate(),
		Fork:          r.GetFork(),
		Archived:      r.GetArchived(),
	}
}

func toPullRequest(pr *gh.PullRequest) *entities.PullRequest {
	return &entities.PullRequest{
		ID:     pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
		Status: pr.GetState(),
	}
}

// mapError translates a GitHub API failure into the domain sentinels while
// keeping the status and message verbatim.
func mapError(op string, resp *gh.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	message := err.Error()
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) {
		message = errResp.Message
		for _, detail := range errResp.Errors {
			if detail.Message != "" {
				message += "; " + detail.Message
			}
		}
	}

	return &entities.HostAPIError{
		Op:      "failed to " + op,
		Status:  status,
		Message: message,
		Err:     classify(status, strings.ToLower(message), err),
	}
}

func classify(status int, message string, err error) error {
	switch {
	case status == http.StatusNotFound:
		return errors.Join(entities.ErrNotFound, err)
	case status == http.StatusConflict:
		return errors.Join(entities.ErrConflict, err)
	case strings.Contains(message, "reference already exists"):
		return errors.Join(entities.ErrAlreadyExists, err)
	case strings.Contains(message, "no commits between"):
		return errors.Join(entities.ErrNoCommits, err)
	case strings.Contains(message, "a pull request already exists"):
		return errors.Join(entities.ErrAlreadyExists, err)
	case status == http.StatusUnprocessableEntity && strings.Contains(message, "sha"):
		return errors.Join(entities.ErrConflict, err)
	default:
		return err
	}
}
