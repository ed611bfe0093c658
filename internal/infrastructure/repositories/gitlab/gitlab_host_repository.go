package gitlab

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

const (
	providerName = "gitlab"
	perPage      = 100
	treeType     = "tree"
	blobType     = "blob"
)

var errClientNotInitialized = errors.New("gitlab client not initialized")

// GitLabHostRepository implements repositories.HostRepository for GitLab.
// GitLab guards writes with the last commit id, so blob SHAs are compared
// locally before each write and the commit id is sent along for the server-side check.
type GitLabHostRepository struct {
	client *gl.Client
}

// NewGitLabHostRepository creates a new GitLab host with the given token.
// A non-empty baseURL targets a self-managed instance.
func NewGitLabHostRepository(token, baseURL string) repositories.HostRepository {
	var options []gl.ClientOptionFunc
	if baseURL != "" {
		options = append(options, gl.WithBaseURL(baseURL))
	}
	client, err := gl.NewClient(token, options...)
	if err != nil {
		// Return a host that will fail on use rather than panicking at construction
		return &GitLabHostRepository{client: nil}
	}
	return &GitLabHostRepository{client: client}
}

func (p *GitLabHostRepository) Name() string { return providerName }

func (p *GitLabHostRepository) GetRepository(
	ctx context.Context,
	fullName string,
) (entities.Repository, error) {
	if p.client == nil {
		return entities.Repository{}, errClientNotInitialized
	}

	project, resp, err := p.client.Projects.GetProject(fullName, nil, gl.WithContext(ctx))
	if err != nil {
		return entities.Repository{}, mapError("get project "+fullName, resp, err)
	}
	return toRepository(project), nil
}

// ListRepositories lists all projects in a GitLab group.
func (p *GitLabHostRepository) ListRepositories(
	ctx context.Context,
	group string,
) ([]entities.Repository, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	var allRepos []entities.Repository
	opts := &gl.ListGroupProjectsOptions{
		ListOptions:      gl.ListOptions{PerPage: perPage},
		IncludeSubGroups: gl.Ptr(true),
	}

	for {
		projects, resp, err := p.client.Groups.ListGroupProjects(
			group, opts, gl.WithContext(ctx),
		)
		if err != nil {
			// Fall back to listing user projects
			return p.listUserProjects(ctx, group)
		}

		for _, proj := range projects {
			allRepos = append(allRepos, toRepository(proj))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

func (p *GitLabHostRepository) listUserProjects(
	ctx context.Context,
	user string,
) ([]entities.Repository, error) {
	var allRepos []entities.Repository
	opts := &gl.ListProjectsOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		Owned:       gl.Ptr(true),
	}

	for {
		projects, resp, err := p.client.Projects.ListUserProjects(
			user, opts, gl.WithContext(ctx),
		)
		if err != nil {
			return nil, mapError(fmt.Sprintf("list projects for %q", user), resp, err)
		}

		for _, proj := range projects {
			allRepos = append(allRepos, toRepository(proj))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

func (p *GitLabHostRepository) GetFile(
	ctx context.Context,
	repoFullName, path, ref string,
) (*entities.FileContent, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	file, err := p.getFile(ctx, repoFullName, path, ref)
	if err != nil {
		if entities.IsNotFound(err) && p.isDirectory(ctx, repoFullName, path, ref) {
			return nil, fmt.Errorf("failed to get file %q: %w", path, entities.ErrIsDirectory)
		}
		return nil, err
	}

	content, err := decodeContent(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file content: %w", err)
	}

	return &entities.FileContent{
		Path:    file.FilePath,
		Content: content,
		SHA:     file.BlobID,
	}, nil
}

func (p *GitLabHostRepository) getFile(
	ctx context.Context,
	repoFullName, path, ref string,
) (*gl.File, error) {
	file, resp, err := p.client.RepositoryFiles.GetFile(
		repoFullName, path,
		&gl.GetFileOptions{Ref: gl.Ptr(ref)},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, mapError(fmt.Sprintf("get file %q", path), resp, err)
	}
	return file, nil
}

// isDirectory tells a missing path apart from a directory, which the files API
// reports the same way.
func (p *GitLabHostRepository) isDirectory(ctx context.Context, repoFullName, path, ref string) bool {
	nodes, _, err := p.client.Repositories.ListTree(
		repoFullName,
		&gl.ListTreeOptions{
			ListOptions: gl.ListOptions{PerPage: 1},
			Path:        gl.Ptr(path),
			Ref:         gl.Ptr(ref),
		},
		gl.WithContext(ctx),
	)
	return err == nil && len(nodes) > 0
}

func decodeContent(file *gl.File) (string, error) {
	if file.Encoding != "base64" {
		return file.Content, nil
	}
	data, err := base64.StdEncoding.DecodeString(file.Content)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *GitLabHostRepository) GetBranch(
	ctx context.Context,
	repoFullName, branchName string,
) (entities.Branch, bool, error) {
	if p.client == nil {
		return entities.Branch{}, false, errClientNotInitialized
	}

	branch, resp, err := p.client.Branches.GetBranch(repoFullName, branchName, gl.WithContext(ctx))
	if err != nil {
		mapped := mapError(fmt.Sprintf("get branch %q", branchName), resp, err)
		if entities.IsNotFound(mapped) {
			return entities.Branch{}, false, nil
		}
		return entities.Branch{}, false, mapped
	}

	sha := ""
	if branch.Commit != nil {
		sha = branch.Commit.ID
	}
	return entities.Branch{Name: branch.Name, SHA: sha}, true, nil
}

func (p *GitLabHostRepository) CreateBranch(
	ctx context.Context,
	repoFullName, branchName, sha string,
) error {
	if p.client == nil {
		return errClientNotInitialized
	}

	_, resp, err := p.client.Branches.CreateBranch(repoFullName, &gl.CreateBranchOptions{
		Branch: gl.Ptr(branchName),
		Ref:    gl.Ptr(sha),
	}, gl.WithContext(ctx))
	if err != nil {
		return mapError(fmt.Sprintf("create branch %q", branchName), resp, err)
	}
	return nil
}

func (p *GitLabHostRepository) PutFile(
	ctx context.Context,
	repoFullName string,
	write entities.FileWrite,
) (string, error) {
	if p.client == nil {
		return "", errClientNotInitialized
	}

	if write.SHA == "" {
		_, resp, err := p.client.RepositoryFiles.CreateFile(repoFullName, write.Path, &gl.CreateFileOptions{
			Branch:        gl.Ptr(write.Branch),
			Content:       gl.Ptr(write.Content),
			CommitMessage: gl.Ptr(write.Message),
		}, gl.WithContext(ctx))
		if err != nil {
			return "", mapError(fmt.Sprintf("create file %q", write.Path), resp, err)
		}
		return entities.BlobHash(write.Content), nil
	}

	lastCommitID, err := p.guard(ctx, repoFullName, write.Path, write.Branch, write.SHA)
	if err != nil {
		return "", err
	}

	_, resp, err := p.client.RepositoryFiles.UpdateFile(repoFullName, write.Path, &gl.UpdateFileOptions{
		Branch:        gl.Ptr(write.Branch),
		Content:       gl.Ptr(write.Content),
		CommitMessage: gl.Ptr(write.Message),
		LastCommitID:  gl.Ptr(lastCommitID),
	}, gl.WithContext(ctx))
	if err != nil {
		return "", mapError(fmt.Sprintf("update file %q", write.Path), resp, err)
	}
	return entities.BlobHash(write.Content), nil
}

func (p *GitLabHostRepository) DeleteFile(
	ctx context.Context,
	repoFullName string,
	deletion entities.FileDeletion,
) error {
	if p.client == nil {
		return errClientNotInitialized
	}

	lastCommitID, err := p.guard(ctx, repoFullName, deletion.Path, deletion.Branch, deletion.SHA)
	if err != nil {
		return err
	}

	resp, err := p.client.RepositoryFiles.DeleteFile(repoFullName, deletion.Path, &gl.DeleteFileOptions{
		Branch:        gl.Ptr(deletion.Branch),
		CommitMessage: gl.Ptr(deletion.Message),
		LastCommitID:  gl.Ptr(lastCommitID),
	}, gl.WithContext(ctx))
	if err != nil {
		return mapError(fmt.Sprintf("delete file %q", deletion.Path), resp, err)
	}
	return nil
}

// guard checks the expected blob SHA and returns the last commit id to send with the write.
func (p *GitLabHostRepository) guard(
	ctx context.Context,
	repoFullName, path, branch, expectedSHA string,
) (string, error) {
	current, err := p.getFile(ctx, repoFullName, path, branch)
	if err != nil {
		return "", err
	}
	if current.BlobID != expectedSHA {
		return "", &entities.HostAPIError{
			Op:      fmt.Sprintf("failed to write file %q", path),
			Status:  http.StatusConflict,
			Message: fmt.Sprintf("blob %s does not match expected %s", current.BlobID, expectedSHA),
			Err:     entities.ErrConflict,
		}
	}
	return current.LastCommitID, nil
}

func (p *GitLabHostRepository) FindPullRequest(
	ctx context.Context,
	repoFullName, head, base string,
) (*entities.PullRequest, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	mrs, resp, err := p.client.MergeRequests.ListProjectMergeRequests(
		repoFullName,
		&gl.ListProjectMergeRequestsOptions{
			SourceBranch: gl.Ptr(head),
			TargetBranch: gl.Ptr(base),
			State:        gl.Ptr("opened"),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, mapError("list merge requests", resp, err)
	}
	if len(mrs) == 0 {
		return nil, nil //nolint:nilnil // absence is not an error
	}

	return &entities.PullRequest{
		ID:     int(mrs[0].IID),
		Title:  mrs[0].Title,
		URL:    mrs[0].WebURL,
		Status: mrs[0].State,
	}, nil
}

func (p *GitLabHostRepository) CreatePullRequest(
	ctx context.Context,
	repoFullName string,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	sourceBranch := strings.TrimPrefix(input.SourceBranch, "refs/heads/")
	targetBranch := strings.TrimPrefix(input.TargetBranch, "refs/heads/")

	mr, resp, err := p.client.MergeRequests.CreateMergeRequest(
		repoFullName,
		&gl.CreateMergeRequestOptions{
			Title:              gl.Ptr(input.Title),
			Description:        gl.Ptr(input.Description),
			SourceBranch:       gl.Ptr(sourceBranch),
			TargetBranch:       gl.Ptr(targetBranch),
			RemoveSourceBranch: gl.Ptr(true),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, mapError("create merge request", resp, err)
	}

	return &entities.PullRequest{
		ID:     int(mr.IID),
		Title:  mr.Title,
		URL:    mr.WebURL,
		Status: mr.State,
	}, nil
}

func (p *GitLabHostRepository) SearchCode(
	ctx context.Context,
	repoFullName, query string,
) ([]string, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	blobs, resp, err := p.client.Search.BlobsByProject(
		repoFullName, strings.TrimSpace(query),
		&gl.SearchOptions{ListOptions: gl.ListOptions{PerPage: perPage}},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, mapError("search blobs", resp, err)
	}

	paths := make([]string, 0, len(blobs))
	for _, blob := range blobs {
		paths = append(paths, blob.Path)
	}
	return paths, nil
}

func (p *GitLabHostRepository) ListTree(
	ctx context.Context,
	repoFullName, ref string,
) ([]entities.File, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	recursive := true
	var allFiles []entities.File
	opts := &gl.ListTreeOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		Ref:         gl.Ptr(ref),
		Recursive:   &recursive,
	}

	for {
		nodes, resp, err := p.client.Repositories.ListTree(
			repoFullName,
			opts,
			gl.WithContext(ctx),
		)
		if err != nil {
			return nil, mapError("list tree", resp, err)
		}

		for _, node := range nodes {
			if node.Type != blobType && node.Type != treeType {
				continue
			}
			allFiles = append(allFiles, entities.File{
				Path:     node.Path,
				ObjectID: node.ID,
				IsDir:    node.Type == treeType,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allFiles, nil
}

func toRepository(proj *gl.Project) entities.Repository {
	defaultBranch := "main"
	if proj.DefaultBranch != "" {
		defaultBranch = proj.DefaultBranch
	}
	owner := ""
	if proj.Namespace != nil {
		owner = proj.Namespace.FullPath
	}
	repo := entities.Repository{
		Name:          proj.Path,
		FullName:      proj.PathWithNamespace,
		HTMLURL:       proj.WebURL,
		DefaultBranch: defaultBranch,
		Description:   proj.Description,
		Owner:         owner,
		ProviderName:  providerName,
		Private:       proj.Visibility != gl.PublicVisibility,
		Fork:          proj.ForkedFromProject != nil,
		Archived:      proj.Archived,
	}
	if proj.LastActivityAt != nil {
		repo.UpdatedAt = *proj.LastActivityAt
	}
	return repo
}

// mapError translates a GitLab API failure into the domain sentinels while
// keeping the status and message verbatim.
func mapError(op string, resp *gl.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	message := err.Error()
	var errResp *gl.ErrorResponse
	if errors.As(err, &errResp) && errResp.Message != "" {
		message = errResp.Message
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
	case strings.Contains(message, "open merge request already exists"),
		strings.Contains(message, "branch already exists"):
		return errors.Join(entities.ErrAlreadyExists, err)
	case strings.Contains(message, "file with this name already exists"),
		strings.Contains(message, "has changed since"),
		status == http.StatusConflict:
		return errors.Join(entities.ErrConflict, err)
	default:
		return err
	}
}
