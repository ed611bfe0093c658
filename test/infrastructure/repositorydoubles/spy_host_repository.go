//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
)

// SpyHostRepository is an in-memory host. Files live per repository and
// branch, SHAs are git blob hashes and branch SHAs are derived from the
// branch content, so it behaves like a small git host. Error fields inject
// failures; the slices record the calls received.
type SpyHostRepository struct {
	HostName string

	// --- GetRepository / ListRepositories ---
	Repos        map[string]entities.Repository
	ListErr      error
	ListedOwners []string
	GetRepoCalls []string
	GetRepoErr   error

	// --- content ---
	files map[string]map[string]map[string]string // repo -> branch -> path -> content

	// --- injected failures ---
	GetFileErr      error
	GetBranchErr    error
	CreateBranchErr error
	PutFileErr      error
	DeleteFileErr   error
	FindPRErr       error
	CreatePRErr     error
	SearchErr       error
	ListTreeErr     error
	// StaleWrites makes the next N guarded writes lose a race: the file is
	// modified concurrently and the write fails with a conflict.
	StaleWrites int

	// --- SearchCode ---
	SearchResults map[string][]string // repo -> paths

	// --- spies ---
	GetFileCalls    []string
	CreatedBranches []string
	Writes          []entities.FileWrite
	Deletions       []entities.FileDeletion
	PRInputs        []entities.PullRequestInput
	SearchQueries   []string
	TreeCalls       []string

	pullRequests map[string]*entities.PullRequest
	nextPRID     int
}

var _ repositories.HostRepository = (*SpyHostRepository)(nil)

// NewSpyHostRepository creates an empty in-memory host named "spy".
func NewSpyHostRepository() *SpyHostRepository {
	return &SpyHostRepository{
		HostName:      "spy",
		Repos:         make(map[string]entities.Repository),
		files:         make(map[string]map[string]map[string]string),
		SearchResults: make(map[string][]string),
		pullRequests:  make(map[string]*entities.PullRequest),
		nextPRID:      1,
	}
}

// WithRepository registers repo with an empty default branch.
func (p *SpyHostRepository) WithRepository(repo entities.Repository) *SpyHostRepository {
	p.Repos[repo.FullName] = repo
	p.ensureBranch(repo.FullName, repo.DefaultBranch)
	return p
}

// WithFile stores content at path on branch, creating the branch if needed.
func (p *SpyHostRepository) WithFile(repoFullName, branch, path, content string) *SpyHostRepository {
	p.ensureBranch(repoFullName, branch)[path] = content
	return p
}

// WithOpenPullRequest registers an open pull request from head into base.
func (p *SpyHostRepository) WithOpenPullRequest(repoFullName, head, base, url string) *SpyHostRepository {
	p.pullRequests[prKey(repoFullName, head, base)] = &entities.PullRequest{ID: p.nextPRID, URL: url, Status: "open"}
	p.nextPRID++
	return p
}

// FileOn returns the content of path on branch and whether it exists.
func (p *SpyHostRepository) FileOn(repoFullName, branch, path string) (string, bool) {
	content, ok := p.files[repoFullName][branch][path]
	return content, ok
}

// HasBranch reports whether branch exists.
func (p *SpyHostRepository) HasBranch(repoFullName, branch string) bool {
	_, ok := p.files[repoFullName][branch]
	return ok
}

// PullRequestCount returns the number of open pull requests.
func (p *SpyHostRepository) PullRequestCount() int {
	return len(p.pullRequests)
}

func (p *SpyHostRepository) Name() string { return p.HostName }

func (p *SpyHostRepository) GetRepository(_ context.Context, fullName string) (entities.Repository, error) {
	p.GetRepoCalls = append(p.GetRepoCalls, fullName)
	if p.GetRepoErr != nil {
		return entities.Repository{}, p.GetRepoErr
	}
	repo, ok := p.Repos[fullName]
	if !ok {
		return entities.Repository{}, notFound("get repository", fullName)
	}
	return repo, nil
}

func (p *SpyHostRepository) ListRepositories(_ context.Context, owner string) ([]entities.Repository, error) {
	p.ListedOwners = append(p.ListedOwners, owner)
	if p.ListErr != nil {
		return nil, p.ListErr
	}
	repos := make([]entities.Repository, 0, len(p.Repos))
	for _, repo := range p.Repos {
		if repo.Owner == owner {
			repos = append(repos, repo)
		}
	}
	sort.Slice(repos, func(i, j int) bool { return repos[i].FullName > repos[j].FullName })
	return repos, nil
}

func (p *SpyHostRepository) GetFile(
	_ context.Context,
	repoFullName, path, ref string,
) (*entities.FileContent, error) {
	p.GetFileCalls = append(p.GetFileCalls, ref+":"+path)
	if p.GetFileErr != nil {
		return nil, p.GetFileErr
	}
	branch, ok := p.branch(repoFullName, p.refOrDefault(repoFullName, ref))
	if !ok {
		return nil, notFound("get file", ref)
	}
	content, ok := branch[path]
	if !ok {
		for existing := range branch {
			if strings.HasPrefix(existing, path+"/") {
				return nil, fmt.Errorf("failed to get file %q: %w", path, entities.ErrIsDirectory)
			}
		}
		return nil, notFound("get file", path)
	}
	return &entities.FileContent{Path: path, Content: content, SHA: entities.BlobHash(content)}, nil
}

func (p *SpyHostRepository) GetBranch(
	_ context.Context,
	repoFullName, name string,
) (entities.Branch, bool, error) {
	if p.GetBranchErr != nil {
		return entities.Branch{}, false, p.GetBranchErr
	}
	branch, ok := p.branch(repoFullName, name)
	if !ok {
		return entities.Branch{}, false, nil
	}
	return entities.Branch{Name: name, SHA: treeHash(branch)}, true, nil
}

func (p *SpyHostRepository) CreateBranch(_ context.Context, repoFullName, name, sha string) error {
	p.CreatedBranches = append(p.CreatedBranches, name)
	if p.CreateBranchErr != nil {
		return p.CreateBranchErr
	}
	if _, exists := p.branch(repoFullName, name); exists {
		return &entities.HostAPIError{
			Op: "failed to create branch", Status: 422, Message: "Reference already exists",
			Err: entities.ErrAlreadyExists,
		}
	}
	for _, source := range p.files[repoFullName] {
		if treeHash(source) == sha {
			p.files[repoFullName][name] = maps.Clone(source)
			return nil
		}
	}
	return notFound("create branch", sha)
}

func (p *SpyHostRepository) PutFile(
	_ context.Context,
	repoFullName string,
	write entities.FileWrite,
) (string, error) {
	p.Writes = append(p.Writes, write)
	if p.PutFileErr != nil {
		return "", p.PutFileErr
	}
	branch, ok := p.branch(repoFullName, write.Branch)
	if !ok {
		return "", notFound("put file", write.Branch)
	}

	current, exists := branch[write.Path]
	switch {
	case write.SHA == "" && exists:
		return "", conflict("create file", "sha wasn't supplied")
	case write.SHA != "" && !exists:
		return "", notFound("update file", write.Path)
	case write.SHA != "" && p.StaleWrites > 0:
		p.StaleWrites--
		branch[write.Path] = current + "\n# concurrent edit\n"
		return "", conflict("update file", "is at "+entities.BlobHash(branch[write.Path])+" but expected "+write.SHA)
	case write.SHA != "" && entities.BlobHash(current) != write.SHA:
		return "", conflict("update file", "sha mismatch")
	}

	branch[write.Path] = write.Content
	return entities.BlobHash(write.Content), nil
}

func (p *SpyHostRepository) DeleteFile(
	_ context.Context,
	repoFullName string,
	deletion entities.FileDeletion,
) error {
	p.Deletions = append(p.Deletions, deletion)
	if p.DeleteFileErr != nil {
		return p.DeleteFileErr
	}
	branch, ok := p.branch(repoFullName, deletion.Branch)
	if !ok {
		return notFound("delete file", deletion.Branch)
	}
	current, exists := branch[deletion.Path]
	if !exists {
		return notFound("delete file", deletion.Path)
	}
	if entities.BlobHash(current) != deletion.SHA {
		return conflict("delete file", "sha mismatch")
	}
	delete(branch, deletion.Path)
	return nil
}

func (p *SpyHostRepository) FindPullRequest(
	_ context.Context,
	repoFullName, head, base string,
) (*entities.PullRequest, error) {
	if p.FindPRErr != nil {
		return nil, p.FindPRErr
	}
	return p.pullRequests[prKey(repoFullName, head, base)], nil
}

func (p *SpyHostRepository) CreatePullRequest(
	_ context.Context,
	repoFullName string,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	p.PRInputs = append(p.PRInputs, input)
	if p.CreatePRErr != nil {
		return nil, p.CreatePRErr
	}

	key := prKey(repoFullName, input.SourceBranch, input.TargetBranch)
	if _, exists := p.pullRequests[key]; exists {
		return nil, &entities.HostAPIError{
			Op: "failed to create pull request", Status: 422, Message: "A pull request already exists",
			Err: entities.ErrAlreadyExists,
		}
	}
	head, headOK := p.branch(repoFullName, input.SourceBranch)
	base, baseOK := p.branch(repoFullName, input.TargetBranch)
	if !headOK || !baseOK {
		return nil, notFound("create pull request", input.SourceBranch)
	}
	if maps.Equal(head, base) {
		return nil, &entities.HostAPIError{
			Op: "failed to create pull request", Status: 422, Message: "No commits between branches",
			Err: entities.ErrNoCommits,
		}
	}

	pr := &entities.PullRequest{
		ID:     p.nextPRID,
		Title:  input.Title,
		URL:    fmt.Sprintf("https://host.test/%s/pull/%d", repoFullName, p.nextPRID),
		Status: "open",
	}
	p.nextPRID++
	p.pullRequests[key] = pr
	return pr, nil
}

func (p *SpyHostRepository) SearchCode(_ context.Context, repoFullName, query string) ([]string, error) {
	p.SearchQueries = append(p.SearchQueries, query)
	if p.SearchErr != nil {
		return nil, p.SearchErr
	}
	return p.SearchResults[repoFullName], nil
}

func (p *SpyHostRepository) ListTree(_ context.Context, repoFullName, ref string) ([]entities.File, error) {
	p.TreeCalls = append(p.TreeCalls, ref)
	if p.ListTreeErr != nil {
		return nil, p.ListTreeErr
	}
	branch, ok := p.branch(repoFullName, p.refOrDefault(repoFullName, ref))
	if !ok {
		return nil, notFound("list tree", ref)
	}

	dirs := make(map[string]bool)
	entries := make([]entities.File, 0, len(branch))
	for path, content := range branch {
		entries = append(entries, entities.File{Path: path, ObjectID: entities.BlobHash(content)})
		for dir := parentDir(path); dir != ""; dir = parentDir(dir) {
			dirs[dir] = true
		}
	}
	for dir := range dirs {
		entries = append(entries, entities.File{Path: dir, IsDir: true})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (p *SpyHostRepository) ensureBranch(repoFullName, branch string) map[string]string {
	if p.files[repoFullName] == nil {
		p.files[repoFullName] = make(map[string]map[string]string)
	}
	if p.files[repoFullName][branch] == nil {
		p.files[repoFullName][branch] = make(map[string]string)
	}
	return p.files[repoFullName][branch]
}

func (p *SpyHostRepository) branch(repoFullName, name string) (map[string]string, bool) {
	branch, ok := p.files[repoFullName][name]
	return branch, ok
}

// refOrDefault maps an empty ref to the default branch and a commit SHA to
// the branch it points at.
func (p *SpyHostRepository) refOrDefault(repoFullName, ref string) string {
	if ref == "" {
		return p.Repos[repoFullName].DefaultBranch
	}
	if _, ok := p.branch(repoFullName, ref); ok {
		return ref
	}
	for name, files := range p.files[repoFullName] {
		if treeHash(files) == ref {
			return name
		}
	}
	return ref
}

// treeHash derives a stable commit-like SHA from the branch content.
func treeHash(files map[string]string) string {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	var b strings.Builder
	for _, path := range paths {
		b.WriteString(path + "\x00" + entities.BlobHash(files[path]) + "\n")
	}
	return entities.BlobHash(b.String())
}

func parentDir(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func prKey(repoFullName, head, base string) string {
	return repoFullName + "|" + head + "|" + base
}

func notFound(op, what string) error {
	return &entities.HostAPIError{Op: "failed to " + op, Status: 404, Message: what + " not found", Err: entities.ErrNotFound}
}

func conflict(op, message string) error {
	return &entities.HostAPIError{Op: "failed to " + op, Status: 409, Message: message, Err: entities.ErrConflict}
}
