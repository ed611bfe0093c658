//go:build unit

package azuredevops_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repopatch/internal/domain/entities"
	"github.com/rios0rios0/repopatch/internal/domain/repositories"
	adoRepo "github.com/rios0rios0/repopatch/internal/infrastructure/repositories/azuredevops"
)

const (
	itemsPath = "/acme/platform/_apis/git/repositories/api/items"
	refsPath  = "/acme/platform/_apis/git/repositories/api/refs"
	pushPath  = "/acme/platform/_apis/git/repositories/api/pushes"
	prsPath   = "/acme/platform/_apis/git/repositories/api/pullrequests"
	headSHA   = "1111111111111111111111111111111111111111"
)

func newHost(t *testing.T, handler http.HandlerFunc) (repositories.HostRepository, string) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return adoRepo.NewAzureDevOpsHostRepository("pat", server.URL+"/acme"), server.URL + "/acme"
}

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestAzureDevOpsHostRepository(t *testing.T) {
	t.Parallel()

	t.Run("should read a file on a branch with basic auth", func(t *testing.T) {
		t.Parallel()

		// given
		host, _ := newHost(t, func(w http.ResponseWriter, r *http.Request) {
			user, password, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Empty(t, user)
			assert.Equal(t, "pat", password)
			assert.Equal(t, itemsPath, r.URL.Path)
			assert.Equal(t, "/go.mod", r.URL.Query().Get("path"))
			assert.Equal(t, "main", r.URL.Query().Get("versionDescriptor.version"))
			assert.Equal(t, "branch", r.URL.Query().Get("versionDescriptor.versionType"))
			assert.Equal(t, "7.0", r.URL.Query().Get("api-version"))
			reply(w, http.StatusOK,
				`{"objectId":"b1","gitObjectType":"blob","path":"/go.mod","content":"go 1.22\n"}`)
		})

		// when
		file, err := host.GetFile(context.Background(), "platform/api", "go.mod", "main")

		// then
		require.NoError(t, err)
		assert.Equal(t, &entities.FileContent{Path: "go.mod", Content: "go 1.22\n", SHA: "b1"}, file)
	})

	t.Run("should report missing files and directories", func(t *testing.T) {
		t.Parallel()

		// given
		host, _ := newHost(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("path") == "/deploy" {
				reply(w, http.StatusOK, `{"objectId":"t1","gitObjectType":"tree","path":"/deploy","isFolder":true}`)
				return
			}
			reply(w, http.StatusNotFound, `{"message":"TF401174: The item could not be found."}`)
		})

		// when
		_, missingErr := host.GetFile(context.Background(), "platform/api", "nope.txt", "main")
		_, dirErr := host.GetFile(context.Background(), "platform/api", "deploy", "main")

		// then
		require.ErrorIs(t, missingErr, entities.ErrNotFound)
		assert.Contains(t, missingErr.Error(), "404 TF401174")
		require.ErrorIs(t, dirErr, entities.ErrIsDirectory)
	})

	t.Run("should match the exact branch out of the prefix filter", func(t *testing.T) {
		t.Parallel()

		// given
		host, _ := newHost(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, refsPath, r.URL.Path)
			reply(w, http.StatusOK, `{"value":[{"name":"refs/heads/update-files","objectId":"x"},`+
				`{"name":"refs/heads/update","objectId":"`+headSHA+`"}]}`)
		})

		// when
		branch, found, err := host.GetBranch(context.Background(), "platform/api", "update")
		_, prefixFound, prefixErr := host.GetBranch(context.Background(), "platform/api", "update-file")

		// then
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, entities.Branch{Name: "update", SHA: headSHA}, branch)
		require.NoError(t, prefixErr)
		assert.False(t, prefixFound)
	})

	t.Run("should report an existing branch when the ref update is rejected", func(t *testing.T) {
		t.Parallel()

		// given
		var body []map[string]string
		host, _ := newHost(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			reply(w, http.StatusOK, `{"value":[{"success":false,"updateStatus":"failedToCreate"}]}`)
		})

		// when
		err := host.CreateBranch(context.Background(), "platform/api", "update", headSHA)

		// then
		require.ErrorIs(t, err, entities.ErrAlreadyExists)
		require.Len(t, body, 1)
		assert.Equal(t, "refs/heads/update", body[0]["name"])
		assert.Equal(t, headSHA, body[0]["newObjectId"])
	})

	t.Run("should push an edit on top of the branch head after checking the blob", func(t *testing.T) {
		t.Parallel()

		// given
		var push struct {
			RefUpdates []map[string]string `json:"refUpdates"`
			Commits    []struct {
				Comment string `json:"comment"`
				Changes []struct {
					ChangeType string            `json:"changeType"`
					Item       map[string]string `json:"item"`
					NewContent map[string]string `json:"newContent"`
				} `json:"changes"`
			} `json:"commits"`
		}
		host, _ := newHost(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case itemsPath:
				reply(w, http.StatusOK, `{"objectId":"b1","gitObjectType":"blob","path":"/a.txt"}`)
			case refsPath:
				reply(w, http.StatusOK, `{"value":[{"name":"refs/heads/update","objectId":"`+headSHA+`"}]}`)
			case pushPath:
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&push))
				reply(w, http.StatusCreated, `{"pushId":1}`)
			default:
				t.Errorf("unexpected request %s", r.URL.Path)
			}
		})

		// when
		sha, err := host.PutFile(context.Background(), "platform/api", entities.FileWrite{
			Path: "a.txt", Content: "hello\n", Message: "Update a.txt", Branch: "update", SHA: "b1",
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.BlobHash("hello\n"), sha)
		require.Len(t, push.RefUpdates, 1)
		assert.Equal(t, headSHA, push.RefUpdates[0]["oldObjectId"])
		require.Len(t, push.Commits, 1)
		assert.Equal(t, "Update a.txt", push.Commits[0].Comment)
		change := push.Commits[0].Changes[0]
		assert.Equal(t, "edit", change.ChangeType)
		assert.Equal(t, "/a.txt", change.Item["path"])
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("hello\n")), change.NewContent["content"])
	})

	t.Run("should refuse a delete when the blob changed since it was read", func(t *testing.T) {
		t.Parallel()

		// given
		pushed := false
		host, _ := newHost(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == pushPath {
				pushed = true
			}
			reply(w, http.StatusOK, `{"objectId":"b2","gitObjectType":"blob","path":"/a.txt"}`)
		})

		// when
		err := host.DeleteFile(context.Background(), "platform/api", entities.FileDeletion{
			Path: "a.txt", Message: "Remove a.txt", Branch: "update", SHA: "b1",
		})

		// then
		require.ErrorIs(t, err, entities.ErrConflict)
		assert.False(t, pushed)
	})

	t.Run("should map a stale push to a conflict", func(t *testing.T) {
		t.Parallel()

		// given
		host, _ := newHost(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case refsPath:
				reply(w, http.StatusOK, `{"value":[{"name":"refs/heads/update","objectId":"`+headSHA+`"}]}`)
			default:
				reply(w, http.StatusConflict, `{"message":"TF401028: The reference has already been updated by another client.","typeKey":"GitReferenceStaleException"}`)
			}
		})

		// when
		_, err := host.PutFile(context.Background(), "platform/api", entities.FileWrite{
			Path: "new.txt", Content: "x", Message: "Add new.txt", Branch: "update",
		})

		// then
		require.ErrorIs(t, err, entities.ErrConflict)
		var apiErr *entities.HostAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, `failed to create file "new.txt"`, apiErr.Op)
	})

	t.Run("should build the web URL of found and created pull requests", func(t *testing.T) {
		t.Parallel()

		// given
		host, base := newHost(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, prsPath, r.URL.Path)
			if r.Method == http.MethodGet {
				assert.Equal(t, "refs/heads/update", r.URL.Query().Get("searchCriteria.sourceRefName"))
				assert.Equal(t, "refs/heads/main", r.URL.Query().Get("searchCriteria.targetRefName"))
				assert.Equal(t, "active", r.URL.Query().Get("searchCriteria.status"))
				reply(w, http.StatusOK, `{"value":[]}`)
				return
			}
			reply(w, http.StatusCreated, `{"pullRequestId":7,"title":"Update","status":"active"}`)
		})

		// when
		found, findErr := host.FindPullRequest(context.Background(), "platform/api", "update", "main")
		created, createErr := host.CreatePullRequest(context.Background(), "platform/api", entities.PullRequestInput{
			SourceBranch: "update", TargetBranch: "refs/heads/main", Title: "Update", Description: "body",
		})

		// then
		require.NoError(t, findErr)
		assert.Nil(t, found)
		require.NoError(t, createErr)
		assert.Equal(t, 7, created.ID)
		assert.Equal(t, base+"/platform/_git/api/pullrequest/7", created.URL)
	})

	t.Run("should map an active pull request to already exists", func(t *testing.T) {
		t.Parallel()

		// given
		host, _ := newHost(t, func(w http.ResponseWriter, _ *http.Request) {
			reply(w, http.StatusConflict, `{"message":"TF401179: An active pull request for the source and target branch already exists.","typeKey":"GitPullRequestExistsException"}`)
		})

		// when
		_, err := host.CreatePullRequest(context.Background(), "platform/api", entities.PullRequestInput{
			SourceBranch: "update", TargetBranch: "main",
		})

		// then
		require.ErrorIs(t, err, entities.ErrAlreadyExists)
	})

	t.Run("should list the tree without the root and with folders flagged", func(t *testing.T) {
		t.Parallel()

		// given
		host, _ := newHost(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Full", r.URL.Query().Get("recursionLevel"))
			assert.Equal(t, "commit", r.URL.Query().Get("versionDescriptor.versionType"))
			reply(w, http.StatusOK, `{"value":[`+
				`{"objectId":"r","gitObjectType":"tree","path":"/","isFolder":true},`+
				`{"objectId":"b2","gitObjectType":"blob","path":"/docs/a.md"},`+
				`{"objectId":"t1","gitObjectType":"tree","path":"/docs","isFolder":true}]}`)
		})

		// when
		files, err := host.ListTree(context.Background(), "platform/api", headSHA)

		// then
		require.NoError(t, err)
		assert.Equal(t, []entities.File{
			{Path: "docs", ObjectID: "t1", IsDir: true},
			{Path: "docs/a.md", ObjectID: "b2"},
		}, files)
	})

	t.Run("should search code within the repository", func(t *testing.T) {
		t.Parallel()

		// given
		var body map[string]any
		host, _ := newHost(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/acme/platform/_apis/search/codesearchresults", r.URL.Path)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			reply(w, http.StatusOK, `{"count":1,"results":[{"path":"/src/main.go","fileName":"main.go"}]}`)
		})

		// when
		paths, err := host.SearchCode(context.Background(), "platform/api", " golang.org/x/net ")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"/src/main.go"}, paths)
		assert.Equal(t, "golang.org/x/net", body["searchText"])
		assert.Equal(t, map[string]any{"Project": []any{"platform"}, "Repository": []any{"api"}}, body["filters"])
	})

	t.Run("should list every project when the owner is the organization", func(t *testing.T) {
		t.Parallel()

		// given
		host, _ := newHost(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/acme/_apis/projects":
				if r.URL.Query().Get("continuationToken") == "" {
					w.Header().Set("x-ms-continuationtoken", "next")
					reply(w, http.StatusOK, `{"value":[{"name":"platform"}]}`)
					return
				}
				reply(w, http.StatusOK, `{"value":[{"name":"web"}]}`)
			case "/acme/platform/_apis/git/repositories":
				reply(w, http.StatusOK, `{"value":[{"name":"api","webUrl":"https://dev.azure.com/acme/platform/_git/api",`+
					`"defaultBranch":"refs/heads/develop","isDisabled":true,`+
					`"project":{"name":"platform","visibility":"private"}}]}`)
			default:
				reply(w, http.StatusNotFound, `{"message":"project not found"}`)
			}
		})

		// when
		repos, err := host.ListRepositories(context.Background(), "acme")

		// then
		require.NoError(t, err)
		require.Len(t, repos, 1)
		assert.Equal(t, entities.Repository{
			Name:          "api",
			FullName:      "platform/api",
			HTMLURL:       "https://dev.azure.com/acme/platform/_git/api",
			DefaultBranch: "develop",
			Owner:         "platform",
			ProviderName:  "azuredevops",
			Private:       true,
			Archived:      true,
		}, repos[0])
	})
}
