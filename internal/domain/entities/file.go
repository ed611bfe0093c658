package entities

import (
	"github.com/go-git/go-git/v5/plumbing"
)

// FileContent is a file read from a branch together with its blob hash.
type FileContent struct {
	Path    string
	Content string
	SHA     string
}

// TargetFile is one file an action operates on. KnownSHA is empty when the
// file is not known to exist yet.
type TargetFile struct {
	Path     string
	KnownSHA string
}

// Branch is a named ref and the commit it points to.
type Branch struct {
	Name string
	SHA  string
}

// FileWrite describes a create (empty SHA) or an update guarded by SHA.
type FileWrite struct {
	Path    string
	Content string
	Message string
	Branch  string
	SHA     string
}

// FileDeletion describes a delete guarded by the file's current SHA.
type FileDeletion struct {
	Path    string
	Message string
	Branch  string
	SHA     string
}

// BlobHash computes the git blob object id of content.
func BlobHash(content string) string {
	return plumbing.ComputeHash(plumbing.BlobObject, []byte(content)).String()
}
