package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/httputil"
	"github.com/matzehuels/orgchart/pkg/orgtree"
)

// Load reads an entity tree from path. "-" reads standard input; http and
// https URLs are fetched without a cache.
func Load(path string, stdin io.Reader) (*orgtree.Entity, error) {
	return LoadContext(context.Background(), path, stdin, nil)
}

// LoadContext is Load with a context and a client for URL sources. A nil
// client fetches uncached.
func LoadContext(ctx context.Context, path string, stdin io.Reader, client *httputil.Client) (*orgtree.Entity, error) {
	if httputil.IsURL(path) {
		if client == nil {
			client = httputil.NewClient(nil, nil)
		}
		return client.FetchTree(ctx, path)
	}
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		return orgtree.ReadEntity(stdin)
	}
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	return orgtree.ReadEntityFile(path)
}

// TreeHash returns the content hash used in cache keys. Formatting of the
// source file does not matter because the tree is re-encoded.
func TreeHash(tree *orgtree.Entity) (string, error) {
	var buf bytes.Buffer
	if err := orgtree.WriteEntity(tree, &buf); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode tree")
	}
	return cache.Hash(buf.Bytes()), nil
}

// ParseNodeRef splits "id" or "role:id" into a role and an id.
func ParseNodeRef(ref string) (orgtree.Role, string, error) {
	role, id := orgtree.Descendant, ref
	if r, rest, ok := strings.Cut(ref, ":"); ok {
		parsed, err := orgtree.ParseRole(r)
		if err != nil {
			return role, "", err
		}
		role, id = parsed, rest
	}
	if id == "" {
		return role, "", errors.New(errors.ErrCodeInvalidInput, "empty node reference %q", ref)
	}
	return role, id, nil
}
