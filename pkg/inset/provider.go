package inset

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/httputil"
)

// Provider returns the raw bytes behind an image reference.
type Provider interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, ref string) ([]byte, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return f(ctx, ref)
}

// FileProvider reads local images. Relative references are resolved
// against BaseDir.
type FileProvider struct {
	BaseDir string

	// Restrict rejects references that escape BaseDir. The HTTP server
	// sets it; the CLI reads whatever the user points at.
	Restrict bool
}

// Fetch reads the referenced file.
func (p *FileProvider) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := errors.ValidatePath(ref, !p.Restrict); err != nil {
		return nil, err
	}

	path := ref
	if p.Restrict && filepath.IsAbs(ref) {
		return nil, errors.New(errors.ErrCodeInvalidPath, "absolute image paths are not allowed: %s", ref)
	}
	if !filepath.IsAbs(path) && p.BaseDir != "" {
		path = filepath.Join(p.BaseDir, path)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeImageNotFound, err, "image %s", ref)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read image %s", ref)
	}
	return data, nil
}

// HTTPProvider downloads remote images through a caching, retrying client.
type HTTPProvider struct {
	Client *httputil.Client
}

// Fetch downloads ref.
func (p *HTTPProvider) Fetch(ctx context.Context, ref string) ([]byte, error) {
	data, err := p.Client.Fetch(ctx, ref)
	if errors.Is(err, errors.ErrCodeNotFound) {
		return nil, errors.Wrap(errors.ErrCodeImageNotFound, err, "image %s", ref)
	}
	return data, err
}

// Router sends http(s) references to Remote and everything else to Local.
// A nil side rejects references of its kind.
type Router struct {
	Remote Provider
	Local  Provider
}

// Fetch dispatches ref by scheme.
func (r *Router) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if errors.IsURL(ref) {
		if r.Remote == nil {
			return nil, errors.New(errors.ErrCodeUnsupported, "remote images are disabled: %s", ref)
		}
		return r.Remote.Fetch(ctx, ref)
	}
	if r.Local == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "local images are disabled: %s", ref)
	}
	return r.Local.Fetch(ctx, ref)
}
