package hostfuncs

import (
	"os"
	"path/filepath"
	"strings"
)

// PathPolicy decides which host files a guest may name in image requests.
// Paths are resolved against a working directory and, optionally, through
// symlinks before being matched against the allowed roots.
type PathPolicy struct {
	cwd               string
	roots             []string
	symlinkResolution bool
}

// PathPolicyOption configures a PathPolicy.
type PathPolicyOption func(*PathPolicy)

// WithWorkingDirectory sets the directory relative paths are resolved in.
func WithWorkingDirectory(cwd string) PathPolicyOption {
	return func(p *PathPolicy) {
		p.cwd = cwd
	}
}

// WithSymlinkResolution enables or disables symlink resolution.
func WithSymlinkResolution(enabled bool) PathPolicyOption {
	return func(p *PathPolicy) {
		p.symlinkResolution = enabled
	}
}

// NewPathPolicy allows reads below each of roots. With no roots every path
// is denied. The working directory is captured at construction time.
func NewPathPolicy(roots []string, opts ...PathPolicyOption) *PathPolicy {
	p := &PathPolicy{symlinkResolution: true}
	for _, opt := range opts {
		opt(p)
	}
	if p.cwd == "" {
		p.cwd, _ = os.Getwd() // empty cwd makes relative paths fail closed
	}
	for _, r := range roots {
		if abs, ok := p.absolute(r); ok {
			p.roots = append(p.roots, p.resolve(abs))
		}
	}
	return p
}

// AllowAll returns a policy that permits every path.
func AllowAll() *PathPolicy {
	return NewPathPolicy([]string{string(filepath.Separator)})
}

// Resolve returns the absolute path to open, or an error when the path is
// outside every allowed root.
func (p *PathPolicy) Resolve(path string) (string, error) {
	if path == "" {
		return "", Errorf(ErrnoInvalidArgument, "empty image path")
	}
	if strings.IndexByte(path, 0) >= 0 {
		return "", Errorf(ErrnoInvalidArgument, "image path contains NUL")
	}
	abs, ok := p.absolute(path)
	if !ok {
		return "", Errorf(ErrnoInvalidArgument, "cannot resolve relative path %q", path)
	}
	abs = p.resolve(abs)
	for _, root := range p.roots {
		if within(root, abs) {
			return abs, nil
		}
	}
	return "", Errorf(ErrnoNotFound, "image path %q is not readable by the guest", path)
}

func (p *PathPolicy) absolute(path string) (string, bool) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), true
	}
	if p.cwd == "" {
		return "", false
	}
	return filepath.Join(p.cwd, path), true
}

func (p *PathPolicy) resolve(path string) string {
	if !p.symlinkResolution {
		return path
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	// The file may not exist yet; resolve its directory instead.
	if dir, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		return filepath.Join(dir, filepath.Base(path))
	}
	return path
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
