// Package testutil provides fixture helpers for walker and output tests.
// All file operations use t.TempDir() for safe, isolated testing.
package testutil

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// TestFixture holds a temporary directory tree used to exercise the walker.
type TestFixture struct {
	T       *testing.T
	RootDir string
}

// NewFixture creates an empty fixture rooted at a fresh temp directory.
func NewFixture(t *testing.T) *TestFixture {
	t.Helper()
	return &TestFixture{T: t, RootDir: t.TempDir()}
}

// CreateFile creates a file with the given content and returns its full path.
func (f *TestFixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	dir := filepath.Dir(fullPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateFileWithAge creates a file and backdates its mtime by age.
func (f *TestFixture) CreateFileWithAge(relPath string, content []byte, age time.Duration) string {
	f.T.Helper()

	fullPath := f.CreateFile(relPath, content)
	oldTime := time.Now().Add(-age)
	if err := os.Chtimes(fullPath, oldTime, oldTime); err != nil {
		f.T.Fatalf("failed to set file time for %s: %v", fullPath, err)
	}
	return fullPath
}

// CreateDir creates a directory and returns its full path.
func (f *TestFixture) CreateDir(relPath string) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", fullPath, err)
	}
	return fullPath
}

// CreateFileWithMode creates a file with the given permissions.
func (f *TestFixture) CreateFileWithMode(relPath string, content []byte, mode os.FileMode) string {
	f.T.Helper()

	fullPath := f.CreateFile(relPath, content)
	if err := os.Chmod(fullPath, mode); err != nil {
		f.T.Fatalf("failed to chmod file %s: %v", fullPath, err)
	}
	return fullPath
}

// CreateSymlink creates a symbolic link at linkPath pointing at target.
func (f *TestFixture) CreateSymlink(target, linkPath string) string {
	f.T.Helper()

	fullLinkPath := filepath.Join(f.RootDir, linkPath)
	dir := filepath.Dir(fullLinkPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.Symlink(target, fullLinkPath); err != nil {
		f.T.Fatalf("failed to create symlink %s -> %s: %v", fullLinkPath, target, err)
	}
	return fullLinkPath
}

// CreateBrokenSymlink creates a symlink whose target does not exist.
func (f *TestFixture) CreateBrokenSymlink(linkPath string) string {
	f.T.Helper()
	return f.CreateSymlink("/nonexistent/target/"+randomString(8), linkPath)
}

// CreateCircularSymlinks creates two symlinks that point at each other,
// the minimal fixture for cycle-detection tests under --follow.
func (f *TestFixture) CreateCircularSymlinks(link1, link2 string) (string, string) {
	f.T.Helper()

	fullLink1 := filepath.Join(f.RootDir, link1)
	fullLink2 := filepath.Join(f.RootDir, link2)
	os.MkdirAll(filepath.Dir(fullLink1), 0755)
	os.MkdirAll(filepath.Dir(fullLink2), 0755)

	os.Symlink(fullLink2, fullLink1)
	os.Symlink(fullLink1, fullLink2)

	return fullLink1, fullLink2
}

// CreateIgnoreFile writes a gitignore-syntax ignore file at relPath.
func (f *TestFixture) CreateIgnoreFile(relPath string, lines ...string) string {
	f.T.Helper()

	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	return f.CreateFile(relPath, []byte(content))
}

// CreateGitMarker creates an empty .git directory so VCS-ignore rules activate.
func (f *TestFixture) CreateGitMarker(relDir string) string {
	f.T.Helper()
	return f.CreateDir(filepath.Join(relDir, ".git"))
}

// Path returns the absolute path for a path relative to the fixture root.
func (f *TestFixture) Path(relPath string) string {
	return filepath.Join(f.RootDir, relPath)
}

// RelPath returns relPath relative to the fixture root.
func (f *TestFixture) RelPath(fullPath string) string {
	rel, _ := filepath.Rel(f.RootDir, fullPath)
	return rel
}

// FileExists reports whether path exists (following symlinks).
func (f *TestFixture) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AssertFileExists fails the test if path does not exist.
func (f *TestFixture) AssertFileExists(path string) {
	f.T.Helper()
	if !f.FileExists(path) {
		f.T.Errorf("expected file to exist: %s", path)
	}
}

// AssertIsSymlink fails the test if path is not a symlink.
func (f *TestFixture) AssertIsSymlink(path string) {
	f.T.Helper()
	info, err := os.Lstat(path)
	if err != nil {
		f.T.Errorf("failed to stat %s: %v", path, err)
		return
	}
	if info.Mode()&os.ModeSymlink == 0 {
		f.T.Errorf("expected %s to be a symlink", path)
	}
}

// SkipIfRoot skips the test when running as root, where permission-bit
// predicates behave differently.
func SkipIfRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("skipping test when running as root")
	}
}

// IsWindows reports whether the test is running on Windows, where symlink
// and permission-bit semantics diverge from POSIX.
func IsWindows() bool {
	return runtime.GOOS == "windows"
}

func randomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return fmt.Sprintf("%x", b)[:length]
}
