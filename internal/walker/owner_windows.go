//go:build windows

package walker

import "strings"

// Owner ids have no POSIX meaning on Windows; the owner predicate never
// matches a named user or group there.
func ownerIDs(e *Entry) (uid, gid uint32, err error) {
	return 0, 0, nil
}

func lookupOwnerNames(uid, gid uint32) (string, string) {
	return "", ""
}

// isExecutable falls back to an extension heuristic on non-POSIX platforms,
// per spec: there are no executable mode bits to consult.
func isExecutable(e *Entry) bool {
	name := strings.ToLower(e.Name())
	for _, ext := range []string{".exe", ".bat", ".cmd", ".com", ".ps1"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
