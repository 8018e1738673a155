package reconcile

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Key is the cross-system identity of a movie file. Two records with equal
// keys refer to the same physical file, never merely the same title.
type Key string

// String returns the key as a plain string.
func (k Key) String() string { return string(k) }

const keySeparator = "/"

// IdentityKey derives the identity key for a raw file path.
//
// Only the immediate parent directory name and the file name are kept, so
// drive letters, UNC shares and mount points do not affect the result. Both
// "/" and "\" separate components. Keys are Unicode case-folded and NFC
// normalized, making comparison case-insensitive on both sides. A path
// without a parent directory yields the bare file name.
func IdentityKey(path string) Key {
	parent, file, found := cutLastSeparator(path)
	if !found {
		return Key(canonical(path))
	}
	_, folder, _ := cutLastSeparator(parent)
	if folder == "" {
		return Key(canonical(file))
	}
	return Key(canonical(folder + keySeparator + file))
}

func cutLastSeparator(path string) (before, after string, found bool) {
	idx := strings.LastIndexAny(path, `/\`)
	if idx < 0 {
		return "", path, false
	}
	return path[:idx], path[idx+1:], true
}

// canonical folds case and normalizes composition. A Caser keeps state, so a
// fresh one is used per call to keep IdentityKey safe for concurrent use.
func canonical(value string) string {
	return norm.NFC.String(cases.Fold().String(value))
}
