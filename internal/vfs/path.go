package vfs

import (
	"strings"
)

// Root is the normalized path of the tree root.
const Root = "/"

// Normalize canonicalizes a raw path into its absolute form. Repeated
// separators collapse, "." and ".." are resolved, trailing separators are
// dropped and a leading separator is forced. Paths that would climb above the
// root are rejected.
func Normalize(raw string) (string, error) {
	p, err := normalize(raw)
	if err != nil {
		return "", newError(OpNormalize, raw, err)
	}
	return p, nil
}

func normalize(raw string) (string, error) {
	if raw == "" {
		return "", detail(ErrInvalidPath, "empty path")
	}
	if strings.IndexByte(raw, 0) >= 0 {
		return "", detail(ErrInvalidPath, "path contains NUL")
	}

	segments := make([]string, 0, strings.Count(raw, "/")+1)
	for _, seg := range strings.Split(raw, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(segments) == 0 {
				return "", detail(ErrInvalidPath, "path escapes root")
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}

	return Root + strings.Join(segments, "/"), nil
}

// Parent returns the parent of a normalized path. The parent of root is root.
func Parent(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i <= 0 {
		return Root
	}
	return p[:i]
}

// Base returns the last element of a normalized path, or "/" for root.
func Base(p string) string {
	if p == Root {
		return Root
	}
	return p[strings.LastIndexByte(p, '/')+1:]
}

// Join appends a child name to a normalized directory path.
func Join(dir, name string) string {
	if dir == Root {
		return Root + name
	}
	return dir + "/" + name
}

// IsWithin reports whether p is dir itself or lies below it.
func IsWithin(p, dir string) bool {
	if dir == Root {
		return true
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// ancestors returns the proper ancestors of p from root downwards, root included.
func ancestors(p string) []string {
	if p == Root {
		return nil
	}
	out := []string{Root}
	for i := 1; i < len(p); i++ {
		if p[i] == '/' {
			out = append(out, p[:i])
		}
	}
	return out
}
