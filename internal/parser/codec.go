package parser

import (
	"path/filepath"
	"strings"
)

// projectDirSeparator replaces every path separator in an encoded
// project directory name. /Users/alice/code/app is stored as
// -Users-alice-code-app.
const projectDirSeparator = "-"

// EncodeProjectPath converts an absolute project path into the
// directory name used under the Claude projects root.
func EncodeProjectPath(path string) string {
	return strings.ReplaceAll(
		filepath.ToSlash(path), "/", projectDirSeparator,
	)
}

// DecodeProjectDir reverses EncodeProjectPath by turning every
// dash back into a slash. The encoding has no escape, so a real
// path that contained a dash does not round-trip:
// /home/me/my-app decodes as /home/me/my/app. Callers prefer the
// cwd recorded inside the log whenever one exists.
func DecodeProjectDir(name string) string {
	return strings.ReplaceAll(name, projectDirSeparator, "/")
}

// ProjectDisplayName returns the last element of a project path,
// or the path itself when it has none.
func ProjectDisplayName(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return path
	}
	return filepath.Base(trimmed)
}
