package junit

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Fallbacks used when a diagnostic cannot be attributed to a source line.
const (
	SentinelPath       = "nofilematched"
	SentinelLine       = 1
	PlaceholderMessage = "Failed to match message text."
)

// Location is a repository relative file and line extracted from a diagnostic.
type Location struct {
	Path string
	Line int
}

// Unmatched is the location used for diagnostics with no usable frame.
var Unmatched = Location{Path: SentinelPath, Line: SentinelLine}

var (
	// jestMessagePattern matches the line preceding the first "    at ..." stack frame.
	jestMessagePattern = regexp.MustCompile(`(.*)\n\s+at`)
	// jestFramePattern matches absolute "path:line:column" stack frame locations.
	jestFramePattern = regexp.MustCompile(`(/\S+):(\d+):(\d+)`)
	// pytestFramePattern matches "file.py:line" at the start of a traceback line.
	pytestFramePattern = regexp.MustCompile(`(?m)^(\w\S*\.py):(\d+)`)
)

// ExtractJestMessage returns the message line that precedes the first stack
// frame in a Jest failure text.
func ExtractJestMessage(text string) (string, bool) {
	m := jestMessagePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	msg := strings.TrimSpace(m[1])
	if msg == "" {
		return "", false
	}
	return msg, true
}

// ExtractJestLocation returns the first stack frame that lies inside rootDir
// and outside every vendored dependency directory, relative to rootDir.
func ExtractJestLocation(text, rootDir string, vendorDirs []string) (Location, bool) {
	for _, m := range jestFramePattern.FindAllStringSubmatch(text, -1) {
		rel, ok := relativeTo(rootDir, m[1])
		if !ok || isVendored(rel, vendorDirs) {
			continue
		}
		line, err := strconv.Atoi(m[2])
		if err != nil || line < 1 {
			continue
		}
		return Location{Path: rel, Line: line}, true
	}
	return Location{}, false
}

// ExtractPytestLocation returns the first "file.py:line" token at the start of
// a line in a pytest traceback.
func ExtractPytestLocation(text string) (Location, bool) {
	for _, m := range pytestFramePattern.FindAllStringSubmatch(text, -1) {
		line, err := strconv.Atoi(m[2])
		if err != nil || line < 1 {
			continue
		}
		return Location{Path: m[1], Line: line}, true
	}
	return Location{}, false
}

// relativeTo makes path relative to root lexically. Paths outside root are rejected.
func relativeTo(root, path string) (string, bool) {
	if root == "" {
		root = "/"
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func isVendored(rel string, vendorDirs []string) bool {
	for _, segment := range strings.Split(rel, "/") {
		for _, dir := range vendorDirs {
			if segment == dir {
				return true
			}
		}
	}
	return false
}
