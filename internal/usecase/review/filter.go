package review

import (
	"path/filepath"
	"strings"

	"github.com/reviewbot/prr/internal/domain"
)

// binaryExtensions are file types that are never sent to analyzers, even
// when no exclude pattern matches them.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".svg": true, ".pdf": true, ".zip": true, ".tar": true, ".gz": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true,
	".pyc": true, ".class": true, ".o": true, ".a": true,
}

// ShouldReview reports whether a changed file is worth analyzing. Removed
// files, binary content, and files matching an exclude pattern are skipped.
func ShouldReview(file domain.ChangedFile, excludePatterns []string) bool {
	if file.Status == domain.FileStatusRemoved {
		return false
	}
	if file.IsBinary {
		return false
	}

	ext := strings.ToLower(filepath.Ext(file.Path))
	if binaryExtensions[ext] {
		return false
	}

	for _, pattern := range excludePatterns {
		if matchesPattern(file.Path, pattern) {
			return false
		}
	}

	return true
}

// FilterFiles returns the subset of files that should be analyzed.
func FilterFiles(files []domain.ChangedFile, excludePatterns []string) []domain.ChangedFile {
	kept := make([]domain.ChangedFile, 0, len(files))
	for _, file := range files {
		if ShouldReview(file, excludePatterns) {
			kept = append(kept, file)
		}
	}
	return kept
}

// matchesPattern applies the exclude pattern conventions: directory patterns
// ("vendor/") match anywhere in the path, glob patterns ("*.min.js") match
// the basename, and anything else matches as a path substring.
func matchesPattern(path, pattern string) bool {
	if pattern == "" {
		return false
	}

	if strings.HasSuffix(pattern, "/") {
		return strings.Contains(path, pattern) || strings.HasPrefix(path, strings.TrimSuffix(pattern, "/")+"/")
	}

	if strings.ContainsAny(pattern, "*?[") {
		if ok, err := filepath.Match(pattern, filepath.Base(path)); err == nil && ok {
			return true
		}
		return false
	}

	return strings.Contains(path, pattern)
}
