package link

import (
	"path/filepath"
	"strings"
)

// skippedExtensions lists file extensions that are never loaded as pages.
var skippedExtensions = map[string]bool{
	// images
	".ico": true, ".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".svg": true, ".webp": true, ".tif": true, ".tiff": true,
	".avif": true,

	// stylesheets, scripts, fonts
	".css": true, ".js": true, ".mjs": true, ".map": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,

	// feeds and data
	".xml": true, ".rss": true, ".atom": true, ".json": true, ".csv": true,

	// documents
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".odt": true, ".ods": true, ".rtf": true,
	".epub": true,

	// archives, media, executables
	".zip": true, ".gz": true, ".tgz": true, ".tar": true, ".bz2": true,
	".7z": true, ".rar": true, ".mp3": true, ".mp4": true, ".avi": true,
	".mov": true, ".webm": true, ".wav": true, ".ogg": true, ".exe": true,
	".msi": true, ".dmg": true, ".apk": true, ".deb": true, ".rpm": true,
	".iso": true, ".bin": true, ".jar": true,
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing "/*" to match everything below a directory
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users/1"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, p string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(p, prefix+"/") || p == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(strings.ToLower(p), strings.ToLower(strings.TrimPrefix(pattern, "*"))) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, p)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Patterns without a directory part also match the last path segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(p))
		if err == nil && matched {
			return true
		}
	}

	return false
}
