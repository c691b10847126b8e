// Package ingest discovers text documents on disk and loads them with metadata.
package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"ragmcp/internal/domain"
	"ragmcp/internal/logger"
)

// SupportedExtensions lists the file types that are ingested, lower-case and without the dot.
var SupportedExtensions = []string{"txt", "md", "markdown"}

// maxTitleLength bounds a first-line title; longer lines fall back to the file name.
const maxTitleLength = 100

var numberedItem = regexp.MustCompile(`^\d+\.\s`)

// Reader loads supported documents from a directory.
type Reader struct {
	recursive bool
	exclude   []string
}

func NewReader(recursive bool, exclude []string) *Reader {
	return &Reader{recursive: recursive, exclude: exclude}
}

// Result is the outcome of reading a directory.
type Result struct {
	Documents []domain.Document
	// Skipped lists files that matched but could not be read.
	Skipped []string
}

// ReadDir loads every supported file under dir. Unreadable files are logged and skipped.
// A missing directory yields an empty result and an error.
func (r *Reader) ReadDir(dir string) (Result, error) {
	var res Result
	info, err := os.Stat(dir)
	if err != nil {
		return res, fmt.Errorf("documents directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return res, fmt.Errorf("documents path %s is not a directory", dir)
	}

	paths, err := r.discover(dir)
	if err != nil {
		return res, err
	}
	for _, p := range paths {
		doc, err := ReadFile(p)
		if err != nil {
			logger.Warn("failed to ingest file", "path", p, "err", err)
			res.Skipped = append(res.Skipped, p)
			continue
		}
		logger.Debug("ingested file", "path", p, "title", doc.Metadata.Title)
		res.Documents = append(res.Documents, doc)
	}
	return res, nil
}

func (r *Reader) discover(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && (!r.recursive || r.excluded(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !Supported(path) || r.excluded(rel) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (r *Reader) excluded(rel string) bool {
	base := filepath.Base(rel)
	for _, pattern := range r.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// Supported reports whether path has an ingestible extension, case-insensitively.
func Supported(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadFile loads a single document.
func ReadFile(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	content := strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(string(data))
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return domain.Document{
		Content: content,
		Metadata: domain.DocumentMetadata{
			Source:   path,
			Title:    Title(content, stem),
			FileType: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
			Stats:    Stats(content),
		},
	}, nil
}

// Title picks the first "# " heading, else the first non-blank line if it is short, else fallback.
func Title(content, fallback string) string {
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len([]rune(line)) < maxTitleLength {
			return strings.TrimSpace(line)
		}
		break
	}
	return fallback
}

// Stats computes structural statistics of content.
func Stats(content string) domain.StructuralStats {
	lines := strings.Split(content, "\n")
	s := domain.StructuralStats{
		Lines:      len(lines),
		Words:      len(strings.Fields(content)),
		Characters: len([]rune(content)),
		CodeBlocks: strings.Count(content, "```") / 2,
	}
	for _, line := range lines {
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, "#"):
			s.Headings++
		case strings.HasPrefix(t, "- "), strings.HasPrefix(t, "* "), numberedItem.MatchString(t):
			s.ListItems++
		}
	}
	return s
}
