package loader

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Document is the normalized extraction result for a single source file.
// It is immutable once produced; re-ingesting the same path produces a new
// Document that supersedes the old one.
type Document struct {
	SourcePath  string     // Normalized absolute path, the document identity
	Ext         string     // Lowercase file extension including the dot
	SizeBytes   int64      // Raw file size
	ContentHash string     // "sha256:<hex>" of the raw file bytes
	ExtractedAt time.Time  // When extraction happened
	Text        string     // Normalized plain text
	Pages       []PageSpan // Rune spans per page, only set for paginated formats
}

// PageSpan maps a page number to a rune offset range in Document.Text.
type PageSpan struct {
	Number int // 1-based page number
	Start  int // Rune offset of the first rune of the page
	End    int // Rune offset one past the last rune of the page
}

// PageForOffset returns the page number containing the given rune offset,
// or 0 if the document has no page information.
func (d *Document) PageForOffset(offset int) int {
	for _, p := range d.Pages {
		if offset >= p.Start && offset < p.End {
			return p.Number
		}
	}
	if n := len(d.Pages); n > 0 && offset >= d.Pages[n-1].End {
		return d.Pages[n-1].Number
	}
	return 0
}

// LoadError records a per-file extraction failure. A LoadError never aborts
// a batch; the ingestion pipeline reports it and continues.
type LoadError struct {
	SourcePath string
	Err        error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.SourcePath, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Result is either a successfully extracted Document or a LoadError.
type Result struct {
	Document *Document
	Err      *LoadError
}

// Prefixes that mark temporary or hidden files to be skipped during discovery.
var ignoredPrefixes = []string{"~$", "."}

// supportedExtensions maps a lowercase extension to its text extractor.
var supportedExtensions = map[string]func(path string) (string, []PageSpan, error){
	".txt":  extractPlainText,
	".md":   extractMarkdown,
	".pdf":  extractPDF,
	".docx": extractDOCX,
}

// Supported reports whether files with the given name can be extracted.
func Supported(filename string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// SupportedExtensions returns the lowercase extensions the loader handles.
func SupportedExtensions() []string {
	return []string{".docx", ".md", ".pdf", ".txt"}
}

// Loader reads raw files and produces normalized text plus per-file metadata.
type Loader struct{}

// New creates a Loader.
func New() *Loader {
	return &Loader{}
}

// LoadDir walks root recursively and extracts every supported file.
// Results are ordered lexicographically by normalized path so two runs over
// an unchanged directory yield identical sequences. Unsupported and ignored
// files are silently skipped; corrupt or unreadable files produce a Result
// carrying a LoadError. A missing or unreadable root is a hard error.
func (l *Loader) LoadDir(ctx context.Context, root string) ([]Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("documents root %s is not readable: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("documents root %s is not a directory", root)
	}

	var paths []string
	// WalkDir visits entries in lexical order, which gives the deterministic
	// ordering guarantee downstream diffing depends on.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && isIgnored(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if isIgnored(name) || !Supported(name) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan documents root %s: %w", root, err)
	}

	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		doc, err := l.LoadFile(ctx, path)
		if err != nil {
			loadErr, ok := err.(*LoadError)
			if !ok {
				loadErr = &LoadError{SourcePath: path, Err: err}
			}
			results = append(results, Result{Err: loadErr})
			continue
		}
		results = append(results, Result{Document: doc})
	}

	return results, nil
}

// LoadFile extracts a single file. Unsupported extensions and extraction
// failures are returned as *LoadError.
func (l *Loader) LoadFile(_ context.Context, path string) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &LoadError{SourcePath: path, Err: err}
	}
	absPath = filepath.ToSlash(absPath)

	ext := strings.ToLower(filepath.Ext(absPath))
	extract, ok := supportedExtensions[ext]
	if !ok {
		return nil, &LoadError{SourcePath: absPath, Err: fmt.Errorf("unsupported extension %q", ext)}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{SourcePath: absPath, Err: err}
	}

	text, pages, err := extract(path)
	if err != nil {
		return nil, &LoadError{SourcePath: absPath, Err: err}
	}

	hash := sha256.Sum256(raw)

	return &Document{
		SourcePath:  absPath,
		Ext:         ext,
		SizeBytes:   int64(len(raw)),
		ContentHash: fmt.Sprintf("sha256:%x", hash),
		ExtractedAt: time.Now().UTC(),
		Text:        text,
		Pages:       pages,
	}, nil
}

func isIgnored(name string) bool {
	for _, p := range ignoredPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// normalizeText converts line endings to LF, collapses runs of blank lines,
// and trims surrounding whitespace.
func normalizeText(text string) string {
	if text == "" {
		return ""
	}
	t := strings.ReplaceAll(text, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")
	for strings.Contains(t, "\n\n\n") {
		t = strings.ReplaceAll(t, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(t)
}

func extractPlainText(path string) (string, []PageSpan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return normalizeText(string(raw)), nil, nil
}
