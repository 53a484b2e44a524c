package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"ucextract/internal/extractor"
)

// DefaultExtensions are the file extensions collected when walking directories.
var DefaultExtensions = []string{".txt"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls how documents are collected and labelled.
type Options struct {
	// Distributor labels every document. It takes precedence over FromDir.
	Distributor string
	// FromDir labels each document with its parent directory name.
	FromDir bool
	// Extensions filters files found while walking directories. Files named
	// explicitly are always read.
	Extensions []string
}

// Collect expands paths into a sorted, de-duplicated list of files.
// Directories are walked recursively; hidden entries are skipped.
func Collect(paths []string, opts Options) ([]string, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("corpus: %w", err)
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			if hasExtension(d.Name(), exts) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("corpus: walk %s: %w", root, err)
		}
	}
	slices.Sort(files)
	return files, nil
}

// Load collects paths and reads every file into a document.
func Load(paths []string, opts Options) ([]extractor.Document, error) {
	files, err := Collect(paths, opts)
	if err != nil {
		return nil, err
	}
	return ReadAll(files, opts), nil
}

// ReadAll reads files in order. A file that cannot be read still yields a
// document, with Err set, so one bad file does not stop the rest.
func ReadAll(files []string, opts Options) []extractor.Document {
	docs := make([]extractor.Document, 0, len(files))
	for _, path := range files {
		doc, err := ReadFile(path, opts)
		if err != nil {
			doc = extractor.Document{Distributor: Label(path, opts), Path: path, Err: err}
		}
		docs = append(docs, doc)
	}
	return docs
}

// ReadFile reads one document from disk.
func ReadFile(path string, opts Options) (extractor.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extractor.Document{}, fmt.Errorf("corpus: read %s: %w", path, err)
	}
	text, err := Decode(data)
	if err != nil {
		return extractor.Document{}, fmt.Errorf("corpus: decode %s: %w", path, err)
	}
	return extractor.Document{Text: text, Distributor: Label(path, opts), Path: path}, nil
}

// Read reads one document from r, as for stdin input.
func Read(r io.Reader, name string, opts Options) (extractor.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return extractor.Document{}, fmt.Errorf("corpus: read %s: %w", name, err)
	}
	text, err := Decode(data)
	if err != nil {
		return extractor.Document{}, fmt.Errorf("corpus: decode %s: %w", name, err)
	}
	return extractor.Document{Text: text, Distributor: opts.Distributor, Path: name}, nil
}

// Decode returns data as a UTF-8 string, transcoding from Windows-1252 when
// data is not valid UTF-8.
func Decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", errors.New("text is neither UTF-8 nor Windows-1252")
	}
	return string(decoded), nil
}

// Label returns the distributor label for path.
func Label(path string, opts Options) string {
	if label := strings.TrimSpace(opts.Distributor); label != "" {
		return label
	}
	if !opts.FromDir {
		return ""
	}
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return dir
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range exts {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
