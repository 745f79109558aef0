// Package loader provides settings file loading and saving for Quicky.
//
// The loader package decodes settings files in JSON (with comments), TOML
// and YAML into flat or nested configuration maps, and writes single keys
// back. JSON writes are applied in place so unrelated content is kept.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Format is a settings file encoding.
type Format uint8

const (
	// FormatJSON is JSON, optionally with comments and trailing commas.
	FormatJSON Format = iota
	// FormatTOML is TOML.
	FormatTOML
	// FormatYAML is YAML.
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// ErrUnsupportedFormat indicates a settings file extension that cannot be decoded.
var ErrUnsupportedFormat = errors.New("unsupported settings format")

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return FormatJSON, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Extensions lists the recognized settings file extensions in lookup order.
var Extensions = []string{".json", ".jsonc", ".toml", ".yaml", ".yml"}

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces the file at path, creating parent directories.
	WriteFile(path string, data []byte) error
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to a temporary sibling and renames it over path.
func (OSFS) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// ParseError represents an error while parsing a settings file.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Decode parses data in the given format. Empty input decodes to an empty map.
func Decode(format Format, source string, data []byte) (map[string]any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return make(map[string]any), nil
	}

	var (
		config map[string]any
		err    error
	)
	switch format {
	case FormatJSON:
		config, err = decodeJSON(data)
	case FormatTOML:
		config, err = decodeTOML(data)
	case FormatYAML:
		config, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	if config == nil {
		config = make(map[string]any)
	}
	return config, nil
}

// File loads and saves one settings file.
type File struct {
	fs     FileSystem
	path   string
	format Format
}

// NewFile creates a settings file handle using the OS file system.
func NewFile(path string) (*File, error) {
	return NewFileWithFS(DefaultFS(), path)
}

// NewFileWithFS creates a settings file handle with a custom file system.
func NewFileWithFS(fsys FileSystem, path string) (*File, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	return &File{fs: fsys, path: path, format: format}, nil
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Format returns the file format.
func (f *File) Format() Format {
	return f.format
}

// Load reads the file. A missing file yields nil, nil.
func (f *File) Load() (map[string]any, error) {
	data, err := f.fs.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading settings file %s: %w", f.path, err)
	}

	return Decode(f.format, f.path, data)
}

// SetKey writes one key to the file.
//
// path is the key split into the segments it occupies in the file: a single
// segment for a flat dotted key, several for a nested entry. data is the full
// layer content after the change, used by formats that are re-encoded whole.
func (f *File) SetKey(path []string, value any, data map[string]any) error {
	previous, err := f.fs.ReadFile(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading settings file %s: %w", f.path, err)
	}

	var out []byte
	switch f.format {
	case FormatJSON:
		out, err = setJSONKey(previous, path, value)
	case FormatTOML:
		out, err = encodeTOML(data)
	case FormatYAML:
		out, err = encodeYAML(data)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.format)
	}
	if err != nil {
		return fmt.Errorf("encoding settings file %s: %w", f.path, err)
	}

	if err := f.fs.WriteFile(f.path, out); err != nil {
		return fmt.Errorf("writing settings file %s: %w", f.path, err)
	}
	return nil
}

// Locate returns the first existing settings file named base (without
// extension) in dir, or dir/base.json when none exists.
func Locate(fsys FileSystem, dir, base string) string {
	for _, ext := range Extensions {
		candidate := filepath.Join(dir, base+ext)
		if _, err := fsys.Stat(candidate); err == nil {
			return candidate
		}
	}
	return filepath.Join(dir, base+".json")
}
