package journey

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format is a journey document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned when a document format cannot be determined.
var ErrUnknownFormat = errors.New("journey: unknown document format")

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Load reads a journey document from path.
func Load(path string) (*Journey, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journey: %w", err)
	}
	defer func() { _ = file.Close() }()

	j, err := Decode(file, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return j, nil
}

// Decode parses a journey document in the given format.
func Decode(r io.Reader, format Format) (*Journey, error) {
	var j Journey
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&j); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&j); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &j, nil
}

// Encode writes j in the given format.
func Encode(w io.Writer, j *Journey, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(j)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(j); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Save writes j to path atomically, in the format implied by the extension.
func Save(path string, j *Journey) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".journey-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := Encode(tmp, j, format); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode journey: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename journey: %w", err)
	}
	return nil
}
