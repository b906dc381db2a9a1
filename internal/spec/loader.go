package spec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrorCode categorizes per-file failures for clearer handling and messaging.
type ErrorCode string

const (
	InvalidFileType   ErrorCode = "InvalidFileType"
	FileTooLarge      ErrorCode = "FileTooLarge"
	UnsupportedFormat ErrorCode = "UnsupportedFormat"
	ParseError        ErrorCode = "ParseError"
	MalformedDocument ErrorCode = "MalformedDocument"
	ReadError         ErrorCode = "ReadError"
)

// SpecError is a structured per-file error. Location carries the file name.
type SpecError struct {
	Code     ErrorCode
	Message  string
	Location string
	Cause    error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// Is matches any SpecError carrying the same code, so callers can write
// errors.Is(err, spec.ErrFileTooLarge).
func (e *SpecError) Is(target error) bool {
	t, ok := target.(*SpecError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Location == "" || t.Location == e.Location)
}

var (
	ErrInvalidFileType   = &SpecError{Code: InvalidFileType, Message: "invalid file type"}
	ErrFileTooLarge      = &SpecError{Code: FileTooLarge, Message: "file too large"}
	ErrUnsupportedFormat = &SpecError{Code: UnsupportedFormat, Message: "unsupported format"}
	ErrParse             = &SpecError{Code: ParseError, Message: "parse error"}
	ErrMalformedDocument = &SpecError{Code: MalformedDocument, Message: "malformed document"}
	ErrRead              = &SpecError{Code: ReadError, Message: "read error"}
)

// DefaultMaxFileSize is the per-file upload cap (10 MiB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// AllowedExtensions lists the accepted file extensions, compared case-insensitively.
var AllowedExtensions = []string{".json", ".yaml", ".yml"}

// Settings configures loader behavior.
type Settings struct {
	// MaxFileSize bounds the size of a single file; larger files are rejected before reading.
	MaxFileSize int64
	// Fs is the filesystem files are read from. Defaults to the OS filesystem.
	Fs afero.Fs
	// NewID generates document identifiers.
	NewID func() string
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		MaxFileSize: DefaultMaxFileSize,
		Fs:          afero.NewOsFs(),
		NewID:       uuid.NewString,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithMaxFileSize(n int64) Option         { return func(s *Settings) { s.MaxFileSize = n } }
func WithFs(fs afero.Fs) Option              { return func(s *Settings) { s.Fs = fs } }
func WithIDGenerator(f func() string) Option { return func(s *Settings) { s.NewID = f } }

// Loader admits, reads, parses and normalizes OpenAPI files.
type Loader struct {
	settings Settings
}

// NewLoader returns a Loader configured with DefaultSettings and opts.
func NewLoader(opts ...Option) *Loader {
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.MaxFileSize <= 0 {
		settings.MaxFileSize = DefaultMaxFileSize
	}
	if settings.Fs == nil {
		settings.Fs = afero.NewOsFs()
	}
	if settings.NewID == nil {
		settings.NewID = uuid.NewString
	}
	return &Loader{settings: settings}
}

// Settings returns the effective loader settings.
func (l *Loader) Settings() Settings { return l.settings }

// Admit runs the pre-read checks: extension allow-list and size cap.
func (l *Loader) Admit(name string, size int64) error {
	if err := admitName(name); err != nil {
		return err
	}
	if size > l.settings.MaxFileSize {
		return &SpecError{
			Code:     FileTooLarge,
			Message:  fmt.Sprintf("%s is too large. Maximum file size is %s.", name, formatSize(l.settings.MaxFileSize)),
			Location: name,
		}
	}
	return nil
}

// admitName is the extension check; it needs only the file name.
func admitName(name string) error {
	if hasAllowedExtension(name) {
		return nil
	}
	return &SpecError{
		Code:     InvalidFileType,
		Message:  fmt.Sprintf("%s is not a valid OpenAPI file. Please upload JSON or YAML files.", name),
		Location: name,
	}
}

// Load admits the file at path, reads it and returns the normalized document.
// Every failure is a *SpecError naming the file.
func (l *Loader) Load(ctx context.Context, path string) (*Document, error) {
	name := filepath.Base(path)
	if strings.TrimSpace(path) == "" {
		return nil, &SpecError{Code: ReadError, Message: "spec: input is empty"}
	}
	if err := ctx.Err(); err != nil {
		return nil, &SpecError{Code: ReadError, Message: fmt.Sprintf("read %s: %v", name, err), Location: name, Cause: err}
	}
	if err := admitName(name); err != nil {
		return nil, err
	}

	st, err := l.settings.Fs.Stat(path)
	if err != nil {
		return nil, &SpecError{Code: ReadError, Message: fmt.Sprintf("read %s: %v", name, err), Location: name, Cause: err}
	}
	if st.IsDir() {
		return nil, &SpecError{Code: ReadError, Message: fmt.Sprintf("read %s: is a directory", name), Location: name}
	}
	if err := l.Admit(name, st.Size()); err != nil {
		return nil, err
	}

	f, err := l.settings.Fs.Open(path)
	if err != nil {
		return nil, &SpecError{Code: ReadError, Message: fmt.Sprintf("read %s: %v", name, err), Location: name, Cause: err}
	}
	defer f.Close()
	// The file may have grown since Stat; never read past the cap.
	data, err := io.ReadAll(io.LimitReader(f, l.settings.MaxFileSize+1))
	if err != nil {
		return nil, &SpecError{Code: ReadError, Message: fmt.Sprintf("read %s: %v", name, err), Location: name, Cause: err}
	}
	if int64(len(data)) > l.settings.MaxFileSize {
		return nil, l.Admit(name, int64(len(data)))
	}
	return l.Parse(name, data)
}

// Parse decodes file contents and normalizes them. YAML files are rejected.
func (l *Loader) Parse(name string, data []byte) (*Document, error) {
	if isYAML(name) {
		return nil, &SpecError{
			Code:     UnsupportedFormat,
			Message:  fmt.Sprintf("YAML parsing is not supported for %s. Please use JSON files.", name),
			Location: name,
		}
	}

	raw, err := decodeJSON(data)
	if err != nil {
		return nil, &SpecError{
			Code:     ParseError,
			Message:  fmt.Sprintf("Failed to parse %s: %v", name, err),
			Location: name,
			Cause:    err,
		}
	}

	return Normalize(raw, name, WithID(l.settings.NewID), WithSize(int64(len(data))))
}

// decodeJSON parses exactly one JSON value, keeping numbers as json.Number.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("unexpected end of JSON input")
		}
		return nil, err
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unexpected data after top-level value at offset %d", dec.InputOffset())
	}
	return raw, nil
}

func hasAllowedExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range AllowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func isYAML(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

func formatSize(n int64) string {
	const mib = 1024 * 1024
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
