// Package uploads stores task attachments on the local filesystem and
// enforces the attachment policy (allowed extensions, size cap, safe names).
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const MaxFileSize = 5 * 1024 * 1024 // 5 MiB

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"pdf":  true,
}

var (
	ErrExtensionNotAllowed = errors.New("file type not allowed, only png, jpg, jpeg, gif and pdf are accepted")
	ErrFileTooLarge        = fmt.Errorf("file is too large, limit is %d MB", MaxFileSize/(1024*1024))
	ErrInvalidFilename     = errors.New("file name is empty after sanitizing")
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Attachment is an uploaded file before it is accepted by the store.
// Size is the declared length; a negative value means unknown.
type Attachment struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// FromMultipart opens a multipart upload. The returned closer must be
// closed by the caller.
func FromMultipart(fh *multipart.FileHeader) (*Attachment, io.Closer, error) {
	f, err := fh.Open()

	if err != nil {
		return nil, nil, fmt.Errorf("open upload: %w", err)
	}

	return &Attachment{Filename: fh.Filename, Size: fh.Size, Content: f}, f, nil
}

type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Path returns where a stored attachment lives on disk.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// AllowedFile reports whether the extension after the last dot is accepted.
func AllowedFile(filename string) bool {
	i := strings.LastIndex(filename, ".")

	if i < 0 {
		return false
	}

	return allowedExtensions[strings.ToLower(filename[i+1:])]
}

// Validate applies the extension and declared-size checks.
func Validate(a *Attachment) error {
	if !AllowedFile(a.Filename) {
		return ErrExtensionNotAllowed
	}

	if a.Size > MaxFileSize {
		return ErrFileTooLarge
	}

	return nil
}

// Save validates the attachment and writes it under its sanitized name,
// replacing any file with the same name. It returns the stored name.
func (s *Store) Save(a *Attachment) (string, error) {
	if err := Validate(a); err != nil {
		return "", err
	}

	name := SecureFilename(a.Filename)

	if name == "" {
		return "", ErrInvalidFilename
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")

	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	// The declared size can lie, so the cap is enforced on the bytes copied.
	n, err := io.Copy(tmp, io.LimitReader(a.Content, MaxFileSize+1))
	closeErr := tmp.Close()

	if err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}

	if n > MaxFileSize {
		os.Remove(tmp.Name())
		return "", ErrFileTooLarge
	}

	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store upload: %w", err)
	}

	return name, nil
}

// Remove deletes a stored attachment. A missing file is not an error.
func (s *Store) Remove(name string) error {
	if name == "" {
		return nil
	}

	if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

// SecureFilename reduces a client-supplied name to ASCII letters, digits,
// '_', '.' and '-', with path separators and whitespace folded to '_'.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)

	var b strings.Builder

	for _, r := range name {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}

	name = strings.NewReplacer("/", " ", "\\", " ").Replace(b.String())
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")

	return strings.Trim(name, "._")
}
