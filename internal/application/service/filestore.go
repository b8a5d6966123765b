package service

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"lawfort/internal/application/model"
	"lawfort/pkg/apperror"
	"lawfort/pkg/logger"
)

// FileStore keeps uploaded PDFs on local disk and serves them under
// <PublicBaseURL><Route>/. Resumes and research paper submissions each get
// their own store.
type FileStore struct {
	Dir           string
	PublicBaseURL string
	Route         string
	Prefix        string
	MaxBytes      int64
	now           func() time.Time
}

func NewFileStore(dir, publicBaseURL, route, prefix string, maxBytes int64) *FileStore {
	return &FileStore{
		Dir:           dir,
		PublicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		Route:         "/" + strings.Trim(route, "/"),
		Prefix:        prefix,
		MaxBytes:      maxBytes,
		now:           time.Now,
	}
}

func NewResumeStore(dir, publicBaseURL string, maxBytes int64) *FileStore {
	return NewFileStore(dir, publicBaseURL, "/uploads/resumes", "", maxBytes)
}

func NewPaperStore(dir, publicBaseURL string, maxBytes int64) *FileStore {
	return NewFileStore(dir, publicBaseURL, "/uploads/research_papers", "submission_", maxBytes)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitize keeps the base name of an upload and replaces anything outside
// [A-Za-z0-9._-].
func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		return "document.pdf"
	}
	return name
}

func (s *FileStore) tooLarge() error {
	return apperror.Invalid(fmt.Sprintf("File too large. Maximum size is %dMB", s.MaxBytes>>20))
}

// Save writes a PDF for userID and returns where it can be fetched. Files
// larger than MaxBytes are rejected and nothing is left on disk.
func (s *FileStore) Save(userID int64, filename string, r io.Reader) (model.Upload, error) {
	if filename == "" {
		return model.Upload{}, apperror.Invalid("No file selected")
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return model.Upload{}, apperror.Invalid("Only PDF files are allowed")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return model.Upload{}, apperror.Invalid("No file provided")
	}
	head = head[:n]
	if http.DetectContentType(head) != "application/pdf" {
		return model.Upload{}, apperror.Invalid("Only PDF files are allowed")
	}
	if int64(n) > s.MaxBytes {
		return model.Upload{}, s.tooLarge()
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		logger.Sugar.Errorf("Failed to create upload dir %s: %v", s.Dir, err)
		return model.Upload{}, err
	}
	stored := fmt.Sprintf("%s%d_%s_%s", s.Prefix, userID, s.now().Format("20060102_150405"), sanitize(filename))
	path := filepath.Join(s.Dir, stored)
	f, err := os.Create(path)
	if err != nil {
		logger.Sugar.Errorf("Failed to create upload %s: %v", stored, err)
		return model.Upload{}, err
	}
	written, err := io.Copy(f, io.LimitReader(io.MultiReader(bytes.NewReader(head), r), s.MaxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to write upload %s: %v", stored, err)
		os.Remove(path)
		return model.Upload{}, err
	}
	if written > s.MaxBytes {
		os.Remove(path)
		return model.Upload{}, s.tooLarge()
	}

	logger.Sugar.Infof("User %d uploaded %s (%d bytes)", userID, stored, written)
	return model.Upload{
		FileURL:  s.PublicBaseURL + s.Route + "/" + stored,
		Filename: stored,
		Size:     written,
	}, nil
}
