package service

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"autosave/internal/document/model"
	"autosave/internal/document/repository"
	"autosave/pkg/logger"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrReadOnly     = errors.New("read-only mode")
	ErrNoDefault    = errors.New("default document unavailable")

	ErrYearBody      = errors.New("request body must be a JSON object")
	ErrYearNotString = errors.New("year must be a string")
)

// Publisher receives every document written through the service.
type Publisher interface {
	Publish(doc json.RawMessage)
}

// DocumentService guards writes with the edit token and forwards saved
// documents to the Publisher. writeMu orders every document write with its
// publish, so the last document published is the one left on disk.
type DocumentService struct {
	Repo      *repository.DocumentRepository
	Hub       Publisher
	editToken string
	readOnly  bool
	writeMu   sync.Mutex
}

func NewDocumentService(repo *repository.DocumentRepository, hub Publisher, editToken string, readOnly bool) *DocumentService {
	return &DocumentService{Repo: repo, Hub: hub, editToken: editToken, readOnly: readOnly}
}

// Authorized compares the candidate token against the edit token.
func (s *DocumentService) Authorized(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.editToken)) == 1
}

func (s *DocumentService) GetDocument() (json.RawMessage, error) {
	return s.Repo.GetDocument()
}

// GetYear never fails; an unreadable year falls back to model.DefaultYear.
func (s *DocumentService) GetYear() string {
	return withFallback(s.Repo.GetYear, model.DefaultYear)
}

func (s *DocumentService) SetYear(token string, body []byte) error {
	if err := s.checkWrite(token); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return err
	}
	if fields == nil {
		return ErrYearBody
	}
	year := model.DefaultYear
	if raw, ok := fields["year"]; ok {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return ErrYearNotString
		}
		if err := json.Unmarshal(raw, &year); err != nil {
			return err
		}
	}
	return s.Repo.SaveYear(year)
}

func (s *DocumentService) SaveDocument(token string, body []byte) error {
	if err := s.checkWrite(token); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	doc, err := s.Repo.SaveDocument(body)
	if err != nil {
		return err
	}
	logger.Sugar.Infow("Document autosaved", "file", s.Repo.DataFile, "bytes", len(body))
	s.publish(doc)
	return nil
}

// RestoreDocument replaces the document with the default document.
func (s *DocumentService) RestoreDocument(token string) error {
	if err := s.checkWrite(token); err != nil {
		return err
	}

	def, err := s.Repo.GetDefault()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoDefault, err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	doc, err := s.Repo.SaveDocument(def)
	if err != nil {
		return err
	}
	logger.Sugar.Infow("Document restored from default", "default", s.Repo.DefaultFile)
	s.publish(doc)
	return nil
}

// Refresh re-reads the document and publishes it. It is called when the
// data file changes outside the service.
func (s *DocumentService) Refresh() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	doc, err := s.Repo.GetDocument()
	if err != nil {
		return err
	}
	s.publish(doc)
	return nil
}

func (s *DocumentService) checkWrite(token string) error {
	if !s.Authorized(token) {
		return ErrUnauthorized
	}
	if s.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (s *DocumentService) publish(doc json.RawMessage) {
	if s.Hub != nil {
		s.Hub.Publish(doc)
	}
}

// withFallback returns def whenever read fails.
func withFallback[T any](read func() (T, error), def T) T {
	v, err := read()
	if err != nil {
		logger.Sugar.Debugf("Using fallback value: %v", err)
		return def
	}
	return v
}
