package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"autosave/pkg/logger"
	"autosave/store"
)

const filePerm = 0o644

var ErrInvalidJSON = errors.New("invalid JSON")

// DocumentRepository persists the document and the year label as plain files.
type DocumentRepository struct {
	DataFile    string
	YearFile    string
	DefaultFile string
	locks       *store.Locker
}

func NewDocumentRepository(dataFile, yearFile, defaultFile string) *DocumentRepository {
	return &DocumentRepository{
		DataFile:    dataFile,
		YearFile:    yearFile,
		DefaultFile: defaultFile,
		locks:       store.NewLocker(),
	}
}

// GetDocument returns the stored document in compact form.
func (r *DocumentRepository) GetDocument() (json.RawMessage, error) {
	unlock := r.locks.Lock(r.DataFile)
	raw, err := os.ReadFile(r.DataFile)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc, err := Compact(raw)
	if err != nil {
		logger.Sugar.Errorf("Stored document %s is not valid JSON: %v", r.DataFile, err)
		return nil, err
	}
	return doc, nil
}

// SaveDocument validates raw and replaces the document with its indented form.
// It returns the compact form of what was written.
func (r *DocumentRepository) SaveDocument(raw []byte) (json.RawMessage, error) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, bytes.TrimSpace(raw), "", "  "); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	pretty.WriteByte('\n')

	unlock := r.locks.Lock(r.DataFile)
	defer unlock()
	if err := store.WriteFileAtomic(r.DataFile, pretty.Bytes(), filePerm); err != nil {
		logger.Sugar.Errorf("Failed to write document %s: %v", r.DataFile, err)
		return nil, err
	}
	return Compact(pretty.Bytes())
}

// GetYear returns the stored year label with surrounding whitespace removed.
func (r *DocumentRepository) GetYear() (string, error) {
	unlock := r.locks.Lock(r.YearFile)
	defer unlock()
	raw, err := os.ReadFile(r.YearFile)
	if err != nil {
		return "", fmt.Errorf("read year: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (r *DocumentRepository) SaveYear(year string) error {
	unlock := r.locks.Lock(r.YearFile)
	defer unlock()
	if err := store.WriteFileAtomic(r.YearFile, []byte(year), filePerm); err != nil {
		logger.Sugar.Errorf("Failed to write year %s: %v", r.YearFile, err)
		return err
	}
	return nil
}

// GetDefault returns the default document used for seeding and restore.
func (r *DocumentRepository) GetDefault() ([]byte, error) {
	if r.DefaultFile == "" {
		return nil, os.ErrNotExist
	}
	raw, err := os.ReadFile(r.DefaultFile)
	if err != nil {
		return nil, fmt.Errorf("read default document: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("default document %s: %w", r.DefaultFile, ErrInvalidJSON)
	}
	return raw, nil
}

// Seed writes the default document when no document exists yet.
// It reports whether a document was written.
func (r *DocumentRepository) Seed() (bool, error) {
	if _, err := os.Stat(r.DataFile); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	def, err := r.GetDefault()
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if _, err := r.SaveDocument(def); err != nil {
		return false, err
	}
	return true, nil
}

// Compact validates raw and strips insignificant whitespace.
func Compact(raw []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return json.RawMessage(buf.Bytes()), nil
}
