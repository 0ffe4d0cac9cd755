package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"cognipath_backend/internal/config"
	"cognipath_backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	UploadStatusUploading = "uploading"
	UploadStatusCompleted = "completed"
	UploadStatusError     = "error"
)

// UploadedFile is one tracked attachment. Purely transient client-session
// state: it exists to feed a single generation request and is never
// persisted to the document store.
type UploadedFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	URL         string `json:"url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Rejection reports a file that never entered the tracked set.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// IncomingFile is what the controller hands over after reading a multipart
// part.
type IncomingFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type uploadEntry struct {
	file UploadedFile
	data []byte
}

// UploadManager tracks a set of in-flight attachments with per-file
// progress. Add returns immediately; transfers run in goroutines and
// report progress through the shared table. Updates addressed to a removed
// id are dropped.
type UploadManager struct {
	mu      sync.Mutex
	entries map[string]*uploadEntry
	order   []string

	storage StorageProvider
	cfg     config.UploadConfig
	log     *zap.Logger
}

func NewUploadManager(storage StorageProvider, cfg config.UploadConfig, log *zap.Logger) *UploadManager {
	return &UploadManager{
		entries: make(map[string]*uploadEntry),
		storage: storage,
		cfg:     cfg,
		log:     log,
	}
}

// Add filters, registers and starts transferring the given files. The
// returned snapshot reflects the accepted entries at progress 0; rejected
// files are reported separately and never tracked.
func (m *UploadManager) Add(ctx context.Context, files []IncomingFile) ([]UploadedFile, []Rejection) {
	var accepted []UploadedFile
	var rejected []Rejection

	maxSize := m.cfg.MaxSizeMB * 1024 * 1024

	m.mu.Lock()
	for _, f := range files {
		if !util.HasAllowedExt(f.Name, m.cfg.AllowedExts) {
			rejected = append(rejected, Rejection{Name: f.Name, Reason: "file type not allowed"})
			continue
		}
		if int64(len(f.Data)) > maxSize {
			rejected = append(rejected, Rejection{Name: f.Name, Reason: fmt.Sprintf("file exceeds %d MB", m.cfg.MaxSizeMB)})
			continue
		}
		if len(m.entries) >= m.cfg.MaxFiles {
			rejected = append(rejected, Rejection{Name: f.Name, Reason: "too many files"})
			continue
		}

		entry := &uploadEntry{
			file: UploadedFile{
				ID:          uuid.New().String(),
				Name:        f.Name,
				Size:        int64(len(f.Data)),
				ContentType: f.ContentType,
				Status:      UploadStatusUploading,
				Progress:    0,
			},
			data: f.Data,
		}
		m.entries[entry.file.ID] = entry
		m.order = append(m.order, entry.file.ID)
		accepted = append(accepted, entry.file)

		go m.transfer(ctx, entry.file.ID, f.Name, f.ContentType, f.Data)
	}
	m.mu.Unlock()

	return accepted, rejected
}

func (m *UploadManager) transfer(ctx context.Context, id, name, contentType string, data []byte) {
	reader := &progressReader{
		r:     bytes.NewReader(data),
		total: int64(len(data)),
		report: func(pct int) {
			m.setProgress(id, pct)
		},
	}

	objectName := id + "-" + name
	url, err := m.storage.Upload(ctx, objectName, reader, int64(len(data)), contentType)
	if err != nil {
		m.log.Warn("attachment upload failed", zap.String("file", name), zap.Error(err))
		m.fail(id, err)
		return
	}
	m.finish(id, url)
}

// setProgress commits a progress update unless the entry was removed or
// already terminal. Progress never moves backwards, and stays below 100
// until the transfer is confirmed done.
func (m *UploadManager) setProgress(id string, pct int) {
	if pct > 99 {
		pct = 99
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok || entry.file.Status != UploadStatusUploading {
		return
	}
	if pct > entry.file.Progress {
		entry.file.Progress = pct
	}
}

func (m *UploadManager) finish(id, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok || entry.file.Status != UploadStatusUploading {
		return
	}
	entry.file.Progress = 100
	entry.file.Status = UploadStatusCompleted
	entry.file.URL = url
}

func (m *UploadManager) fail(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok || entry.file.Status != UploadStatusUploading {
		return
	}
	entry.file.Status = UploadStatusError
	entry.file.Error = err.Error()
}

// Remove drops an entry regardless of status. A transfer still running for
// that id keeps going but its future updates are no-ops; the id never
// reappears.
func (m *UploadManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return
	}
	delete(m.entries, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Files snapshots the tracked set in insertion order.
func (m *UploadManager) Files() []UploadedFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]UploadedFile, 0, len(m.order))
	for _, id := range m.order {
		if entry, ok := m.entries[id]; ok {
			out = append(out, entry.file)
		}
	}
	return out
}

// Get returns a snapshot of one entry.
func (m *UploadManager) Get(id string) (UploadedFile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return UploadedFile{}, false
	}
	return entry.file, true
}

// Busy reports whether any entry is still transferring. Generation is
// gated on this.
func (m *UploadManager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.entries {
		if entry.file.Status == UploadStatusUploading {
			return true
		}
	}
	return false
}

// Attachments returns the completed entries as generation attachments.
func (m *UploadManager) Attachments() []Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Attachment
	for _, id := range m.order {
		entry, ok := m.entries[id]
		if !ok || entry.file.Status != UploadStatusCompleted {
			continue
		}
		out = append(out, Attachment{Name: entry.file.Name, Data: entry.data})
	}
	return out
}

// Clear empties the tracked set, typically after the generation request
// that consumed the attachments.
func (m *UploadManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*uploadEntry)
	m.order = nil
}

// progressReader reports how much of the payload has been consumed.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report func(pct int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.total > 0 {
			p.report(int(p.read * 100 / p.total))
		}
	}
	return n, err
}

// UploadService hands out one manager per user session.
type UploadService struct {
	mu       sync.Mutex
	managers map[uint]*UploadManager

	storage StorageProvider
	cfg     config.UploadConfig
	log     *zap.Logger
}

func NewUploadService(storage *StorageService, cfg config.UploadConfig, log *zap.Logger) *UploadService {
	return &UploadService{
		managers: make(map[uint]*UploadManager),
		storage:  storage,
		cfg:      cfg,
		log:      log,
	}
}

func (s *UploadService) ForUser(userID uint) *UploadManager {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.managers[userID]
	if !ok {
		m = NewUploadManager(s.storage, s.cfg, s.log)
		s.managers[userID] = m
	}
	return m
}
