package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"cognipath_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStorage struct {
	mu      sync.Mutex
	uploads []string
	err     error
	block   chan struct{}
}

func (f *fakeStorage) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	f.uploads = append(f.uploads, filename)
	f.mu.Unlock()
	return "files/" + filename, nil
}

func (f *fakeStorage) Delete(ctx context.Context, filename string) error { return nil }
func (f *fakeStorage) GetURL(filename string) string                     { return "files/" + filename }

func uploadTestConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxFiles:    2,
		MaxSizeMB:   1,
		AllowedExts: []string{".txt", ".md", ".pdf"},
	}
}

func TestUploadManagerFiltersAndTracks(t *testing.T) {
	storage := &fakeStorage{}
	m := NewUploadManager(storage, uploadTestConfig(), zap.NewNop())

	big := make([]byte, 2*1024*1024)
	accepted, rejected := m.Add(context.Background(), []IncomingFile{
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hello")},
		{Name: "malware.exe", ContentType: "application/octet-stream", Data: []byte("nope")},
		{Name: "huge.txt", ContentType: "text/plain", Data: big},
	})

	require.Len(t, accepted, 1)
	assert.Equal(t, "notes.txt", accepted[0].Name)
	assert.Equal(t, UploadStatusUploading, accepted[0].Status)
	assert.Equal(t, 0, accepted[0].Progress)

	require.Len(t, rejected, 2)
	assert.Equal(t, "malware.exe", rejected[0].Name)
	assert.Equal(t, "huge.txt", rejected[1].Name)

	require.Eventually(t, func() bool {
		f, ok := m.Get(accepted[0].ID)
		return ok && f.Status == UploadStatusCompleted
	}, time.Second, 5*time.Millisecond)

	f, ok := m.Get(accepted[0].ID)
	require.True(t, ok)
	assert.Equal(t, 100, f.Progress)
	assert.Equal(t, "files/"+f.ID+"-notes.txt", f.URL)
}

func TestUploadManagerEnforcesMaxFiles(t *testing.T) {
	m := NewUploadManager(&fakeStorage{}, uploadTestConfig(), zap.NewNop())

	accepted, rejected := m.Add(context.Background(), []IncomingFile{
		{Name: "a.txt", Data: []byte("a")},
		{Name: "b.txt", Data: []byte("b")},
		{Name: "c.txt", Data: []byte("c")},
	})

	assert.Len(t, accepted, 2)
	require.Len(t, rejected, 1)
	assert.Equal(t, "c.txt", rejected[0].Name)
	assert.Equal(t, "too many files", rejected[0].Reason)
}

func TestUploadManagerProgressIsMonotone(t *testing.T) {
	storage := &fakeStorage{}
	m := NewUploadManager(storage, uploadTestConfig(), zap.NewNop())

	accepted, _ := m.Add(context.Background(), []IncomingFile{
		{Name: "a.txt", Data: make([]byte, 64*1024)},
	})
	require.Len(t, accepted, 1)
	id := accepted[0].ID

	last := 0
	regressed := false
	require.Eventually(t, func() bool {
		f, ok := m.Get(id)
		if !ok {
			return false
		}
		if f.Progress < last {
			regressed = true
		}
		last = f.Progress
		return f.Status == UploadStatusCompleted
	}, time.Second, time.Millisecond)

	assert.False(t, regressed, "progress moved backwards")
	f, _ := m.Get(id)
	assert.Equal(t, 100, f.Progress)
}

func TestUploadManagerRemoveDiscardsLaterUpdates(t *testing.T) {
	storage := &fakeStorage{block: make(chan struct{})}
	m := NewUploadManager(storage, uploadTestConfig(), zap.NewNop())

	accepted, _ := m.Add(context.Background(), []IncomingFile{
		{Name: "a.txt", Data: []byte("abc")},
	})
	require.Len(t, accepted, 1)
	id := accepted[0].ID

	m.Remove(id)
	close(storage.block)

	_, ok := m.Get(id)
	assert.False(t, ok)
	assert.Never(t, func() bool {
		_, ok := m.Get(id)
		return ok
	}, 100*time.Millisecond, 10*time.Millisecond)
	assert.Empty(t, m.Files())
}

func TestUploadManagerReportsFailures(t *testing.T) {
	storage := &fakeStorage{err: errors.New("bucket unavailable")}
	m := NewUploadManager(storage, uploadTestConfig(), zap.NewNop())

	accepted, _ := m.Add(context.Background(), []IncomingFile{
		{Name: "a.txt", Data: []byte("abc")},
	})
	require.Len(t, accepted, 1)

	require.Eventually(t, func() bool {
		f, ok := m.Get(accepted[0].ID)
		return ok && f.Status == UploadStatusError
	}, time.Second, 5*time.Millisecond)

	f, _ := m.Get(accepted[0].ID)
	assert.Contains(t, f.Error, "bucket unavailable")
	assert.False(t, m.Busy())
	assert.Empty(t, m.Attachments())
}

func TestUploadManagerBusyAndAttachments(t *testing.T) {
	storage := &fakeStorage{block: make(chan struct{})}
	m := NewUploadManager(storage, uploadTestConfig(), zap.NewNop())

	accepted, _ := m.Add(context.Background(), []IncomingFile{
		{Name: "a.txt", Data: []byte("abc")},
	})
	require.Len(t, accepted, 1)
	assert.True(t, m.Busy())
	assert.Empty(t, m.Attachments())

	close(storage.block)
	require.Eventually(t, func() bool { return !m.Busy() }, time.Second, 5*time.Millisecond)

	atts := m.Attachments()
	require.Len(t, atts, 1)
	assert.Equal(t, "a.txt", atts[0].Name)
	assert.Equal(t, []byte("abc"), atts[0].Data)

	m.Clear()
	assert.Empty(t, m.Files())
}
