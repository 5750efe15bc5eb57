package backup

import (
	"sync"
	"time"
)

// Statistics are the counters accumulated across a job run. The BackupJob
// owns one Statistics per source (and a combined total); the Executor
// updates it through the Accumulator interface so that tests can inspect
// results directly without touching a process-wide singleton.
type Statistics struct {
	mu sync.Mutex

	BytesCopied     int64
	BytesHardlinked int64
	FilesCopied     int64
	FilesHardlinked int64
	FilesDeleted    int64
	DirsCreated     int64
	ScanErrors      int64
	BackupErrors    int64
	StartTime       time.Time
	EndTime         time.Time
}

// Accumulator is the narrow interface the Executor writes through, so
// callers can substitute a recording fake in tests.
type Accumulator interface {
	AddBytesCopied(n int64)
	AddBytesHardlinked(n int64)
	IncFilesCopied()
	IncFilesHardlinked()
	IncFilesDeleted()
	IncDirsCreated()
	IncScanErrors()
	IncBackupErrors()
}

func (s *Statistics) AddBytesCopied(n int64)     { s.mu.Lock(); s.BytesCopied += n; s.mu.Unlock() }
func (s *Statistics) AddBytesHardlinked(n int64) { s.mu.Lock(); s.BytesHardlinked += n; s.mu.Unlock() }
func (s *Statistics) IncFilesCopied()            { s.mu.Lock(); s.FilesCopied++; s.mu.Unlock() }
func (s *Statistics) IncFilesHardlinked()        { s.mu.Lock(); s.FilesHardlinked++; s.mu.Unlock() }
func (s *Statistics) IncFilesDeleted()           { s.mu.Lock(); s.FilesDeleted++; s.mu.Unlock() }
func (s *Statistics) IncDirsCreated()            { s.mu.Lock(); s.DirsCreated++; s.mu.Unlock() }
func (s *Statistics) IncScanErrors()             { s.mu.Lock(); s.ScanErrors++; s.mu.Unlock() }
func (s *Statistics) IncBackupErrors()           { s.mu.Lock(); s.BackupErrors++; s.mu.Unlock() }

// Snapshot returns a copy safe to read without holding the lock further.
func (s *Statistics) Snapshot() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s
	cp.mu = sync.Mutex{}
	return cp
}

// Merge folds other's counters into s. Used by the BackupJob to combine
// per-source statistics into a job total.
func (s *Statistics) Merge(other *Statistics) {
	snap := other.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BytesCopied += snap.BytesCopied
	s.BytesHardlinked += snap.BytesHardlinked
	s.FilesCopied += snap.FilesCopied
	s.FilesHardlinked += snap.FilesHardlinked
	s.FilesDeleted += snap.FilesDeleted
	s.DirsCreated += snap.DirsCreated
	s.ScanErrors += snap.ScanErrors
	s.BackupErrors += snap.BackupErrors
}
