package dirscan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/nao1215/clamscan/internal/clamd"
	"github.com/nao1215/clamscan/internal/digest"
	"github.com/nao1215/clamscan/internal/model"
	"github.com/nao1215/clamscan/internal/scanerr"
)

// FileScanner scans a single file by path. *clamd.Client implements it.
type FileScanner interface {
	ScanFile(ctx context.Context, path string) (model.ScanOutcome, error)
}

// Filesystem is the part of a billy filesystem the Scanner uses: listing,
// stat and opening files. osfs.Default and memfs satisfy it.
type Filesystem interface {
	billy.Basic
	billy.Dir
}

// Digester computes the hex digest of a file.
type Digester func(fs billy.Basic, path, algorithm string) (string, error)

// Scanner runs directory scans. A Scanner is not safe for concurrent Scan calls.
type Scanner struct {
	cfg       Config
	algorithm string

	fs     Filesystem
	client FileScanner
	digest Digester
	logger *slog.Logger

	// owned is the client created by New, closed by Close.
	owned *clamd.Client
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithFilesystem sets the filesystem the directory is listed, scanned and
// hashed on. The default is the host filesystem.
func WithFilesystem(fs Filesystem) Option {
	return func(s *Scanner) {
		s.fs = fs
	}
}

// WithClient supplies the file scanner. The Scanner does not close it.
func WithClient(client FileScanner) Option {
	return func(s *Scanner) {
		s.client = client
	}
}

// WithDigester replaces the digest function. The default is digest.File.
func WithDigester(d Digester) Option {
	return func(s *Scanner) {
		s.digest = d
	}
}

// New validates cfg and returns a Scanner. Unless WithClient is given, it
// creates a clamd client from cfg.Client that reads from the same filesystem.
func New(cfg Config, opts ...Option) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, scanerr.NewValidationError("invalid directory scan configuration", err)
	}
	algorithm, err := digest.Canonical(cfg.HashAlgorithm)
	if err != nil {
		return nil, scanerr.NewValidationError("invalid directory scan configuration", err)
	}

	s := &Scanner{
		cfg:       cfg,
		algorithm: algorithm,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.fs == nil {
		s.fs = osfs.Default
	}
	if s.digest == nil {
		s.digest = digest.File
	}
	if s.client == nil {
		client, err := clamd.NewClient(cfg.Client,
			clamd.WithLogger(s.logger),
			clamd.WithFilesystem(s.fs),
		)
		if err != nil {
			return nil, err
		}
		s.client = client
		s.owned = client
	}

	return s, nil
}

// Config returns the scanner's configuration.
func (s *Scanner) Config() Config {
	return s.cfg
}

// Scan scans every regular file directly inside the configured directory
// and returns one record per file in listing order.
//
// A missing directory, or a path that is not a directory, yields an empty
// slice and no error. Sub-directories, sockets, devices and symlinks whose
// target is not a regular file are skipped. The first failing file aborts
// the run: Scan then returns a nil slice and an orchestration error whose
// cause is the classified scan or digest error.
func (s *Scanner) Scan(ctx context.Context) ([]model.FileScanRecord, error) {
	dir := s.cfg.Directory
	start := time.Now()

	if !s.isDirectory(dir) {
		s.logger.Info("directory not found, nothing to scan", "directory", dir)
		return []model.FileScanRecord{}, nil
	}

	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return nil, scanerr.NewOrchestrationError(fmt.Sprintf("failed to list directory %s", dir), err)
	}

	s.logger.Info("starting directory scan",
		"directory", dir,
		"entries", len(entries),
		"deep", s.cfg.Deep,
		"algorithm", s.algorithm,
	)

	records := make([]model.FileScanRecord, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		filePath := filepath.Join(dir, name)

		if !s.isRegularFile(entry, filePath) {
			s.logger.Debug("skipping non-regular entry", "path", filePath, "mode", entry.Mode().String())
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, scanerr.NewOrchestrationError("directory scan cancelled", err)
		}

		record, err := s.scanFile(ctx, name, filePath)
		if err != nil {
			s.logger.Error("directory scan aborted",
				"directory", dir,
				"file", name,
				"completed", len(records),
				"kind", scanerr.KindOf(err).String(),
				"error", err,
			)
			return nil, err
		}
		records = append(records, record)

		s.logger.Info("file scanned",
			"file", name,
			"result", record.Label(),
			"hash", record.ContentHash,
		)
	}

	summary := model.Summarize(records)
	s.logger.Info("directory scan complete",
		"directory", dir,
		"files", summary.Total,
		"infected", summary.Infected,
		"elapsed", time.Since(start),
	)
	return records, nil
}

// scanFile scans then hashes one file.
func (s *Scanner) scanFile(ctx context.Context, name, filePath string) (model.FileScanRecord, error) {
	outcome, err := s.client.ScanFile(ctx, filePath)
	if err != nil {
		return model.FileScanRecord{}, scanerr.NewOrchestrationError(
			fmt.Sprintf("scan failed for %s", name), err)
	}

	hash, err := s.digest(s.fs, filePath, s.algorithm)
	if err != nil {
		return model.FileScanRecord{}, scanerr.NewOrchestrationError(
			fmt.Sprintf("digest failed for %s", name),
			scanerr.NewDigestError(fmt.Sprintf("failed to compute %s of %s", s.algorithm, name), err))
	}

	return model.NewFileScanRecord(outcome, name, s.algorithm, hash), nil
}

func (s *Scanner) isDirectory(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := s.fs.Stat(dir)
	return err == nil && info.IsDir()
}

// isRegularFile reports whether entry is a regular file, following symlinks.
func (s *Scanner) isRegularFile(entry os.FileInfo, filePath string) bool {
	if entry.Mode().IsRegular() {
		return true
	}
	if entry.Mode()&os.ModeSymlink == 0 {
		return false
	}
	target, err := s.fs.Stat(filePath)
	return err == nil && target.Mode().IsRegular()
}

// Close releases the client created by New. A client supplied with
// WithClient is left open.
func (s *Scanner) Close() error {
	if s.owned == nil {
		return nil
	}
	return s.owned.Close()
}
