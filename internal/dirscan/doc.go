// Package dirscan scans every regular file directly inside a directory
// with a clamd client and attaches a content digest to each verdict.
//
// A run is sequential and fail-fast: files are scanned one at a time in
// listing order, and the first file whose scan or digest fails aborts the
// run with an orchestration error and no partial results. A directory that
// does not exist yields an empty result.
//
//	s, err := dirscan.New(dirscan.DefaultConfig("/srv/uploads"))
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	records, err := s.Scan(ctx)
package dirscan
