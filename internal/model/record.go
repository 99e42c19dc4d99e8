package model

// FileScanRecord is a ScanOutcome bound to the file it was produced for.
type FileScanRecord struct {
	ScanOutcome

	// FileName is the base name of the scanned file.
	FileName string `json:"file_name"`

	// HashAlgorithm is the digest identifier used for ContentHash (e.g. "SHA-256").
	// It is empty for single-stream scans, which carry no digest.
	HashAlgorithm string `json:"hash_algorithm,omitempty"`

	// ContentHash is the lowercase hex digest of the file content.
	ContentHash string `json:"content_hash,omitempty"`
}

// NewFileScanRecord combines a completed outcome with the file identity.
func NewFileScanRecord(outcome ScanOutcome, fileName, algorithm, contentHash string) FileScanRecord {
	return FileScanRecord{
		ScanOutcome:   outcome,
		FileName:      fileName,
		HashAlgorithm: algorithm,
		ContentHash:   contentHash,
	}
}
