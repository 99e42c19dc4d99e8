// Package digest computes content digests for scanned files.
//
// Algorithms are selected by identifier, matching the names used in
// configuration files and reports (e.g. "SHA-256"). Identifiers are
// matched case-insensitively.
package digest

import (
	"crypto/md5"  //nolint:gosec // offered for compatibility with existing hash inventories
	"crypto/sha1" //nolint:gosec // offered for compatibility with existing hash inventories
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Supported algorithm identifiers.
const (
	SHA256     = "SHA-256"
	SHA512     = "SHA-512"
	SHA1       = "SHA-1"
	MD5        = "MD5"
	SHA3256    = "SHA3-256"
	BLAKE2b256 = "BLAKE2b-256"
)

// DefaultAlgorithm is used by the directory scanner when none is configured.
const DefaultAlgorithm = SHA256

// bufferSize is the read size used while hashing.
const bufferSize = 8 * 1024

// ErrUnsupportedAlgorithm is returned for an unknown algorithm identifier.
var ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm")

var constructors = map[string]func() (hash.Hash, error){
	strings.ToUpper(SHA256):  plain(sha256.New),
	strings.ToUpper(SHA512):  plain(sha512.New),
	strings.ToUpper(SHA1):    plain(sha1.New),
	strings.ToUpper(MD5):     plain(md5.New),
	strings.ToUpper(SHA3256): plain(sha3.New256),
	strings.ToUpper(BLAKE2b256): func() (hash.Hash, error) {
		return blake2b.New256(nil)
	},
}

var canonical = map[string]string{
	strings.ToUpper(SHA256):     SHA256,
	strings.ToUpper(SHA512):     SHA512,
	strings.ToUpper(SHA1):       SHA1,
	strings.ToUpper(MD5):        MD5,
	strings.ToUpper(SHA3256):    SHA3256,
	strings.ToUpper(BLAKE2b256): BLAKE2b256,
}

func plain(fn func() hash.Hash) func() (hash.Hash, error) {
	return func() (hash.Hash, error) { return fn(), nil }
}

// New returns a fresh hash for algorithm.
func New(algorithm string) (hash.Hash, error) {
	ctor, ok := constructors[strings.ToUpper(strings.TrimSpace(algorithm))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	return ctor()
}

// Canonical returns the canonical spelling of algorithm, or an error
// wrapping ErrUnsupportedAlgorithm.
func Canonical(algorithm string) (string, error) {
	name, ok := canonical[strings.ToUpper(strings.TrimSpace(algorithm))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	return name, nil
}

// Supported returns the supported identifiers in sorted order.
func Supported() []string {
	names := make([]string, 0, len(canonical))
	for _, name := range canonical {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sum reads r to exhaustion and returns its lowercase hex digest.
func Sum(r io.Reader, algorithm string) (string, error) {
	h, err := New(algorithm)
	if err != nil {
		return "", err
	}
	buf := make([]byte, bufferSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File opens path on fs, digests it and closes it again.
func File(fs billy.Basic, path, algorithm string) (string, error) {
	if _, err := New(algorithm); err != nil {
		return "", err
	}

	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Sum(f, algorithm)
}
