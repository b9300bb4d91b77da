package assign

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Digest is the SHA-256 fingerprint of a designated artifact, or the
// Unavailable marker when the file is absent or unreadable.
type Digest struct {
	sum       [sha256.Size]byte
	available bool
}

// Unavailable marks a file that could not be fingerprinted.
var Unavailable = Digest{}

// Available reports whether the digest carries a real sum.
func (d Digest) Available() bool {
	return d.available
}

func (d Digest) String() string {
	if !d.available {
		return "unavailable"
	}
	return hex.EncodeToString(d.sum[:])
}

// Fingerprint hashes the file at path. An empty path or any read error
// yields Unavailable.
func Fingerprint(path string) Digest {
	if path == "" {
		return Unavailable
	}
	f, err := os.Open(path)
	if err != nil {
		return Unavailable
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Unavailable
	}
	d := Digest{available: true}
	copy(d.sum[:], h.Sum(nil))
	return d
}

// Identical reports whether every digest is available and all sums are
// equal. An empty slice is not identical. Unavailable digests count as a
// distinct value, so any of them makes the set non-identical.
func Identical(digests []Digest) bool {
	if len(digests) == 0 {
		return false
	}
	for _, d := range digests {
		if !d.available || d.sum != digests[0].sum {
			return false
		}
	}
	return true
}
