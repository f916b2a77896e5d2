package reader

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strconv"
)

const hashWindow = 4096

// QuickHash fingerprints a file from its first 4 KiB, size and modification
// time. It is a cheap change detector, not a content digest.
func QuickHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", openErr(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", openErr(path, err)
	}
	h := sha256.New()
	if _, err := io.CopyN(h, f, hashWindow); err != nil && err != io.EOF {
		return "", openErr(path, err)
	}
	h.Write([]byte(strconv.FormatInt(info.Size(), 10)))
	h.Write([]byte(strconv.FormatInt(info.ModTime().UnixNano(), 10)))
	return hex.EncodeToString(h.Sum(nil)), nil
}
