package util

import (
	"errors"
	"io"
	"net/http"
	"strings"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	MimeImage = "image/"
	MimePDF   = "application/pdf"
)

// ValidateMimeType sniffs the first 512 bytes and checks the detected MIME
// type against the allowed prefixes or full types, e.g. "image/", "application/pdf".
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	mimeType := http.DetectContentType(buffer[:n])

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, errors.New("invalid file type: " + mimeType)
}
