package util

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ValidateMimeType sniffs the first 512 bytes and checks the detected MIME
// type against a list of allowed prefixes or exact types.
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

// HasAllowedExt reports whether filename carries one of the allowed
// extensions (case-insensitive).
func HasAllowedExt(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// maxAttachmentChars caps how much of a single attachment is injected into
// a generation prompt.
const maxAttachmentChars = 100000

// ExtractText pulls prompt-usable text out of an uploaded attachment.
// Plain-text formats are decoded directly; binary formats contribute only
// their name, so the model still knows the document exists.
func ExtractText(filename string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		if !utf8.Valid(data) {
			return fmt.Sprintf("[unreadable attachment %s]", filename)
		}
		text := string(data)
		if len(text) > maxAttachmentChars {
			text = text[:maxAttachmentChars] + "...[truncated]"
		}
		return text
	default:
		return fmt.Sprintf("[binary attachment %s, content not extracted]", filename)
	}
}

// MustParseUint converts a decimal string to uint, returning 0 on failure.
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}
