// Package textcodec implements the LSTF-TEXT transport wrapper: an ASCII
// header line followed by a base64 payload, so binary tracks stay
// text-friendly for version control. Binary and text encodings are accepted
// transparently by Decode.
package textcodec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// Header is the first line of every text-encoded track.
	Header = "LSTF-TEXT 1"

	prefix  = "LSTF-TEXT"
	version = "1"

	// wrapColumn keeps encoded lines diff-friendly.
	wrapColumn = 76
)

var prefixBytes = []byte(prefix)

// IsText reports whether data carries the text transport wrapper.
func IsText(data []byte) bool {
	return bytes.HasPrefix(data, prefixBytes)
}

// Decode returns the binary LSTF payload from raw file data. Text-wrapped
// input is unwrapped; anything else passes through untouched.
func Decode(data []byte) ([]byte, error) {
	if !IsText(data) {
		return data, nil
	}
	return decodeText(data)
}

func decodeText(data []byte) ([]byte, error) {
	for _, b := range data {
		if b > 0x7F {
			return nil, fmt.Errorf("text-encoded track must be ASCII")
		}
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("text-encoded track is empty")
	}

	header := strings.Fields(lines[0])
	if len(header) != 2 || header[0] != prefix {
		return nil, fmt.Errorf("missing %s header in text-encoded track", prefix)
	}
	if header[1] != version {
		return nil, fmt.Errorf("unsupported text track version %q", header[1])
	}

	var payload strings.Builder
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "#") {
			continue
		}
		payload.WriteString(line)
	}
	if payload.Len() == 0 {
		return nil, fmt.Errorf("text-encoded track contains no payload data")
	}

	decoded, err := base64.StdEncoding.DecodeString(payload.String())
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload in text track: %w", err)
	}
	return decoded, nil
}

// Encode wraps binary LSTF bytes in the text transport: header line, then
// base64 wrapped at a fixed column, trailing newline included.
func Encode(binary []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(binary)

	var out strings.Builder
	out.WriteString(Header)
	out.WriteByte('\n')
	for len(encoded) > wrapColumn {
		out.WriteString(encoded[:wrapColumn])
		out.WriteByte('\n')
		encoded = encoded[wrapColumn:]
	}
	out.WriteString(encoded)
	out.WriteByte('\n')
	return []byte(out.String())
}
