// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// ReadFile reads a secret from path, or a single line from stdin when
// path is "-". Trailing CR/LF bytes are stripped; other whitespace is
// kept because it may be part of a password.
func ReadFile(path string) (*Buffer, error) {
	if path == "-" {
		return readLine(os.Stdin)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("secret: reading %s: %w", path, err)
	}
	return fromTrimmed(data, path)
}

func readLine(reader io.Reader) (*Buffer, error) {
	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("secret: reading stdin: %w", err)
		}
		return nil, fmt.Errorf("secret: stdin is empty")
	}
	return fromTrimmed(scanner.Bytes(), "stdin")
}

func fromTrimmed(data []byte, source string) (*Buffer, error) {
	end := len(data)
	for end > 0 && (data[end-1] == '\n' || data[end-1] == '\r') {
		end--
	}
	if end == 0 {
		Zero(data)
		return nil, fmt.Errorf("secret: %s is empty", source)
	}

	buffer, err := NewFromBytes(data[:end])
	Zero(data)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}
