// Package format provides container format detection for dump files.
package format

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"
)

// Format represents a recognized dump container encoding.
type Format int

const (
	// Unknown indicates an unrecognized encoding.
	Unknown Format = iota
	// XML indicates a plain uncompressed XML dump.
	XML
	// Bzip2 indicates a bzip2 compressed dump, the encoding Wikimedia
	// publishes its dumps in.
	Bzip2
	// Gzip indicates a gzip compressed dump.
	Gzip
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case XML:
		return "XML"
	case Bzip2:
		return "bzip2"
	case Gzip:
		return "gzip"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case XML:
		return ".xml"
	case Bzip2:
		return ".bz2"
	case Gzip:
		return ".gz"
	default:
		return ""
	}
}

// Detect determines the dump encoding from the filename extension. Dump
// files conventionally stack extensions (pages-articles.xml.bz2), so only
// the last one counts.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xml":
		return XML
	case ".bz2", ".bzip2":
		return Bzip2
	case ".gz", ".gzip":
		return Gzip
	default:
		return Unknown
	}
}

// DetectFromMagic checks leading magic bytes to determine the encoding.
// This is more reliable than extension-based detection for streams without
// a filename. Returns Unknown if the bytes match no known encoding.
func DetectFromMagic(data []byte) Format {
	// bzip2 magic: BZh followed by the block size digit
	if len(data) >= 4 && data[0] == 'B' && data[1] == 'Z' && data[2] == 'h' && data[3] >= '1' && data[3] <= '9' {
		return Bzip2
	}

	// gzip magic: \x1f\x8b
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return Gzip
	}

	if detectXMLMagic(data) {
		return XML
	}

	return Unknown
}

// detectXMLMagic checks if the data looks like the start of an XML
// document: optional byte order mark and whitespace, then a '<'.
func detectXMLMagic(data []byte) bool {
	// Skip a UTF-8 byte order mark
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}

	start := 0
	for start < len(data) && (data[start] == ' ' || data[start] == '\t' || data[start] == '\n' || data[start] == '\r') {
		start++
	}
	if start >= len(data) {
		return false
	}

	return data[start] == '<'
}

// sniffLen is how many leading bytes DetectFromReader inspects.
const sniffLen = 512

// DetectFromReader sniffs the start of r without consuming it. The returned
// reader replays the sniffed bytes followed by the rest of r and must be
// used in place of r.
func DetectFromReader(r io.Reader) (Format, io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		return Unknown, br, err
	}
	return DetectFromMagic(magic), br, nil
}
