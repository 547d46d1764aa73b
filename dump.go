package mwdump

import (
	"fmt"
	"io"
	"os"

	"github.com/mwdump/mwdump/export"
	"github.com/mwdump/mwdump/format"
	"github.com/mwdump/mwdump/internal/filters"
)

// Dump provides a fluent interface for reading the pages of an export
// dump. Each configuration method returns a new Dump instance, so a
// configured handle can safely serve as a template for others. Iteration
// itself is single-consumer: one goroutine calls Next until done.
type Dump struct {
	// Source
	filename string
	source   io.Reader

	// Decoding pipeline, built on first use
	file   *os.File
	filter io.ReadCloser
	parser *export.Parser
	opened bool

	// Configuration
	options DumpOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Dump with a copy of its options.
// Configuration methods use it so that a chain never mutates the handle it
// was called on.
func (d *Dump) clone() *Dump {
	return &Dump{
		filename: d.filename,
		source:   d.source,
		file:     d.file,
		filter:   d.filter,
		parser:   d.parser,
		opened:   d.opened,
		options:  d.options.clone(),
		err:      d.err,
	}
}

// ============================================================================
// Configuration Methods (return new Dump instance)
// ============================================================================

// Encoding forces the container encoding instead of detecting it from the
// filename or the stream's leading bytes.
//
// Example:
//
//	dump := mwdump.Open("download.tmp").Encoding(format.Bzip2)
func (d *Dump) Encoding(f format.Format) *Dump {
	newDump := d.clone()
	newDump.options.encoding = f
	return newDump
}

// SchemaNamespace sets the namespace URI that marks elements as part of
// the export schema. The default targets export format 0.10; dumps written
// under another schema version need their own URI here.
//
// Example:
//
//	dump := mwdump.Open("dump.xml").
//	    SchemaNamespace("http://www.mediawiki.org/xml/export-0.11/")
func (d *Dump) SchemaNamespace(uri string) *Dump {
	newDump := d.clone()
	newDump.options.schemaNamespace = uri
	return newDump
}

// MaxSkipDepth caps element nesting inside skipped subtrees. Input nesting
// deeper than the cap is rejected as malformed. Zero disables the cap.
//
// Example:
//
//	dump := mwdump.Open("dump.xml").MaxSkipDepth(100)
func (d *Dump) MaxSkipDepth(depth int) *Dump {
	newDump := d.clone()
	newDump.options.maxSkipDepth = depth
	return newDump
}

// NoCharsetConversion disables conversion of input declared in a non-UTF-8
// character set. With conversion off, only UTF-8 dumps parse; use it when
// the input is known to be UTF-8 and the document's own declaration should
// not be trusted to pull in a converter.
//
// Example:
//
//	dump := mwdump.Open("dump.xml").NoCharsetConversion()
func (d *Dump) NoCharsetConversion() *Dump {
	newDump := d.clone()
	newDump.options.convertCharset = false
	return newDump
}

// ============================================================================
// Iteration
// ============================================================================

// Next returns the next page of the dump in document order. It returns
// io.EOF once the dump is exhausted. The first call opens the file and
// builds the decoding pipeline, so construction errors surface here.
//
// After any error, Next keeps returning that same error.
func (d *Dump) Next() (*export.Page, error) {
	if d.err != nil {
		return nil, d.err
	}
	if err := d.ensureParser(); err != nil {
		d.err = err
		return nil, err
	}
	return d.parser.Next()
}

// Close releases the resources held by the Dump. It is safe to call Close
// multiple times, and safe to call on a Dump that never opened.
func (d *Dump) Close() error {
	var firstErr error
	if d.filter != nil {
		firstErr = d.filter.Close()
		d.filter = nil
	}
	if d.file != nil {
		if err := d.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		d.file = nil
	}
	return firstErr
}

// ============================================================================
// Internal helpers
// ============================================================================

// ensureParser opens the source and assembles the decoding pipeline:
// container detection, decompression, then the schema parser.
func (d *Dump) ensureParser() error {
	if d.opened {
		return nil
	}

	var src io.Reader
	encoding := d.options.encoding

	switch {
	case d.filename != "":
		f, err := os.Open(d.filename)
		if err != nil {
			return fmt.Errorf("opening dump file: %w", err)
		}
		d.file = f
		src = f
		if encoding == format.Unknown {
			encoding = format.Detect(d.filename)
		}
	case d.source != nil:
		src = d.source
	default:
		return fmt.Errorf("no dump source specified")
	}

	if encoding == format.Unknown {
		var err error
		encoding, src, err = format.DetectFromReader(src)
		if err != nil {
			d.Close()
			return fmt.Errorf("detecting dump encoding: %w", err)
		}
	}

	filter, err := filters.NewReader(src, encoding)
	if err != nil {
		d.Close()
		return fmt.Errorf("opening %s dump: %w", encoding, err)
	}
	d.filter = filter

	cfg := export.DefaultConfig()
	cfg.SchemaNamespace = d.options.schemaNamespace
	cfg.MaxSkipDepth = d.options.maxSkipDepth
	if !d.options.convertCharset {
		cfg.CharsetReader = nil
	}
	d.parser = export.NewParserWithConfig(filter, cfg)
	d.opened = true
	return nil
}
