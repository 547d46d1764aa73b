// Package mwdump reads MediaWiki export XML dumps as a lazy stream of
// pages.
//
// Dumps are consumed sequentially, one page decoded at a time, so a
// multi-gigabyte dump is processed in constant memory. Compressed dumps
// are decompressed on the fly based on the file extension, or on the
// stream's leading bytes when there is no filename to go by.
//
// Basic usage:
//
//	dump := mwdump.Open("enwiki-latest-pages-articles.xml.bz2")
//	defer dump.Close()
//	for {
//	    page, err := dump.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        // handle error
//	    }
//	    fmt.Println(page.Title)
//	}
//
// With options:
//
//	dump := mwdump.Open("dump.xml").
//	    SchemaNamespace("http://www.mediawiki.org/xml/export-0.11/").
//	    MaxSkipDepth(100)
//
// For advanced use cases, the lower-level export package is also
// available.
package mwdump

import "io"

// Open opens a dump file and returns a Dump handle for fluent
// configuration and iteration. The file is not touched until the first
// call to Next, so errors such as a missing file surface there. The
// returned Dump must be closed when done.
//
// Example:
//
//	dump := mwdump.Open("pages-articles.xml.bz2")
//	defer dump.Close()
func Open(filename string) *Dump {
	return &Dump{
		filename: filename,
		options:  defaultOptions(),
	}
}

// OpenReader reads a dump from an already-open stream. The stream's
// container encoding is sniffed from its leading bytes unless Encoding is
// used. Closing the returned Dump releases the decoding pipeline but not
// the source; the caller keeps ownership of that.
//
// Example:
//
//	resp, err := http.Get(dumpURL)
//	if err != nil {
//	    // handle error
//	}
//	defer resp.Body.Close()
//	dump := mwdump.OpenReader(resp.Body)
//	defer dump.Close()
func OpenReader(source io.Reader) *Dump {
	return &Dump{
		source:  source,
		options: defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	page := mwdump.Must(dump.Next())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
