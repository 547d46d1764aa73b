// Package export implements a streaming parser for MediaWiki export XML.
//
// Export dumps are the files produced by Special:Export and published at
// dumps.wikimedia.org. They hold a single <mediawiki> root element whose
// <page> children describe wiki pages. This package walks the token stream
// of such a document and yields one [Page] per <page> element without ever
// holding more than one page in memory.
//
// # Parsing
//
// The [Parser] type is a pull iterator: each call to [Parser.Next] consumes
// just enough of the stream to assemble the next page.
//
//	parser := export.NewParser(file)
//	for {
//	    page, err := parser.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        // handle error
//	    }
//	    // use page
//	}
//
// # Supported schema subset
//
// Only dumps carrying at most one <revision> per page are supported, which
// is what Special:Export produces with "current revision only" enabled and
// what the -pages-articles dump files contain. Within a page, the elements
// <title>, <ns> and <revision> are read; within a revision, <format>,
// <model> and <text>. Everything else, <siteinfo> and <contributor>
// included, is skipped without being decoded.
//
// Elements count as part of the schema only when they are qualified by the
// export namespace ([SchemaNamespace] by default). A <page> element in no
// namespace is skipped like any foreign element.
//
// # Errors
//
// Next reports failures through three error types: [FormatError] when the
// document shape is not the expected one, [NotSupportedError] when a page
// carries more than one revision, and [SourceError] when the underlying
// stream is not well-formed XML or cannot be read. The first two carry the
// stream position where they were detected. After any error, including the
// io.EOF that marks exhaustion, the parser is terminal: later calls return
// the same error again.
package export
