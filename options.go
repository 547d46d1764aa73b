package mwdump

import (
	"github.com/mwdump/mwdump/export"
	"github.com/mwdump/mwdump/format"
)

// DumpOptions holds configuration for reading a dump.
type DumpOptions struct {
	// Container encoding; Unknown means detect from the filename
	// extension, then from magic bytes
	encoding format.Format

	// Namespace URI that qualifies elements as part of the export schema
	schemaNamespace string

	// Nesting cap while skipping unrecognized subtrees (0 disables)
	maxSkipDepth int

	// Convert input declared in a non-UTF-8 character set
	convertCharset bool
}

// defaultOptions returns the default dump options.
func defaultOptions() DumpOptions {
	return DumpOptions{
		encoding:        format.Unknown,
		schemaNamespace: export.SchemaNamespace,
		maxSkipDepth:    export.DefaultMaxSkipDepth,
		convertCharset:  true,
	}
}

// clone creates a copy of DumpOptions.
func (o DumpOptions) clone() DumpOptions {
	return DumpOptions{
		encoding:        o.encoding,
		schemaNamespace: o.schemaNamespace,
		maxSkipDepth:    o.maxSkipDepth,
		convertCharset:  o.convertCharset,
	}
}
