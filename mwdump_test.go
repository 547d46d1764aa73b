package mwdump

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwdump/mwdump/export"
	"github.com/mwdump/mwdump/format"
)

const testSchemaNamespace = export.SchemaNamespace

// testDumpXML renders a two page dump document.
func testDumpXML() string {
	return `<mediawiki xmlns="` + testSchemaNamespace + `">` +
		`<page><title>First</title><ns>0</ns><revision><text>alpha</text></revision></page>` +
		`<page><title>Second</title><ns>1</ns><revision><text>beta</text></revision></page>` +
		`</mediawiki>`
}

// writeTestDump writes data to a file under a temp dir and returns its path.
func writeTestDump(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write test dump: %v", err)
	}
	return path
}

// gzipBytes compresses data with gzip.
func gzipBytes(t *testing.T, data string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(data)); err != nil {
		t.Fatalf("writing gzip data: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}
	return buf.Bytes()
}

// drainTitles iterates the dump to exhaustion and returns the page titles.
func drainTitles(t *testing.T, d *Dump) []string {
	t.Helper()

	var titles []string
	for {
		page, err := d.Next()
		if err == io.EOF {
			return titles
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		titles = append(titles, page.Title)
	}
}

func wantTitles(t *testing.T, got, want []string) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("got %d pages %v, want %d pages %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("page %d title = %q, want %q", i, got[i], want[i])
		}
	}
}

// ============================================================================
// Opening dumps
// ============================================================================

func TestOpen_PlainXML(t *testing.T) {
	path := writeTestDump(t, "pages.xml", []byte(testDumpXML()))

	dump := Open(path)
	defer dump.Close()

	wantTitles(t, drainTitles(t, dump), []string{"First", "Second"})
}

func TestOpen_Gzip(t *testing.T) {
	path := writeTestDump(t, "pages.xml.gz", gzipBytes(t, testDumpXML()))

	dump := Open(path)
	defer dump.Close()

	wantTitles(t, drainTitles(t, dump), []string{"First", "Second"})
}

func TestOpen_Bzip2(t *testing.T) {
	dump := Open(filepath.Join("testdata", "antelope.xml.bz2"))
	defer dump.Close()

	page, err := dump.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if page.Title != "Antelope" {
		t.Errorf("Title = %q, want %q", page.Title, "Antelope")
	}
	if page.Namespace != 0 {
		t.Errorf("Namespace = %d, want 0", page.Namespace)
	}
	if !strings.Contains(page.Text, "bovid") {
		t.Errorf("Text = %q, want the article body", page.Text)
	}

	page, err = dump.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if page.Title != "Talk:Antelope" {
		t.Errorf("Title = %q, want %q", page.Title, "Talk:Antelope")
	}
	if page.Namespace != 1 {
		t.Errorf("Namespace = %d, want 1", page.Namespace)
	}

	if _, err := dump.Next(); err != io.EOF {
		t.Fatalf("Next() error = %v, want io.EOF", err)
	}
}

func TestOpen_NotFound(t *testing.T) {
	dump := Open(filepath.Join(t.TempDir(), "missing.xml"))
	defer dump.Close()

	_, err := dump.Next()
	if err == nil {
		t.Fatal("Next() error = nil, want open failure")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Next() error = %v, want fs.ErrNotExist in its chain", err)
	}

	// The open failure sticks to the handle.
	_, again := dump.Next()
	if again != err {
		t.Errorf("second Next() error = %v, want the first error again", again)
	}
}

func TestOpen_MislabeledEncoding(t *testing.T) {
	// Gzip data behind an .xml extension: extension detection picks plain
	// XML and parsing fails, but forcing the encoding recovers.
	path := writeTestDump(t, "pages.xml", gzipBytes(t, testDumpXML()))

	t.Run("extension detection fails", func(t *testing.T) {
		dump := Open(path)
		defer dump.Close()
		if _, err := dump.Next(); err == nil || err == io.EOF {
			t.Fatalf("Next() error = %v, want parse failure", err)
		}
	})

	t.Run("forced encoding works", func(t *testing.T) {
		dump := Open(path).Encoding(format.Gzip)
		defer dump.Close()
		wantTitles(t, drainTitles(t, dump), []string{"First", "Second"})
	})
}

func TestOpenReader(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"plain xml stream", []byte(testDumpXML())},
		{"gzip stream", gzipBytes(t, testDumpXML())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dump := OpenReader(bytes.NewReader(tt.data))
			defer dump.Close()
			wantTitles(t, drainTitles(t, dump), []string{"First", "Second"})
		})
	}
}

func TestOpenReader_SourceStaysOpen(t *testing.T) {
	src := &closeCounter{Reader: strings.NewReader(testDumpXML())}

	dump := OpenReader(src)
	drainTitles(t, dump)

	if err := dump.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if src.closes != 0 {
		t.Errorf("source Close() called %d times, want 0", src.closes)
	}
}

// closeCounter counts Close calls on a reader.
type closeCounter struct {
	io.Reader
	closes int
}

func (c *closeCounter) Close() error {
	c.closes++
	return nil
}

// ============================================================================
// Lifecycle
// ============================================================================

func TestDump_Close(t *testing.T) {
	path := writeTestDump(t, "pages.xml", []byte(testDumpXML()))

	dump := Open(path)
	drainTitles(t, dump)

	if err := dump.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := dump.Close(); err != nil {
		t.Errorf("Close() second call error = %v", err)
	}
}

func TestDump_CloseBeforeNext(t *testing.T) {
	dump := Open("never-opened.xml")
	if err := dump.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// ============================================================================
// Configuration
// ============================================================================

func TestDump_ConfigurationDoesNotMutate(t *testing.T) {
	base := Open("dump.xml")
	configured := base.
		Encoding(format.Gzip).
		SchemaNamespace("http://example.com/schema/").
		MaxSkipDepth(5).
		NoCharsetConversion()

	if base.options.encoding != format.Unknown {
		t.Errorf("base encoding = %v, want %v", base.options.encoding, format.Unknown)
	}
	if base.options.schemaNamespace != export.SchemaNamespace {
		t.Errorf("base schema namespace = %q, want the default", base.options.schemaNamespace)
	}
	if base.options.maxSkipDepth != export.DefaultMaxSkipDepth {
		t.Errorf("base max skip depth = %d, want %d", base.options.maxSkipDepth, export.DefaultMaxSkipDepth)
	}
	if !base.options.convertCharset {
		t.Error("base charset conversion disabled, want enabled")
	}

	if configured.options.encoding != format.Gzip {
		t.Errorf("configured encoding = %v, want %v", configured.options.encoding, format.Gzip)
	}
	if configured.options.schemaNamespace != "http://example.com/schema/" {
		t.Errorf("configured schema namespace = %q, want the override", configured.options.schemaNamespace)
	}
	if configured.options.maxSkipDepth != 5 {
		t.Errorf("configured max skip depth = %d, want 5", configured.options.maxSkipDepth)
	}
	if configured.options.convertCharset {
		t.Error("configured charset conversion enabled, want disabled")
	}
}

func TestDump_SchemaNamespaceOption(t *testing.T) {
	const altNamespace = "http://www.mediawiki.org/xml/export-0.11/"
	doc := `<mediawiki xmlns="` + altNamespace + `">` +
		`<page><title>Alt</title><ns>0</ns><revision><text>x</text></revision></page>` +
		`</mediawiki>`
	path := writeTestDump(t, "alt.xml", []byte(doc))

	t.Run("override accepts the other schema", func(t *testing.T) {
		dump := Open(path).SchemaNamespace(altNamespace)
		defer dump.Close()
		wantTitles(t, drainTitles(t, dump), []string{"Alt"})
	})

	t.Run("default rejects it", func(t *testing.T) {
		dump := Open(path)
		defer dump.Close()
		_, err := dump.Next()
		var formatErr *export.FormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("Next() error = %v, want *export.FormatError", err)
		}
	})
}

func TestDump_MaxSkipDepthOption(t *testing.T) {
	nested := strings.Repeat("<d>", 10) + strings.Repeat("</d>", 10)
	doc := `<mediawiki xmlns="` + testSchemaNamespace + `">` +
		`<page><title>Deep</title><ns>0</ns>` + nested + `<revision><text>x</text></revision></page>` +
		`</mediawiki>`
	path := writeTestDump(t, "deep.xml", []byte(doc))

	t.Run("default copes with the nesting", func(t *testing.T) {
		dump := Open(path)
		defer dump.Close()
		wantTitles(t, drainTitles(t, dump), []string{"Deep"})
	})

	t.Run("tight cap rejects it", func(t *testing.T) {
		dump := Open(path).MaxSkipDepth(3)
		defer dump.Close()
		_, err := dump.Next()
		var formatErr *export.FormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("Next() error = %v, want *export.FormatError", err)
		}
	})
}

func TestDump_NoCharsetConversion(t *testing.T) {
	doc := `<?xml version="1.0" encoding="ISO-8859-1"?>` +
		`<mediawiki xmlns="` + testSchemaNamespace + `">` +
		`<page><title>Caf` + "\xe9" + `</title><ns>0</ns><revision><text>x</text></revision></page>` +
		`</mediawiki>`
	path := writeTestDump(t, "latin1.xml", []byte(doc))

	t.Run("conversion on by default", func(t *testing.T) {
		dump := Open(path)
		defer dump.Close()
		wantTitles(t, drainTitles(t, dump), []string{"Café"})
	})

	t.Run("conversion disabled", func(t *testing.T) {
		dump := Open(path).NoCharsetConversion()
		defer dump.Close()
		_, err := dump.Next()
		var sourceErr *export.SourceError
		if !errors.As(err, &sourceErr) {
			t.Fatalf("Next() error = %v, want *export.SourceError", err)
		}
	})
}

// ============================================================================
// Must
// ============================================================================

func TestMust(t *testing.T) {
	t.Run("returns the value", func(t *testing.T) {
		got := Must("value", nil)
		if got != "value" {
			t.Errorf("Must() = %q, want %q", got, "value")
		}
	})

	t.Run("panics on error", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Must() did not panic on error")
			}
		}()
		Must(0, errors.New("boom"))
	})
}
