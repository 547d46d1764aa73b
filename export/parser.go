package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// SchemaNamespace is the XML namespace of MediaWiki export format 0.10, the
// schema version this package targets. Elements outside this namespace do
// not take part in parsing.
const SchemaNamespace = "http://www.mediawiki.org/xml/export-0.10/"

// DefaultMaxSkipDepth bounds element nesting inside skipped subtrees, so
// adversarial input cannot drive the parser through unbounded structure.
const DefaultMaxSkipDepth = 1000

// Config holds the knobs of a Parser. The zero value parses UTF-8 input
// only and puts no cap on nesting inside skipped subtrees; most callers
// want DefaultConfig.
type Config struct {
	// SchemaNamespace is the namespace URI that qualifies elements as
	// part of the export schema. Empty means SchemaNamespace.
	SchemaNamespace string

	// MaxSkipDepth caps nesting while discarding unrecognized subtrees.
	// Zero disables the cap.
	MaxSkipDepth int

	// CharsetReader converts input in the character set named by the XML
	// prolog into UTF-8. When nil, only UTF-8 input parses.
	CharsetReader func(label string, input io.Reader) (io.Reader, error)
}

// DefaultConfig returns the configuration used by NewParser: the 0.10
// schema namespace, the default skip depth cap, and charset conversion
// through x/net/html/charset.
func DefaultConfig() Config {
	return Config{
		SchemaNamespace: SchemaNamespace,
		MaxSkipDepth:    DefaultMaxSkipDepth,
		CharsetReader:   charset.NewReaderLabel,
	}
}

// parseState identifies where in the document the parser stands between
// calls to Next. The states inside a page do not appear here because a page
// is always consumed within a single call.
type parseState int

const (
	// stateBeforeRoot: the <mediawiki> root has not been entered yet.
	stateBeforeRoot parseState = iota
	// stateInRoot: directly inside the root element, between pages.
	stateInRoot
)

// Parser reads the pages of an export dump one at a time.
//
// A Parser owns its token stream and is not safe for concurrent use. It is
// terminal after the first error: once Next has returned a non-nil error,
// every later call returns that same error, with io.EOF playing that role
// after the root element closes.
type Parser struct {
	dec   *xml.Decoder
	cfg   Config
	state parseState
	err   error
}

// NewParser returns a Parser over source using DefaultConfig. Construction
// performs no reads; the first call to Next does.
func NewParser(source io.Reader) *Parser {
	return NewParserWithConfig(source, DefaultConfig())
}

// NewParserWithConfig returns a Parser over source with explicit
// configuration.
func NewParserWithConfig(source io.Reader, cfg Config) *Parser {
	if cfg.SchemaNamespace == "" {
		cfg.SchemaNamespace = SchemaNamespace
	}
	dec := xml.NewDecoder(source)
	dec.CharsetReader = cfg.CharsetReader
	return &Parser{dec: dec, cfg: cfg}
}

// Next returns the next page in document order. It returns io.EOF once the
// dump's root element has closed. Any other error means the dump could not
// be parsed; see FormatError, NotSupportedError and SourceError.
func (p *Parser) Next() (*Page, error) {
	if p.err != nil {
		return nil, p.err
	}
	page, err := p.next()
	if err != nil {
		p.err = err
		return nil, err
	}
	return page, nil
}

func (p *Parser) next() (*Page, error) {
	if p.state == stateBeforeRoot {
		if err := p.enterRoot(); err != nil {
			return nil, err
		}
		p.state = stateInRoot
	}
	return p.nextPage()
}

// enterRoot consumes tokens until the document's root element opens and
// checks that it is <mediawiki> in the schema namespace. It runs at most
// once per Parser.
func (p *Parser) enterRoot() error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return p.sourceErr(err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if p.matches(start.Name) && start.Name.Local == "mediawiki" {
			return nil
		}
		return &FormatError{
			Pos:    p.pos(),
			Reason: fmt.Sprintf("root element is <%s> in namespace %q, want <mediawiki> in namespace %q", start.Name.Local, start.Name.Space, p.cfg.SchemaNamespace),
		}
	}
}

// nextPage walks the children of the root element until a page has been
// assembled or the root closes. Anything that is not a schema <page>
// element, <siteinfo> included, is skipped whole.
func (p *Parser) nextPage() (*Page, error) {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.sourceErr(err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			// The decoder enforces matched tags, so this can only be
			// the root closing. The dump is exhausted.
			return nil, io.EOF
		case xml.StartElement:
			if p.matches(t.Name) && t.Name.Local == "page" {
				return p.collectPage()
			}
			if err := p.skipSubtree(); err != nil {
				return nil, err
			}
		}
	}
}

// collectPage assembles one Page from the children of a <page> element. On
// entry the cursor sits just past the page start tag; on success it sits
// just past the matching end tag.
func (p *Parser) collectPage() (*Page, error) {
	var b pageBuilder
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.sourceErr(err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			page, ok := b.build()
			if !ok {
				return nil, &FormatError{Pos: p.pos(), Reason: "page ended before title, ns and revision text were all present"}
			}
			return page, nil
		case xml.StartElement:
			if !p.matches(t.Name) {
				if err := p.skipSubtree(); err != nil {
					return nil, err
				}
				continue
			}
			switch t.Name.Local {
			case "title":
				if err := p.leafText(&b.title, "title"); err != nil {
					return nil, err
				}
			case "ns":
				if err := p.namespaceKey(&b); err != nil {
					return nil, err
				}
			case "revision":
				if b.text != nil {
					return nil, &NotSupportedError{Pos: p.pos()}
				}
				if err := p.collectRevision(&b); err != nil {
					return nil, err
				}
			default:
				if err := p.skipSubtree(); err != nil {
					return nil, err
				}
			}
		}
	}
}

// collectRevision fills the revision-scoped fields of the builder from the
// children of a <revision> element. collectPage has already rejected a
// second revision before calling here.
func (p *Parser) collectRevision(b *pageBuilder) error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return p.sourceErr(err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if b.text == nil {
				return &FormatError{Pos: p.pos(), Reason: "revision ended without a <text> element"}
			}
			return nil
		case xml.StartElement:
			if !p.matches(t.Name) {
				if err := p.skipSubtree(); err != nil {
					return err
				}
				continue
			}
			switch t.Name.Local {
			case "format":
				if err := p.leafText(&b.format, "format"); err != nil {
					return err
				}
			case "model":
				if err := p.leafText(&b.model, "model"); err != nil {
					return err
				}
			case "text":
				if err := p.leafText(&b.text, "text"); err != nil {
					return err
				}
			default:
				if err := p.skipSubtree(); err != nil {
					return err
				}
			}
		}
	}
}

// namespaceKey extracts the <ns> leaf and parses it as a decimal namespace
// key.
func (p *Parser) namespaceKey(b *pageBuilder) error {
	if b.namespace != nil {
		return &FormatError{Pos: p.pos(), Reason: "duplicate <ns> element"}
	}
	text, err := p.leafValue("ns")
	if err != nil {
		return err
	}
	value, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return &FormatError{Pos: p.pos(), Reason: fmt.Sprintf("<ns> content %q is not an unsigned 32-bit integer", text)}
	}
	key := uint32(value)
	b.namespace = &key
	return nil
}

// leafText reads the text content of a leaf element into dst. A slot that
// is already filled means the document repeated the element, which the
// schema does not allow.
func (p *Parser) leafText(dst **string, name string) error {
	if *dst != nil {
		return &FormatError{Pos: p.pos(), Reason: "duplicate <" + name + "> element"}
	}
	value, err := p.leafValue(name)
	if err != nil {
		return err
	}
	*dst = &value
	return nil
}

// leafValue reads character data up to the element's end tag. An element
// that closes immediately yields the empty string. Consecutive character
// data runs, as produced around CDATA sections, are joined; any child
// element or other markup disqualifies the leaf.
func (p *Parser) leafValue(name string) (string, error) {
	var sb strings.Builder
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return "", p.sourceErr(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			return sb.String(), nil
		default:
			return "", &FormatError{Pos: p.pos(), Reason: fmt.Sprintf("<%s> holds markup, want plain text", name)}
		}
	}
}

// skipSubtree discards tokens up to the end tag matching the most recently
// opened element. Depth is tracked with a plain counter, so skipping runs
// in constant memory no matter how deep the subtree nests.
func (p *Parser) skipSubtree() error {
	depth := 0
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return p.sourceErr(err)
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
			if p.cfg.MaxSkipDepth > 0 && depth > p.cfg.MaxSkipDepth {
				return &FormatError{Pos: p.pos(), Reason: fmt.Sprintf("skipped element nests deeper than %d levels", p.cfg.MaxSkipDepth)}
			}
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

// matches reports whether name sits in the schema namespace. The local name
// alone never qualifies an element.
func (p *Parser) matches(name xml.Name) bool {
	return name.Space == p.cfg.SchemaNamespace
}

// sourceErr wraps a decoder failure. The decoder reports a bare io.EOF only
// between top-level tokens, so one seen here means the input ended before
// the root element closed.
func (p *Parser) sourceErr(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &SourceError{Err: err}
}

// pos captures the decoder's current position for diagnostics.
func (p *Parser) pos() Position {
	return Position{Offset: p.dec.InputOffset()}
}
