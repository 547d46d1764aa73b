package export

// Page is one wiki page extracted from a dump, assembled from a <page>
// element and the single <revision> inside it.
//
// The export schema marks <format> and <model> as mandatory, but dumps
// written under earlier schema versions lack them, so the corresponding
// fields are pointers and nil when the element was absent.
type Page struct {
	// Title is the page title as stored in the dump.
	Title string

	// Namespace is the numeric namespace key from the <ns> element.
	// Ordinary articles live in namespace 0.
	Namespace uint32

	// Format is the MIME type of the revision content, "text/x-wiki" for
	// ordinary articles. Nil when the dump carries no <format> element.
	Format *string

	// Model is the content model of the revision, "wikitext" for
	// ordinary articles. Nil when the dump carries no <model> element.
	Model *string

	// Text is the content of the page's sole revision. Always present on
	// a returned Page, though it may be empty.
	Text string
}

// pageBuilder accumulates fields while a <page> element is being read.
// Every slot starts nil and is filled at most once; a filled slot seeing
// its element again is how duplicates are detected.
type pageBuilder struct {
	title     *string
	namespace *uint32
	format    *string
	model     *string
	text      *string
}

// build returns the assembled page, or false when a required field never
// appeared.
func (b *pageBuilder) build() (*Page, bool) {
	if b.title == nil || b.namespace == nil || b.text == nil {
		return nil, false
	}
	return &Page{
		Title:     *b.title,
		Namespace: *b.namespace,
		Format:    b.format,
		Model:     b.model,
		Text:      *b.text,
	}, true
}
