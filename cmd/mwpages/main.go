// Command mwpages prints every page of a MediaWiki export dump.
//
// The dump may be plain XML or compressed; the container encoding is
// detected from the file extension.
package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/mwdump/mwdump"
	"github.com/mwdump/mwdump/export"
)

var (
	dumpPath   = kingpin.Arg("dump", "Path to the dump file (.xml, .xml.bz2 or .xml.gz).").Required().String()
	titlesOnly = kingpin.Flag("titles", "Print page titles only.").Bool()
)

func main() {
	kingpin.Parse()

	dump := mwdump.Open(*dumpPath)
	defer dump.Close()

	for {
		page, err := dump.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			exitBecauseOf(err)
		}
		printPage(page)
	}
}

func printPage(page *export.Page) {
	if *titlesOnly {
		fmt.Println(page.Title)
		return
	}
	fmt.Printf("title: %s\n", page.Title)
	fmt.Printf("namespace: %d\n", page.Namespace)
	if page.Model != nil {
		fmt.Printf("model: %s\n", *page.Model)
	}
	if page.Format != nil {
		fmt.Printf("format: %s\n", *page.Format)
	}
	fmt.Printf("text:\n%s\n\n", page.Text)
}

func exitBecauseOf(err error) {
	fmt.Fprintf(os.Stderr, "%v: error: %v\n", os.Args[0], err)
	os.Exit(1)
}
