// Command inspect decodes locators and directory files back into their
// fields.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/caskfs/cask/pkg/directory"
	"github.com/caskfs/cask/pkg/enc32"
	"github.com/caskfs/cask/pkg/locator"
)

func main() {
	dirPath := flag.String("directory", "", "list the entries of a directory file")
	flag.Parse()

	if *dirPath != "" {
		listDirectory(*dirPath)
		return
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect <locator> | inspect --directory <file>")
		os.Exit(1)
	}

	for _, arg := range flag.Args() {
		root, err := locator.Parse(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("key:   %s\n", enc32.Encode(root.Key[:]))
		fmt.Printf("query: %s\n", enc32.Encode(root.Query[:]))
		fmt.Printf("size:  %d\n", root.FileSize)
	}
}

func listDirectory(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %v\n", path, err)
		os.Exit(1)
	}
	d, err := directory.Unmarshal(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	for _, e := range d.Entries {
		fmt.Printf("%s\t%d\t%s\n", e.Name, e.Size, e.Locator)
	}
}
