// Command publish encodes one or more files into encrypted hash trees
// and prints their locators. With --store the blocks are persisted into
// the local block store; with --directory each published entry is
// appended to a directory file.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	cask "github.com/caskfs/cask"
	"github.com/caskfs/cask/internal/config"
	"github.com/caskfs/cask/pkg/directory"
	"github.com/caskfs/cask/pkg/locator"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	store := flag.Bool("store", false, "persist blocks into the local block store")
	dirPath := flag.String("directory", "", "append published entries to this directory file")
	verbose := flag.BoolP("verbose", "v", false, "enable debug logging")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: publish [flags] <file>...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	if level, err := logrus.ParseLevel(conf.LogLevel); err == nil && !*verbose {
		log.SetLevel(level)
	}

	caskConf := cask.Config{Logger: log}
	if *store {
		if conf.StorePath == "" {
			log.Fatal("--store requires storePath in the config file")
		}
		caskConf.StorePath = conf.StorePath
		caskConf.MinimumFreeGB = conf.MinimumFreeGB
	}

	c, err := cask.New(caskConf)
	if err != nil {
		log.Fatalf("error creating cask: %v", err)
	}
	defer c.Close()

	for _, path := range flag.Args() {
		loc, err := c.PublishFile(path)
		if err != nil {
			log.Fatalf("error publishing %s: %v", path, err)
		}
		fmt.Println(loc)

		if *dirPath != "" {
			root, err := locator.Parse(loc)
			if err != nil {
				log.Fatalf("error parsing produced locator: %v", err)
			}
			err = directory.AppendToFile(*dirPath, directory.Entry{
				Name:    path,
				Locator: loc,
				Size:    root.FileSize,
			})
			if err != nil {
				log.Fatalf("error updating directory %s: %v", *dirPath, err)
			}
		}
	}
}
