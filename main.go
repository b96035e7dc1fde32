package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"panda.com/mp4iframe/core"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is the whole program, returning the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("iframe-offsets", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: iframe-offsets [flags] <video.mp4>\n")
		fmt.Fprintf(stderr, "iframe-offsets %v, list the file offsets of the key frames of an mp4\n", version)
		fs.PrintDefaults()
	}

	var (
		configPath string
		logLevel   string
		handlers   handlerList
		workers    int
		mmap       bool
		dump       bool
	)
	fs.StringVar(&configPath, "config", "", "yaml config file")
	fs.StringVar(&logLevel, "log-level", "info", "trace, debug, info, warn or error")
	fs.Var(&handlers, "handler", "only index tracks of this handler type, e.g. vide; repeatable or comma separated")
	fs.IntVar(&workers, "workers", 1, "tracks indexed concurrently, 0 for no limit")
	fs.BoolVar(&mmap, "mmap", false, "map the file instead of reading it")
	fs.BoolVar(&dump, "dump", false, "print the box tree and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}
	path := fs.Arg(0)

	conf := NewConfig()
	if configPath != "" {
		if err := conf.Load(configPath); err != nil {
			printFailure(stdout, err)
			return 1
		}
	}
	// Flags given on the command line win over the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			conf.LogLevel = logLevel
		case "handler":
			conf.Handlers = handlers
		case "workers":
			conf.Workers = workers
		case "mmap":
			conf.Mmap = mmap
		}
	})
	if err := conf.Validate(); err != nil {
		printFailure(stdout, errors.WithMessage(err, "invalid config"))
		return 1
	}
	setupLogger(stderr, conf.LogLevel)

	if dump {
		if err := dumpFile(stdout, path); err != nil {
			log.Errorf("dump %v failed, err is %v", path, err)
			printFailure(stdout, err)
			return 1
		}
		return 0
	}

	if err := analyzeFile(stdout, path, conf); err != nil {
		printFailure(stdout, err)
		return 1
	}
	return 0
}

func setupLogger(w io.Writer, level string) {
	log.SetOutput(w)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	// validated by Config.Validate
	lvl, _ := log.ParseLevel(level)
	log.SetLevel(lvl)
}

func analyzeFile(w io.Writer, path string, conf *Config) (err error) {
	log.Infof("iframe-offsets %v, analyze %v", version, path)

	data, release, err := loadFile(path, conf.Mmap)
	if err != nil {
		return
	}
	defer func() {
		if r := release(); r != nil {
			log.Warnf("release %v failed, err is %v", path, r)
		}
	}()

	var a *core.Analysis
	if a, err = core.Analyze(data, conf.Options()); err != nil {
		log.Errorf("analyze %v failed, err is %v", path, err)
		return errors.WithMessagef(err, "analyze %v", path)
	}

	printReport(w, path, a)
	return nil
}
