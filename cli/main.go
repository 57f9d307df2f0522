package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ankit-chaubey/image-surgery/core"
	"github.com/ankit-chaubey/image-surgery/core/exif"
	"github.com/ankit-chaubey/image-surgery/core/image"
)

const usage = `Usage: surgery <command> [flags] <file>...

Commands:
  view    list the metadata of each file
  check   list metadata plus consistency and privacy findings
  clean   write a copy of each file with all metadata removed

Flags:
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "print JSON instead of text")
	verbose := fs.Bool("v", false, "verbose output and debug logging")
	out := fs.String("o", "", "output path for clean (single file only)")
	suffix := fs.String("suffix", "_clean", "suffix for cleaned files; empty cleans in place")
	precision := fs.String("precision", "exact", "round the reported position: exact, street, neighborhood, city or region")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[2:])
	files := fs.Args()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if len(files) == 0 {
		fs.Usage()
		os.Exit(2)
	}
	if *out != "" && len(files) > 1 {
		core.PrintError("-o needs exactly one input file")
		os.Exit(2)
	}

	prec, err := exif.ParsePrecision(*precision)
	if err != nil {
		core.PrintError(err.Error())
		os.Exit(2)
	}

	p := core.NewPrinter(*jsonOut, *verbose)
	switch cmd {
	case "view":
		err = eachFile(files, func(path string) error { return view(p, path, prec, false) })
	case "check":
		err = eachFile(files, func(path string) error { return view(p, path, prec, true) })
	case "clean":
		err = cleanAll(p, files, *out, *suffix)
	default:
		fs.Usage()
		os.Exit(2)
	}
	if err != nil {
		if merr, ok := err.(*multierror.Error); ok {
			for _, e := range merr.Errors {
				core.PrintError(e.Error())
			}
		} else {
			core.PrintError(err.Error())
		}
		os.Exit(1)
	}
}

func eachFile(files []string, fn func(string) error) error {
	var result *multierror.Error
	for _, f := range files {
		if err := fn(f); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func readImage(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	kind := core.Sniff(buf)
	if kind == core.KindUnsupported {
		return nil, errors.Wrapf(core.ErrUnsupportedFormat, "%s: detected %s", path, mimetype.Detect(buf).String())
	}
	if hint := core.KindForPath(path); hint != core.KindUnsupported && hint != kind {
		log.Warn().Str("file", path).Stringer("extension", hint).Stringer("content", kind).Msg("file extension does not match content")
	}
	return buf, nil
}

func view(p *core.Printer, path string, prec exif.Precision, check bool) error {
	buf, err := readImage(path)
	if err != nil {
		return err
	}
	res, err := image.Extract(buf)
	if err != nil {
		return errors.WithMessage(err, path)
	}
	if res.GPS != nil && prec != exif.Exact {
		c := res.GPS.Fuzz(prec)
		res.GPS = &c
		p.PrintInfo(fmt.Sprintf("%s: position rounded to %s precision", path, prec))
	}
	m := res.View(path, p.Verbose)
	if check {
		m.Fields = append(m.Fields, res.Analyze().Fields()...)
	}
	p.PrintMetadata(m)
	return nil
}

// cleanAll cleans every file concurrently. A file whose cleaning fails is
// never written.
func cleanAll(p *core.Printer, files []string, out, suffix string) error {
	var (
		g  multierror.Group
		mu sync.Mutex
	)
	for _, f := range files {
		f := f
		g.Go(func() error {
			buf, err := readImage(f)
			if err != nil {
				return err
			}
			res, err := image.Clean(buf)
			if err != nil {
				return errors.WithMessage(err, f)
			}
			dst := core.ResolveOutPath(f, out, suffix)
			mode := os.FileMode(0o644)
			if st, err := os.Stat(f); err == nil {
				mode = st.Mode().Perm()
			}
			if err := os.WriteFile(dst, res.Data, mode); err != nil {
				return err
			}
			mu.Lock()
			p.PrintCleaning(f, dst, res)
			mu.Unlock()
			return nil
		})
	}
	return g.Wait().ErrorOrNil()
}
