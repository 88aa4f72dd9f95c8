package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"webshopsync/internal/entity"
	"webshopsync/internal/syncrun"
)

type runFlags struct {
	since time.Time
}

type purgeFlags struct {
	kind entity.Kind
	all  bool
}

type deleteFlags struct {
	kind entity.Kind
	id   int64
}

type verifyFlags struct {
	id int64
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

func parseRunFlags(args []string) (runFlags, error) {
	var since string
	fs := newFlagSet("run")
	fs.StringVarP(&since, "since", "s", "", "Push changes after this time (RFC 3339 or \"2006-01-02 15:04:05\"); defaults to the last completed run")
	if err := fs.Parse(args); err != nil {
		return runFlags{}, err
	}

	var f runFlags
	if since != "" {
		t, err := syncrun.ParseSince(since)
		if err != nil {
			return runFlags{}, fmt.Errorf("invalid --since: %w", err)
		}
		f.since = t
	}
	return f, nil
}

func parsePurgeFlags(args []string) (purgeFlags, error) {
	var kind string
	var f purgeFlags
	fs := newFlagSet("purge")
	fs.StringVarP(&kind, "kind", "k", "", "Kind whose test records are deleted")
	fs.BoolVarP(&f.all, "all", "a", false, "Delete the test records of every kind")
	if err := fs.Parse(args); err != nil {
		return purgeFlags{}, err
	}

	switch {
	case f.all && kind != "":
		return purgeFlags{}, fmt.Errorf("--kind and --all are mutually exclusive")
	case f.all:
		return f, nil
	case kind == "":
		return purgeFlags{}, fmt.Errorf("one of --kind or --all is required")
	}

	k, ok := entity.ParseKind(kind)
	if !ok {
		return purgeFlags{}, fmt.Errorf("unknown kind %q", kind)
	}
	f.kind = k
	return f, nil
}

func parseDeleteFlags(args []string) (deleteFlags, error) {
	var kind string
	var f deleteFlags
	fs := newFlagSet("delete")
	fs.StringVarP(&kind, "kind", "k", "", "Kind of the record")
	fs.Int64Var(&f.id, "id", 0, "Webshop id of the record (WebshopID for customers)")
	if err := fs.Parse(args); err != nil {
		return deleteFlags{}, err
	}

	k, ok := entity.ParseKind(kind)
	if !ok {
		return deleteFlags{}, fmt.Errorf("unknown kind %q", kind)
	}
	if f.id <= 0 {
		return deleteFlags{}, fmt.Errorf("--id must be positive")
	}
	f.kind = k
	return f, nil
}

func parseVerifyFlags(args []string) (verifyFlags, error) {
	var f verifyFlags
	fs := newFlagSet("verify-product")
	fs.Int64Var(&f.id, "id", 0, "Product id")
	if err := fs.Parse(args); err != nil {
		return verifyFlags{}, err
	}
	if f.id <= 0 {
		return verifyFlags{}, fmt.Errorf("--id must be positive")
	}
	return f, nil
}

func parseNoFlags(name string, args []string) error {
	return newFlagSet(name).Parse(args)
}
