package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/cvboard/admin/internal/i18n"
)

type localesCheckOptions struct {
	Strict  bool
	Verbose bool
}

type localeReport struct {
	Locale  string
	Keys    int
	Missing []string
}

func parseLocalesCheckFlags(args []string) (localesCheckOptions, error) {
	fs := flag.NewFlagSet("locales-check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts localesCheckOptions
	fs.BoolVar(&opts.Strict, "strict", false, "Fail when any locale is missing keys")
	fs.BoolVar(&opts.Verbose, "verbose", false, "List every missing key")

	if err := fs.Parse(args); err != nil {
		return localesCheckOptions{}, err
	}
	return opts, nil
}

func runLocalesCheck(ctx *commandContext, args []string) error {
	opts, err := parseLocalesCheckFlags(args)
	if err != nil {
		return err
	}

	catalog, err := i18n.New(i18n.Options{
		Supported: ctx.Config.Locale.Supported,
		Default:   ctx.Config.Locale.Default,
		Fallback:  ctx.Config.Locale.Fallback,
		Logger:    ctx.Logger,
	})
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	reports := compareLocales(catalog)
	if err := printLocaleReports(ctx.Out, catalog.Default(), reports, opts.Verbose); err != nil {
		return err
	}

	if opts.Strict {
		for _, r := range reports {
			if len(r.Missing) > 0 {
				return fmt.Errorf("locale %s is missing %d keys", r.Locale, len(r.Missing))
			}
		}
	}
	return nil
}

// compareLocales reports, per supported locale, the default locale's keys it lacks.
func compareLocales(catalog *i18n.Catalog) []localeReport {
	reference := catalog.Keys(catalog.Default())
	reports := make([]localeReport, 0, len(catalog.Supported()))
	for _, locale := range catalog.Supported() {
		keys := catalog.Keys(locale)
		r := localeReport{Locale: locale, Keys: len(keys)}
		for _, k := range reference {
			if _, found := slices.BinarySearch(keys, k); !found {
				r.Missing = append(r.Missing, k)
			}
		}
		reports = append(reports, r)
	}
	return reports
}

func printLocaleReports(out io.Writer, reference string, reports []localeReport, verbose bool) error {
	if err := writef(out, "Reference locale: %s\n\n", reference); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if err := writef(tw, "Locale\tKeys\tMissing\n"); err != nil {
		return fmt.Errorf("write locale header: %w", err)
	}
	for _, r := range reports {
		if err := writef(tw, "%s\t%d\t%d\n", r.Locale, r.Keys, len(r.Missing)); err != nil {
			return fmt.Errorf("write locale row %q: %w", r.Locale, err)
		}
		if verbose && len(r.Missing) > 0 {
			if err := writef(tw, "  missing\t%s\t\n", strings.Join(r.Missing, ", ")); err != nil {
				return fmt.Errorf("write missing keys for %q: %w", r.Locale, err)
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush locale report: %w", err)
	}
	return nil
}
