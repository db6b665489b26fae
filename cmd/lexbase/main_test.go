package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newTestContext(t *testing.T, logLevel string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("log-level", logLevel, "")
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetupLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "INFO", "Debug"} {
		t.Run(level, func(t *testing.T) {
			err := setupLogger(newTestContext(t, level))
			assert.NoError(t, err)
		})
	}

	t.Run("invalid level", func(t *testing.T) {
		err := setupLogger(newTestContext(t, "verbose"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestIngestCommandRequiresSourceArg(t *testing.T) {
	app := &cli.App{
		Name: "lexbase",
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: ingestCommand,
			},
		},
	}

	err := app.Run([]string{"lexbase", "ingest"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source file")
}

func TestSearchCommandRequiresQuery(t *testing.T) {
	app := &cli.App{
		Name: "lexbase",
		Commands: []*cli.Command{
			{
				Name:   "search",
				Action: searchCommand,
			},
		},
	}

	err := app.Run([]string{"lexbase", "search"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}

func TestIngestThenCount(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db")
	sourcePath := filepath.Join(dir, "articles.xml")

	articles := `<?xml version="1.0" encoding="UTF-8"?>
<knowledgeExport>
  <article id="art-001">
    <title>Appointing a Legal Representative</title>
    <body>An authorized representative may act on behalf of a claimant with written
authorization and consent. Appeals go before the tribunal for reconsideration
under the Employment Insurance Act, s. 29, as discussed in Smith v. Canada
(AG), 2023 SST 123. This document explains the procedure step-by-step.</body>
  </article>
  <article id="art-002">
    <title>Office Plant Care</title>
    <body>Water the ficus twice weekly and rotate it toward the window. Dust the
leaves monthly so they keep photosynthesizing through the winter season here.</body>
  </article>
</knowledgeExport>`
	require.NoError(t, os.WriteFile(sourcePath, []byte(articles), 0o644))

	app := &cli.App{
		Name:   "lexbase",
		Before: setupLogger,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "error"},
			&cli.StringFlag{Name: "config"},
		},
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Aliases: []string{"d"}},
					&cli.StringFlag{Name: "tenant", Aliases: []string{"t"}},
					&cli.StringFlag{Name: "ingested-by"},
					&cli.BoolFlag{Name: "relevant-only"},
					&cli.IntFlag{Name: "batch-size"},
				},
			},
			{
				Name:   "count",
				Action: countCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Aliases: []string{"d"}},
					&cli.StringFlag{Name: "tenant", Aliases: []string{"t"}},
					&cli.BoolFlag{Name: "include-expired"},
					&cli.BoolFlag{Name: "relevant-only"},
				},
			},
		},
	}

	err := app.Run([]string{
		"lexbase", "ingest",
		"--db", dbPath,
		"--tenant", "tenant-test",
		sourcePath,
	})
	require.NoError(t, err)

	err = app.Run([]string{
		"lexbase", "count",
		"--db", dbPath,
		"--tenant", "tenant-test",
	})
	assert.NoError(t, err)
}

func TestIngestCommandFlagDefaults(t *testing.T) {
	app := &cli.App{
		Name: "lexbase",
		Commands: []*cli.Command{
			{
				Name:   "search",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Aliases: []string{"d"}},
					&cli.IntFlag{Name: "max-hits", Value: 10},
				},
			},
		},
	}

	cmd := app.Commands[0]
	var hitsFlag *cli.IntFlag
	for _, f := range cmd.Flags {
		if intFlag, ok := f.(*cli.IntFlag); ok && intFlag.Name == "max-hits" {
			hitsFlag = intFlag
			break
		}
	}
	require.NotNil(t, hitsFlag)
	assert.Equal(t, 10, hitsFlag.Value)
}
