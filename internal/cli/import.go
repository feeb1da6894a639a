package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/catalog/internal/config"
	"github.com/roach88/catalog/internal/ingest"
	"github.com/roach88/catalog/internal/logging"
	"github.com/roach88/catalog/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	DBPath string
}

// ImportedFile is the result for one manifest.
type ImportedFile struct {
	Path      string           `json:"path"`
	Artifacts []store.Appended `json:"artifacts"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <manifest>...",
		Short: "Append artifact versions from manifests",
		Long: `Append a new version of every artifact in each manifest.

Manifests are CUE (.cue), YAML (.yaml, .yml) or JSON (.json). Each file is
validated completely and appended in one transaction; files are processed
in order and the command stops at the first failing file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "database path (default: database.path from config)")
	return cmd
}

func runImport(cmd *cobra.Command, opts *ImportOptions, paths []string) error {
	out := &Output{Format: opts.Format, W: cmd.OutOrStdout()}

	// Importing needs no cursor key or site, so the full server validation
	// is skipped.
	dbPath := opts.DBPath
	if dbPath == "" {
		v, err := config.NewViper(opts.ConfigPath)
		if err != nil {
			return out.Fail(ExitCommandError, err)
		}
		dbPath = v.GetString("database.path")
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logging.New(logging.Options{Level: level, Out: cmd.ErrOrStderr()})
	if err != nil {
		return out.Fail(ExitCommandError, err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return out.Fail(ExitCommandError, err)
	}
	defer st.Close()

	imp := ingest.NewImporter(st, log)
	results := make([]ImportedFile, 0, len(paths))
	for _, path := range paths {
		appended, err := imp.ImportFile(cmd.Context(), path)
		if err != nil {
			return out.Fail(ExitFailure, err)
		}
		results = append(results, ImportedFile{Path: path, Artifacts: appended})
	}

	return out.Result(results, func(w io.Writer) {
		for _, r := range results {
			for _, a := range r.Artifacts {
				fmt.Fprintf(w, "%s: %s v%d\n", r.Path, a.ArtifactID, a.Version)
			}
		}
	})
}
