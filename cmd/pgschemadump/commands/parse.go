package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ALE-Terry/pg-schema-dump-parser/internal/config"
	"github.com/ALE-Terry/pg-schema-dump-parser/internal/dump"
	"github.com/ALE-Terry/pg-schema-dump-parser/internal/pg"
	"github.com/ALE-Terry/pg-schema-dump-parser/internal/splitter"
)

// NewParseCmd builds and returns the 'parse' cobra command.
func NewParseCmd() *cobra.Command {
	var directory, configFile string

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Dump the database schema and split it into per-object files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bind the cobra flags into viper so they can be read uniformly.
			if err := viper.BindPFlag("directory", cmd.Flags().Lookup("directory")); err != nil {
				return err
			}
			if err := viper.BindPFlag("configfile", cmd.Flags().Lookup("configfile")); err != nil {
				return err
			}
			return runParse(cmd.Context(), viper.GetString("directory"), viper.GetString("configfile"))
		},
	}

	cmd.Flags().StringVarP(&directory, "directory", "d", "", "Directory to drop the schema files into")
	cmd.Flags().StringVarP(&configFile, "configfile", "c", "", "Database configuration file")
	cobra.CheckErr(cmd.MarkFlagRequired("directory"))
	cobra.CheckErr(cmd.MarkFlagRequired("configfile"))
	return cmd
}

// runParse is the entry point for the parse command.
func runParse(ctx context.Context, directory, configFile string) error {
	log.Debug().Str("directory", directory).Str("configfile", configFile).Msg("parse started")

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client, err := pg.Open(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	// Previous output is wiped up front: the tree is a clean re-derivation
	// of the current database state.
	tree := dump.NewTree(directory)
	if err := tree.Clean(); err != nil {
		return err
	}

	start := time.Now()
	log.Info().
		Str("database", cfg.Postgres.Database).
		Str("host", cfg.Postgres.Host).
		Msg("started parser")

	stream, err := client.StartDump(ctx)
	if err != nil {
		return err
	}
	warnings, runErr := splitter.Run(ctx, client, tree, pg.FilterDump(stream))
	if cerr := stream.Close(); runErr == nil && cerr != nil {
		runErr = cerr
	}
	if runErr != nil {
		return runErr
	}

	elapsed := time.Since(start)

	serverVersion, err := client.ServerVersion(ctx)
	if err != nil {
		return err
	}
	dumpVersion, err := pg.DumpVersion()
	if err != nil {
		return err
	}

	meta := dump.Metadata{
		DatabaseVersion: serverVersion,
		PgDumpVersion:   dumpVersion,
		DatabaseName:    cfg.Postgres.Database,
		DatabaseHost:    cfg.Postgres.Host,
		Warnings:        warnings > 0,
	}
	if err := tree.WriteMetadata(pg.ApplicationName, time.Now(), elapsed, meta); err != nil {
		return err
	}

	if warnings > 0 {
		log.Info().Int("warnings", warnings).Dur("elapsed", elapsed).Msg("schema parsing completed with warnings")
	} else {
		log.Info().Dur("elapsed", elapsed).Msg("schema parsing completed with no errors")
	}
	return nil
}
