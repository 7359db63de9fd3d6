package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthands/docintel/internal/app"
	"github.com/agenthands/docintel/internal/config"
	"github.com/agenthands/docintel/internal/driver"
	"github.com/agenthands/docintel/internal/server"
)

func main() {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:   "docintel",
		Short: "Document intelligence over a Neo4j knowledge graph",
		Long:  "Ingest documents into Neo4j as vector-indexed chunks and an entity graph, then answer questions about them.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil {
				log.Println("No .env file found, using defaults")
			}
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath(), "Path to the TOML config file")

	rootCmd.AddCommand(createServeCommand(&cfgPath))
	rootCmd.AddCommand(createIngestCommand(&cfgPath))
	rootCmd.AddCommand(createAskCommand(&cfgPath))
	rootCmd.AddCommand(createCheckCommand(&cfgPath))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.toml"
}

// withApp loads the configuration, builds the application and closes it afterwards.
func withApp(ctx context.Context, cfgPath string, fn func(context.Context, *app.App) error) error {
	cfg, err := config.LoadWithDefaults(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))
	return fn(ctx, a)
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func createServeCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and ingestion workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()
			return withApp(ctx, *cfgPath, server.ListenAndServe)
		},
	}
}

func createIngestCommand(cfgPath *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Parse, chunk, extract and store a document synchronously",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			path := args[0]
			if name == "" {
				name = filepath.Base(path)
			}
			return withApp(ctx, *cfgPath, func(ctx context.Context, a *app.App) error {
				res, err := a.Processor.Process(ctx, path, name)
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Source name stored with the chunks (defaults to the file name)")
	return cmd
}

func createAskCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>...",
		Short: "Answer one or more questions from the ingested documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			return withApp(ctx, *cfgPath, func(ctx context.Context, a *app.App) error {
				answers, err := a.Retrieval.AnswerQueries(ctx, args)
				if err != nil {
					return err
				}
				return printJSON(cmd, answers)
			})
		},
	}
}

func createCheckCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify Neo4j connectivity and APOC availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			cfg, err := config.LoadWithDefaults(*cfgPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			d, err := driver.NewNeo4jDriver(ctx, cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, cfg.Neo4j.Database)
			if err != nil {
				return err
			}
			defer d.Close(context.WithoutCancel(ctx))

			if err := driver.CheckAPOC(ctx, d); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Neo4j connection OK, APOC merge procedures available")
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
