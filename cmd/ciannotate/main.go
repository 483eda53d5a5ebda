package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/ciannotate/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/ciannotate/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/ciannotate/internal/adapter/driving/cli"
	"github.com/ericfisherdev/ciannotate/internal/config"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

func main() {
	root := cli.NewRootCommand(cli.Deps{
		NewPublisher: newPublisher,
		OpenStore:    openStore,
	})

	if err := root.ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, cli.ErrTestsFailed) {
			os.Exit(2)
		}
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// newPublisher creates the GitHub client, targeting GitHub Enterprise when an
// API URL is configured.
func newPublisher(cfg *config.Config) (driven.CheckPublisher, error) {
	if cfg.GitHubAPIURL != "" && cfg.GitHubAPIURL != "https://api.github.com" {
		client, err := githubadapter.NewEnterpriseClient(cfg.GitHubToken, cfg.GitHubAPIURL)
		if err != nil {
			return nil, err
		}
		slog.Info("github enterprise client created", "api_url", cfg.GitHubAPIURL)
		return client, nil
	}
	return githubadapter.NewClient(cfg.GitHubToken), nil
}

// openStore opens the SQLite run history and applies migrations.
func openStore(ctx context.Context, path string) (driven.RunStore, io.Closer, error) {
	db, err := sqliteadapter.NewDB(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	slog.Debug("migrations complete", "path", path)

	return sqliteadapter.NewRunRepo(db), db, nil
}
