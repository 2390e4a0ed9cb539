package serve

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/book-rank-monitor/internal/common"
	"github.com/dtnitsch/book-rank-monitor/internal/db"
)

func ServeAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	database, err := db.OpenDatabase(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer database.Close()

	srv := &http.Server{
		Addr:              c.String("addr"),
		Handler:           NewRouter(database, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard API listening", "addr", srv.Addr, "db_path", database.Path())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("dashboard API stopped")
	return nil
}
