package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/larderapp/larder/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	bind := flag.String("bind", "127.0.0.1:7433", "listen address")
	dbPath := flag.String("db", "larder.db", "sqlite database path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := server.OpenSQLite(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "larderd: %v\n", err)
		return 1
	}
	defer store.Close()

	srv := &http.Server{
		Addr:    *bind,
		Handler: server.New(store).Handler(),
		// Long-poll watches hold requests open for up to 30s; the write
		// timeout must clear that.
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      45 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("larderd listening on %s (db %s)", *bind, *dbPath)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "larderd: shutdown: %v\n", err)
			return 1
		}
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "larderd: %v\n", err)
			return 1
		}
	}
	return 0
}
