package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"

	"github.com/calltime/slate/pkg/api"
	"github.com/calltime/slate/pkg/config"
	"github.com/calltime/slate/pkg/log"
	"github.com/calltime/slate/pkg/poll"
	"github.com/calltime/slate/pkg/saved"
	"github.com/calltime/slate/pkg/search"
	"github.com/calltime/slate/pkg/storage"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the search API server",
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"))
		},
	}
}

// instance bundles everything one running server owns, so a config reload
// can tear it down and bring up a replacement.
type instance struct {
	cfg     *config.Config
	store   *storage.Store
	manager *saved.Manager
	srv     *http.Server
	poller  *poll.Poller
	errCh   chan error
}

func startInstance(cfg *config.Config) (*instance, error) {
	logger := log.ForComponent("serve")

	store, err := storage.Open(dbPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	manager := saved.NewManager(store)
	server := api.NewServer(store, search.NewService(store), manager, api.Options{
		QuietMs:        int(cfg.Search.Debounce.Duration / time.Millisecond),
		MinQueryLength: cfg.Search.MinQueryLength,
		Limit:          cfg.Search.Limit,
	})

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	poller := poll.New()
	poller.Add(poll.Task{
		Name:     "optimize",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			return store.Optimize()
		},
	})
	poller.Add(poll.Task{
		Name:     "saved-refresh",
		Interval: cfg.Saved.RefreshInterval.Duration,
		Run: func(ctx context.Context) error {
			searches, err := manager.List(ctx, identityFromConfig(cfg))
			if err != nil {
				return err
			}
			logger.Debugf("saved-search refresh: %d visible", len(searches))
			return nil
		},
	})
	poller.Add(poll.Task{
		Name:     "stats-refresh",
		Interval: time.Minute,
		Run: func(ctx context.Context) error {
			stats, err := store.GetStats()
			if err != nil {
				return err
			}
			logger.Debugf("index: %d records, %d saved searches", stats.TotalRecords, stats.SavedSearches)
			return nil
		},
	})
	poller.Start()

	inst := &instance{
		cfg:     cfg,
		store:   store,
		manager: manager,
		poller:  poller,
		srv: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           api.CorsMiddleware(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		errCh: make(chan error, 1),
	}

	go func() {
		logger.Infof("listening on http://%s", cfg.ListenAddr)
		if err := inst.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			inst.errCh <- err
		}
	}()

	return inst, nil
}

func (i *instance) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := i.srv.Shutdown(ctx); err != nil {
		fmt.Printf("Warning: server shutdown: %v\n", err)
	}
	i.poller.Stop()
	i.manager.Wait()
	if err := i.store.Close(); err != nil {
		fmt.Printf("Warning: closing store: %v\n", err)
	}
}

func serve(ctx context.Context, configPath string) error {
	logger := log.ForComponent("serve")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	inst, err := startInstance(cfg)
	if err != nil {
		return err
	}
	defer func() { inst.shutdown() }()

	// Signal handling, including SIGHUP for reload.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	fmt.Println("Server started. Press Ctrl+C to stop, send SIGHUP to reload, or modify the config file for automatic reload.")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("failed to create config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnf("failed to close config file watcher: %v", err)
			}
		}()
		if err := watcher.Add(configPath); err != nil {
			logger.Warnf("failed to watch config file %s: %v", configPath, err)
		} else {
			logger.Infof("watching config file for changes: %s", configPath)
		}
	}

	reload := func() {
		newCfg, err := config.LoadConfig(configPath)
		if err != nil {
			logger.Errorf("reload failed, keeping current configuration: %v", err)
			return
		}
		newInst, err := startInstance(newCfg)
		if err != nil {
			logger.Errorf("reload failed, keeping current configuration: %v", err)
			return
		}
		inst.shutdown()
		inst = newInst
		logger.Infof("configuration reloaded")
	}

	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				logger.Infof("received SIGHUP, reloading configuration")
				reload()
			case syscall.SIGINT, syscall.SIGTERM:
				fmt.Println("\nShutting down...")
				return nil
			}

		case err := <-inst.errCh:
			return fmt.Errorf("server failed: %w", err)

		case event, ok := <-watcher.Events:
			if !ok {
				continue
			}
			// Editors often replace files atomically, so rename and
			// remove count as changes too.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				logger.Infof("config file changed (%s), reloading", event.Op)

				if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
					time.Sleep(200 * time.Millisecond)
					if _, err := os.Stat(configPath); os.IsNotExist(err) {
						logger.Warnf("config file removed and not replaced, skipping reload")
						continue
					}
					if err := watcher.Add(configPath); err != nil {
						logger.Warnf("failed to re-watch config file: %v", err)
					}
				} else {
					time.Sleep(100 * time.Millisecond)
				}

				reload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				continue
			}
			logger.Warnf("config file watcher error: %v", err)

		case <-ctx.Done():
			return nil
		}
	}
}
