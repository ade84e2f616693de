package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/flowday/internal/admin"
	"github.com/sadopc/flowday/internal/auth"
	"github.com/sadopc/flowday/internal/config"
	"github.com/sadopc/flowday/internal/localstore"
	"github.com/sadopc/flowday/internal/remote"
	"github.com/sadopc/flowday/internal/state"
	"github.com/sadopc/flowday/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath, err = localstore.DefaultDBPath()
		if err != nil {
			return err
		}
	}

	store, err := localstore.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()
	local := localstore.NewAdapter(store)

	var client *remote.Client
	if cfg.RemoteConfigured() {
		client = remote.New(cfg.RemoteURL, cfg.RemoteKey)
	}

	mgr := auth.NewManager(client, local)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mgr.Restore(ctx)
	cancel()

	clock := state.NewDayClock()
	if day := state.LastActiveDay(local); day != "" {
		clock = state.NewDayClockAt(day)
	}

	env := state.Env{
		Local: local,
		Clock: clock,
		Users: mgr,
	}
	if client != nil {
		env.Remote = client
	}

	slots, err := tui.NewSlotSet(env, cfg.Debounce)
	if err != nil {
		return err
	}
	defer slots.Close()

	rcfg := state.RolloverConfig{
		Clock:    clock,
		Local:    local,
		Scores:   store,
		Interval: cfg.PollEvery,
	}
	if client != nil {
		rcfg.Archiver = client
	}
	rollover := state.NewRollover(rcfg)

	app := tui.NewApp(tui.Deps{
		Slots:    slots,
		Store:    store,
		Auth:     mgr,
		Admin:    admin.NewService(client),
		Rollover: rollover,
		Config:   cfg,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	rollover.OnFreshStart = func(day string) {
		p.Send(tui.FreshStartMsg{Day: day})
	}
	rollover.Start()
	defer rollover.Stop()

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
