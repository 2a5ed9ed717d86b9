package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"

	"github.com/SusanAcharya/f1-simulation/config"
	"github.com/SusanAcharya/f1-simulation/server"
	"github.com/SusanAcharya/f1-simulation/sim"
	"github.com/SusanAcharya/f1-simulation/store"
)

func main() {
	cfg := config.Load()

	db, err := store.Open(cfg.BadgerDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open db")
	}

	reporter := server.NewBackendReporter(cfg.BackendURL)
	coord := sim.NewCoordinator(db, db, reporter)

	if cfg.Demo {
		coord.InitializeRace(sim.RaceInfo{
			ID:        ksuid.New().String(),
			TotalLaps: cfg.TotalLaps,
		}, server.DemoEntrants(6))
		log.Info().Msg("demo race initialized")
	}

	srv := server.New(coord, db)

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Router()}
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("f1sim listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	coord.Destroy()
	if err := httpServer.Close(); err != nil {
		log.Err(err).Msg("failed to close http server")
	}
	if err := db.Close(); err != nil {
		log.Err(err).Msg("failed to close badger db")
	}
	log.Info().Msg("f1sim stopped")
}
