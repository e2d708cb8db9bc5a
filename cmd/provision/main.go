package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"sport_sessions/internal/config"
	"sport_sessions/internal/logger"
	"sport_sessions/internal/middleware"
	"sport_sessions/internal/store"
	"sport_sessions/internal/tools/provision"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logrus.Fatal(err)
	}
}

func run(args []string) error {
	pcfg, err := provision.ParseConfig(flag.CommandLine, args)
	if err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := config.OpenDB(cfg, logger.GormLogger())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	s := store.New(db)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OpTimeout)
	defer cancel()
	if err := provision.Run(ctx, pcfg, s, middleware.NewAuthenticator(cfg.JWTSecret), os.Stdout); err != nil {
		return fmt.Errorf("provision user: %w", err)
	}
	return nil
}
