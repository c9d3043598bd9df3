package main

import (
	"log"
	"os"

	config "github.com/NordCoder/SiteStatus/internal/config/sitestatus"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	flag "github.com/spf13/pflag"
)

func main() {
	cfgPath := flag.StringP("config", "c", "config/sitestatus.yaml", "path to the YAML config")
	dir := flag.StringP("dir", "d", "migrations", "migrations directory")
	cmd := flag.String("cmd", "up", "goose command: up, down, status")
	flag.Parse()

	dbURL := os.Getenv("DB_DSN")
	if dbURL == "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		dbURL = cfg.DB.DSN
	}
	if dbURL == "" {
		log.Fatal("DB_DSN is empty")
	}

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("set dialect: %v", err)
	}
	db, err := goose.OpenDBWithDriver("pgx", dbURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := goose.Run(*cmd, db, *dir); err != nil {
		log.Fatalf("migrate %s: %v", *cmd, err)
	}
	log.Printf("migrations: %s OK", *cmd)
}
