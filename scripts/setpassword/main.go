// Command setpassword stores a bcrypt hash of the admin panel password in
// bot_config. Run it once during deployment:
//
//	go run ./scripts/setpassword -password 'your-admin-password'
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/lorenzocolitta/brotherhood-kos/internal/repository"
	"github.com/lorenzocolitta/brotherhood-kos/internal/service"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/config"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/database"
)

func main() {
	password := flag.String("password", "", "new admin password (min 8 characters)")
	flag.Parse()

	if *password == "" {
		log.Fatal("usage: setpassword -password <new password>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	admin := service.NewAdminService(repository.NewConfigRepository(db), repository.NewLogRepository(db), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := admin.SetPassword(ctx, *password); err != nil {
		log.Fatalf("failed to set admin password: %v", err)
	}
	log.Println("admin password updated")
}
