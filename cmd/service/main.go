package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/professionals-service/internal/config"
	"gitlab.com/dirk.krummacker/professionals-service/internal/logging"
	"gitlab.com/dirk.krummacker/professionals-service/internal/service"
	"gitlab.com/dirk.krummacker/professionals-service/internal/store"
)

// Usage examples on the command line:
// > PORT=8080 DBUSER=dirk DBPWD=bullo92 GIN_MODE=release GIN_LOGGING=OFF go run main.go
// > DB_DRIVER=sqlite DB_DSN=professionals.db DB_AUTOMIGRATE=true go run main.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	migrate := cfg.AutoMigrate || cfg.InMemory()
	s, err := store.Connect(ctx, store.Dialect(cfg.DBDriver), cfg.DSN(), migrate)
	if err != nil {
		log.Fatal("could not open the database", "driver", cfg.DBDriver, "error", err)
	}
	defer s.Close()
	log.Info("database ready", "driver", cfg.DBDriver, "schema_created", migrate)

	router := service.New(s, log).SetupHttpRouter(cfg)
	if err := router.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatal("HTTP server stopped", "error", err)
	}
}
