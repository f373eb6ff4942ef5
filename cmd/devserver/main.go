// Command devserver runs the API on the in-memory store, for working on the
// admin UI without a database.
package main

import (
	"flag"
	"log"

	"taskadmin/internal/logger"
	"taskadmin/internal/server"
	storage "taskadmin/repository/inmemory"
)

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	flag.Parse()

	zl, err := logger.New("debug")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	cfg := server.DefaultConfig()
	cfg.Addr = "127.0.0.1"
	cfg.Port = *port

	mem := storage.NewStorage()
	api := server.NewTaskAPI(mem, mem, mem, cfg, zl)
	if api == nil {
		log.Fatal("failed to create API server")
	}

	log.Printf("dev server with in-memory storage on %s", cfg.ListenAddr())
	log.Fatal(api.Start())
}
