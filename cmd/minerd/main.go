package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/beancore/beanminer/internal/api"
	"github.com/beancore/beanminer/internal/api/handlers"
	"github.com/beancore/beanminer/internal/config"
	"github.com/beancore/beanminer/internal/miner"
	"github.com/beancore/beanminer/internal/models"
	"github.com/beancore/beanminer/internal/rpc"
	"github.com/beancore/beanminer/internal/storage"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	heightFlag := flag.Int64("height", 0, "Fetch and print the header at this height (negative indexes from the tip), then exit")
	hashFlag := flag.String("hash", "", "Fetch and print the header with this hash, then exit")
	flag.Parse()

	heightSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "height" {
			heightSet = true
		}
	})

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// One-shot mode: print a header and exit without starting the server.
	if heightSet || *hashFlag != "" {
		runOneShot(cfg, *heightFlag, *hashFlag)
		return
	}

	log.Println("Starting miner server...")

	// Open the Pebble database
	log.Printf("Opening Pebble database at %s", cfg.Pebble.Path)
	db, err := storage.NewPebbleDB(cfg.Pebble.Path)
	if err != nil {
		log.Fatalf("Failed to open Pebble database: %v", err)
	}
	headerStore := storage.NewHeaderStore(db)
	solutionStore := storage.NewSolutionStore(db)

	// Connect to the chain daemon if configured. The server still runs
	// without it; header lookups then answer from the cache and jobs need a
	// raw header.
	var source handlers.HeaderSource
	var nodeClient *rpc.NodeClient
	if cfg.Node.Enabled {
		nodeClient, err = rpc.NewNodeClient(&cfg.Node)
		if err != nil {
			log.Printf("Warning: Failed to connect to daemon: %v", err)
		} else {
			source = nodeClient
		}
	}

	// Job manager persisting found solutions
	manager := miner.NewManager(func(job miner.Job) {
		sol := &models.Solution{
			HeaderHash: job.Header.BlockHash().String(),
			Nonce:      job.Result.Nonce,
			Digest:     chainhash.Hash(job.Result.Digest).String(),
			Hashes:     job.Result.Hashes,
			Elapsed:    job.FinishedAt.Sub(job.StartedAt).Seconds(),
			FoundAt:    job.FinishedAt,
		}
		if job.Options.Target != nil {
			sol.Target = fmt.Sprintf("%064x", job.Options.Target)
		}
		if err := solutionStore.Save(sol); err != nil {
			log.Printf("Failed to save solution for %s: %v", sol.HeaderHash, err)
		}
	})

	// Initialize API router
	router := api.NewRouter(source, headerStore, solutionStore, manager, cfg.Miner)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Engine(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in goroutine
	go func() {
		log.Printf("HTTP server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	// Stop running search jobs
	manager.Stop()

	if nodeClient != nil {
		nodeClient.Close()
	}

	if err := db.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// runOneShot fetches one header from the daemon and prints it as JSON.
func runOneShot(cfg *config.Config, height int64, hash string) {
	client, err := rpc.NewNodeClient(&cfg.Node)
	if err != nil {
		log.Fatalf("Failed to connect to daemon: %v", err)
	}
	defer client.Close()

	var info *models.HeaderInfo
	if hash != "" {
		hdr, err := client.HeaderByHash(hash)
		if err != nil {
			log.Fatalf("Failed to fetch header %s: %v", hash, err)
		}
		info = models.NewHeaderInfo(hdr, -1)
	} else {
		hdr, resolved, err := client.HeaderByHeight(height)
		if err != nil {
			log.Fatalf("Failed to fetch header at height %d: %v", height, err)
		}
		info = models.NewHeaderInfo(hdr, resolved)
	}

	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode header: %v", err)
	}
	fmt.Println(string(out))
}
