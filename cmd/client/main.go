package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/farmsync/internal/client/client"
	"github.com/dmitrijs2005/farmsync/internal/client/config"
	"github.com/dmitrijs2005/farmsync/internal/flagx"
	"github.com/dmitrijs2005/farmsync/internal/rpc"
)

// Usage:
//
//	client -t TOKEN -f batch.json     submit a batch and wait for its results
//	client -t TOKEN -job JOB_ID       print the status of an existing job
//
// batch.json has the same shape as the SubmitBatch request:
// {"farmers": [...], "last_sync": "..."}.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var batchFile, jobID string
	var noWait bool
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&batchFile, "f", "", "batch file to submit")
	fs.StringVar(&jobID, "job", "", "job to report on")
	fs.BoolVar(&noWait, "no-wait", false, "return right after submitting")
	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], "f", "job", "no-wait")); err != nil {
		log.Fatalf("flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := client.NewGRPCClient(cfg.ServerEndpointAddr, cfg.AccessToken, cfg.RequestTimeout)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer c.Close()

	if jobID == "" {
		if batchFile == "" {
			log.Fatal("either -f or -job is required")
		}
		jobID = submit(ctx, c, batchFile)
		if noWait {
			fmt.Println(jobID)
			return
		}
	}

	job, err := c.WaitDone(ctx, jobID, cfg.PollInterval)
	if err != nil {
		log.Fatalf("status: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(job); err != nil {
		log.Fatalf("print: %v", err)
	}
}

func submit(ctx context.Context, c *client.GRPCClient, path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read batch: %v", err)
	}

	var req rpc.SubmitBatchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Fatalf("parse batch: %v", err)
	}

	id, total, err := c.Submit(ctx, req.Records, req.LastSync)
	if err != nil {
		log.Fatalf("submit: %v", err)
	}
	log.Printf("submitted job %s with %d records", id, total)
	return id
}
