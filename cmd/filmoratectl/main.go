// Command filmoratectl обращается к gRPC API filmorate.
//
//	filmoratectl [-addr host:port] check-film|check-user|film|user <id>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"filmorate/internal/clients"
	"filmorate/internal/logging"

	"github.com/goccy/go-json"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("filmoratectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "localhost:9090", "gRPC address of filmorate")
	timeout := fs.Duration("timeout", 3*time.Second, "per-call timeout")
	logLevel := fs.String("log-level", "warn", "log level")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: filmoratectl [flags] check-film|check-user|film|user <id>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}
	command := fs.Arg(0)
	id, err := strconv.ParseInt(fs.Arg(1), 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(stderr, "id must be a positive integer, got %q\n", fs.Arg(1))
		return 2
	}

	logger := logging.New(logging.Config{Level: *logLevel, Format: "console", Output: stderr})
	cfg := clients.DefaultConfig(*addr)
	cfg.CallTimeout = *timeout
	client, err := clients.NewInterServiceClient(cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer client.Close()

	result, err := execute(context.Background(), client, command, id)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			fmt.Fprintf(stderr, "%s %d not found\n", command, id)
			return 3
		}
		fmt.Fprintln(stderr, err)
		return 1
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintln(stdout, string(out))
	return 0
}

// interClient методы клиента, которые использует утилита.
type interClient interface {
	CheckFilmExists(ctx context.Context, filmID int64) (bool, error)
	CheckUserExists(ctx context.Context, userID int64) (bool, error)
	GetFilmInfo(ctx context.Context, filmID int64) (map[string]any, error)
	GetUser(ctx context.Context, userID int64) (map[string]any, error)
}

func execute(ctx context.Context, client interClient, command string, id int64) (any, error) {
	switch command {
	case "check-film":
		exists, err := client.CheckFilmExists(ctx, id)
		return map[string]any{"id": id, "exists": exists}, err
	case "check-user":
		exists, err := client.CheckUserExists(ctx, id)
		return map[string]any{"id": id, "exists": exists}, err
	case "film":
		return client.GetFilmInfo(ctx, id)
	case "user":
		return client.GetUser(ctx, id)
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}

var _ interClient = (*clients.InterServiceClient)(nil)
