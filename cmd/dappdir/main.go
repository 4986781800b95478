package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"dappdir/cmd/dappdir/cmds"
	"dappdir/internal/api"
	"dappdir/internal/backends"
	"dappdir/internal/directory"
	"dappdir/internal/ports"
	"dappdir/internal/pub"
	"dappdir/internal/revalidate"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const usage = `usage: dappdir <command> [flags]

commands:
  serve                 run the HTTP API (default)
  seed                  upsert the sample records
  put -f <file.yaml>    save one or more records from a YAML file
  get <slug>            print a record as YAML
  list [-featured] [-where <jmespath>]
  delete <slug>
`

func main() {
	// Load environment variables
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	err := godotenv.Load(envFile)
	if err != nil {
		log.Info("The .env file not found.")
	}
	configureLogging()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	command, args := "serve", []string{}
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}
	if command == "help" || command == "-h" || command == "--help" {
		fmt.Print(usage)
		return
	}

	store, err := backends.KVBackendFromEnv(ctx, log.StandardLogger())
	if err != nil {
		log.Fatalf("Failed to initialize record store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("Failed to close record store")
		}
	}()

	dir, err := newDirectory(ctx, store)
	if err != nil {
		log.Fatalf("Failed to initialize directory: %v", err)
	}

	if err := run(ctx, command, args, dir); err != nil {
		log.Errorf("%s: %v", command, err)
		cancel()
		_ = store.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, dir *directory.Service) error {
	switch command {
	case "serve":
		return serve(ctx, dir)
	case "seed":
		return cmds.Seed(ctx, dir, os.Stdout)
	case "put":
		fs := flag.NewFlagSet("put", flag.ExitOnError)
		file := fs.String("f", "", "YAML file with one record or a list of records")
		_ = fs.Parse(args)
		if *file == "" {
			return fmt.Errorf("put requires -f <file>")
		}
		return cmds.PutRecords(ctx, dir, *file, os.Stdout)
	case "get":
		if len(args) != 1 {
			return fmt.Errorf("get requires exactly one slug")
		}
		return cmds.GetRecord(ctx, dir, args[0], os.Stdout)
	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		featured := fs.Bool("featured", false, "only featured records")
		where := fs.String("where", "", "JMESPath filter evaluated per record")
		_ = fs.Parse(args)
		return cmds.ListRecords(ctx, dir, *featured, *where, os.Stdout)
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("delete requires exactly one slug")
		}
		return cmds.DeleteRecord(ctx, dir, args[0], os.Stdout)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func serve(ctx context.Context, dir *directory.Service) error {
	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", p, err)
		}
		port = n
	}

	gw := revalidate.NewGateway(revalidate.Config{
		FrontendURL: os.Getenv("FRONTEND_URL"),
		Secret:      os.Getenv("REVALIDATE_SECRET"),
	}, &http.Client{}, log.StandardLogger())
	if u, hasSecret := gw.Configured(); u == "" || !hasSecret {
		log.Warn("FRONTEND_URL or REVALIDATE_SECRET not set, revalidation is disabled")
	}

	stop, done := api.RunServerInterruptible(port, api.NewHandler(dir, gw))
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		log.Info("Shutting down")
		stop <- struct{}{}
		return <-done
	}
}

func newDirectory(ctx context.Context, store ports.KVStore) (*directory.Service, error) {
	codec, err := directory.NewCodec(os.Getenv("RECORD_CODEC"))
	if err != nil {
		return nil, err
	}
	opts := []directory.Option{
		directory.WithCodec(codec),
		directory.WithLogger(log.StandardLogger()),
	}
	if c := os.Getenv("LIST_FETCH_CONCURRENCY"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid LIST_FETCH_CONCURRENCY %q", c)
		}
		opts = append(opts, directory.WithFetchConcurrency(n))
	}
	if topic := os.Getenv("SNS_TOPIC_ARN"); topic != "" {
		p, err := snsPublisher(ctx, topic)
		if err != nil {
			return nil, err
		}
		opts = append(opts, directory.WithPublisher(p))
	}
	return directory.NewService(store, opts...), nil
}

func snsPublisher(ctx context.Context, topic string) (ports.Publisher, error) {
	awsCfg, err := backends.AWSConfig(ctx, os.Getenv("SNS_ENDPOINT"))
	if err != nil {
		return nil, err
	}
	return pub.NewSNS(sns.NewFromConfig(awsCfg), topic), nil
}

func configureLogging() {
	if lvl, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}
	if os.Getenv("LOG_FORMAT") == "json" {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
}
