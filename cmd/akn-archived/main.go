// Command akn-archived serves an archive over gRPC.
//
// The served store is either a single localfs directory (--dir) or the
// archive section of a configuration file (--config).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"xdao.co/akn/config"
	"xdao.co/akn/storage"
	"xdao.co/akn/storage/grpccas"
	"xdao.co/akn/storage/localfs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, errOut io.Writer) int {
	fs := flag.NewFlagSet("akn-archived", flag.ContinueOnError)
	fs.SetOutput(errOut)
	listen := fs.String("listen", "127.0.0.1:7070", "listen address")
	dir := fs.String("dir", "", "serve a localfs archive rooted here")
	configPath := fs.String("config", "", "serve the archive described by this configuration file")
	maxMsgBytes := fs.Int("max-msg-bytes", 0, "maximum message size in bytes (0: gRPC default)")
	verbose := fs.Bool("verbose", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(errOut, "unexpected arguments: %v\n", fs.Args())
		return 2
	}
	if (*dir == "") == (*configPath == "") {
		fmt.Fprintln(errOut, "exactly one of --dir or --config is required")
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	cas, closeFn, err := openCAS(ctx, *dir, *configPath)
	if err != nil {
		logger.Error("open archive", "error", err)
		return 2
	}
	defer func() {
		if err := closeFn(); err != nil {
			logger.Warn("close archive", "error", err)
		}
	}()

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		logger.Error("listen", "error", err)
		return 1
	}

	var opts []grpc.ServerOption
	if *maxMsgBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(*maxMsgBytes), grpc.MaxSendMsgSize(*maxMsgBytes))
	}
	if err := serve(ctx, lis, cas, logger, opts...); err != nil {
		logger.Error("serve", "error", err)
		return 1
	}
	return 0
}

func openCAS(ctx context.Context, dir, configPath string) (storage.CAS, func() error, error) {
	if dir != "" {
		cas, err := localfs.New(dir)
		return cas, func() error { return nil }, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	archive, closeFn, err := cfg.OpenArchive(ctx)
	if err != nil {
		return nil, nil, err
	}
	return archive.CAS, closeFn, nil
}

// serve runs the archive service on lis until ctx is done, then stops
// gracefully.
func serve(ctx context.Context, lis net.Listener, cas storage.CAS, logger *slog.Logger, opts ...grpc.ServerOption) error {
	srv := grpccas.NewServer(cas, logger, opts...)

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(lis) }()
	logger.Info("listening", "addr", lis.Addr().String(), "service", grpccas.ServiceName)

	select {
	case err := <-errc:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		srv.GracefulStop()
		<-errc
		return nil
	}
}
