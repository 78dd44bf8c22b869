package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/singhparshant/Aggregated-Orderbook/config"
	"github.com/singhparshant/Aggregated-Orderbook/domain"
	"github.com/singhparshant/Aggregated-Orderbook/gen"
	"github.com/singhparshant/Aggregated-Orderbook/metrics"
	"github.com/singhparshant/Aggregated-Orderbook/publish"
	"github.com/singhparshant/Aggregated-Orderbook/rpc"
	"github.com/singhparshant/Aggregated-Orderbook/session"
	"github.com/singhparshant/Aggregated-Orderbook/venue/binance"
	"github.com/singhparshant/Aggregated-Orderbook/venue/bitstamp"
	"google.golang.org/grpc"
)

var logger = log.New(os.Stdout, "[main] ", log.LstdFlags)

func main() {
	cfg := config.Load()
	scale := domain.PriceScale(cfg.PriceScale)

	book := domain.NewBook(cfg.RetentionCap)
	pub := publish.NewPublisher(book, cfg.TopN, scale, 8)
	book.SetOnMutate(pub.Notify)

	pair := cfg.Symbol.Join("")

	binanceAdapter := binance.NewAdapter(binance.Config{
		Pair:            pair,
		WSEndpoint:      cfg.BinanceWSEndpoint,
		RESTEndpoint:    cfg.BinanceRESTEndpoint,
		SnapshotLimit:   1000,
		Scale:           scale,
		SnapshotTimeout: cfg.SnapshotTimeout,
		IdleTimeout:     cfg.WSIdleTimeout,
	})
	bitstampAdapter := bitstamp.NewAdapter(bitstamp.Config{
		Pair:            pair,
		WSEndpoint:      cfg.BitstampWSEndpoint,
		RESTEndpoint:    cfg.BitstampRESTEndpoint,
		Scale:           scale,
		SnapshotTimeout: cfg.SnapshotTimeout,
		IdleTimeout:     cfg.WSIdleTimeout,
	})

	supervisor := session.NewSupervisor(book, binanceAdapter, bitstampAdapter)
	pub.SetOnCrossedBook(supervisor.SignalDesync)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go metrics.Serve(cfg.MetricsAddr)
	go pub.Run(ctx)

	sessionErrs := make(chan error, 1)
	go func() {
		sessionErrs <- supervisor.Run(ctx)
	}()

	grpcServer := grpc.NewServer()
	gen.RegisterOrderbookAggregatorServer(grpcServer, rpc.NewServer(pub))

	lis, err := net.Listen("tcp", cfg.RPCAddr)
	if err != nil {
		logger.Fatalf("failed to listen on %s: %v", cfg.RPCAddr, err)
	}

	go func() {
		logger.Printf("serving BookSummary on %s", cfg.RPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Printf("grpc server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Printf("shutdown signal received")
	case err := <-sessionErrs:
		if err != nil {
			logger.Printf("session supervisor exited with error: %v", err)
		}
	}

	cancel()
	grpcServer.GracefulStop()
}
