package main

import (
	"context"
	crypto_tls "crypto/tls"
	"errors"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"remotecontrol/internal/input"
	rclog "remotecontrol/internal/logging"
	"remotecontrol/internal/platform"
	"remotecontrol/internal/server"
	tlsutil "remotecontrol/internal/tls"
)

func main() {
	cfg, err := platform.Load(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	level, err := rclog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	lf := rclog.NewFactory(level, os.Stderr)
	logger := lf.NewLogger(rclog.ScopeServer)

	if cfg.Backend == input.DriverXTest {
		if err := platform.ResolveDisplay(cfg); err != nil {
			log.Fatal(err)
		}
	}

	factory, err := input.NewFactory(cfg.Backend, cfg.Display, lf.NewLogger(rclog.ScopeInput))
	if err != nil {
		log.Fatal(err)
	}
	if err := input.SetDefaultFactory(factory, lf.NewLogger(rclog.ScopeInput)); err != nil {
		log.Fatal(err)
	}
	handle := input.Default()
	// Construct the backend up front so a missing display shows at startup.
	// Failure is not fatal: every event will log it instead.
	if err := handle.Init(); err != nil {
		logger.Errorf("input backend %s: %v", cfg.Backend, err)
	}

	var serverTLSConfig *crypto_tls.Config
	if cfg.TLSCert == "" && cfg.TLS {
		host, _, _ := net.SplitHostPort(cfg.Addr)
		tc, fp, err := tlsutil.SelfSigned(host)
		if err != nil {
			log.Fatalf("self-signed cert: %v", err)
		}
		logger.Infof("self-signed certificate fingerprint: %s", fp)
		serverTLSConfig = tc
	}

	offerTimeout, authFailWindow := cfg.Durations()
	srv := server.New(server.Config{
		Token:        cfg.Token,
		Addr:         cfg.Addr,
		InlineFilter: cfg.InlineFilter,
		AllowWS:      cfg.AllowWS,
		Audio:        cfg.Audio,

		OfferTimeout:   offerTimeout,
		AllowedOrigins: cfg.AllowOrigins,
		AuthFailLimit:  cfg.AuthFailLimit,
		AuthFailWindow: authFailWindow,

		TLSCert: cfg.TLSCert,
		TLSKey:  cfg.TLSKey,
		TLS:     serverTLSConfig,

		LoggerFactory: lf,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatal(err)
	}
	logger.Info("shut down")
}
