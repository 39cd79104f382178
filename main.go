package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/snaptodo/snaptodo/config"
	"github.com/snaptodo/snaptodo/log"
	"github.com/snaptodo/snaptodo/server"
)

func main() {
	cfg := config.Get()

	srv, err := server.New()
	if err != nil {
		log.Fatal().Err(err).Msg("server initialization failed")
	}

	go func() {
		printNetworkAddresses(cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	log.Info().Msg("server stopped")
}

// printNetworkAddresses logs the non-loopback addresses the server is
// reachable on, for pairing the capture agent.
func printNetworkAddresses(port int) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok {
				if ip4 := ipnet.IP.To4(); ip4 != nil {
					log.Info().Str("url", fmt.Sprintf("http://%s:%d", ip4.String(), port)).Msg("network")
				}
			}
		}
	}
}
