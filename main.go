package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"SketchRoom/internal/config"
	sknet "SketchRoom/internal/net"
	"SketchRoom/internal/presence"
	"SketchRoom/internal/relay"
	"SketchRoom/internal/sync"
	"SketchRoom/internal/ui"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		relayMode  = flag.Bool("relay", false, "run the relay server instead of the drawing client")
		addr       = flag.String("addr", "", "relay listen address, overrides config (relay mode)")
		join       = flag.String("join", "", "relay websocket URL, e.g. ws://192.168.1.20:8777/ws; empty discovers one via mDNS")
		room       = flag.String("room", "", "room to join, overrides config")
		name       = flag.String("name", "", "display name, overrides the persisted identity")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *join != "" {
		cfg.RelayURL = *join
	}
	if *room != "" {
		cfg.Room = *room
	}

	if *relayMode {
		runRelay(cfg)
		return
	}
	runClient(cfg, *name)
}

func runRelay(cfg config.Config) {
	logger := log.New(os.Stdout, "[main] ", log.LstdFlags|log.Lmicroseconds)

	srv := relay.NewServer()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.Handler())

	port := listenPort(cfg.ListenAddr)
	if cfg.Advertise {
		ad, err := sknet.Advertise(port)
		if err != nil {
			logger.Printf("mdns advertise failed, clients must use -join: %v", err)
		} else {
			defer ad.Shutdown()
		}
	}

	if ip, err := sknet.OutgoingIP(); err == nil {
		logger.Printf("share link: ws://%s:%d/ws", ip, port)
	}
	logger.Printf("relay listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		logger.Fatalf("relay: %v", err)
	}
}

func runClient(cfg config.Config, nameOverride string) {
	logger := log.New(os.Stdout, "[main] ", log.LstdFlags|log.Lmicroseconds)

	url := cfg.RelayURL
	if url == "" {
		found, err := discoverRelay()
		if err != nil {
			logger.Fatalf("no relay found on the local network, pass -join ws://host:port/ws: %v", err)
		}
		url = found
		logger.Printf("discovered relay at %s", url)
	}

	store, err := presence.NewFileStore(cfg.IdentitiesFile)
	if err != nil {
		logger.Fatalf("identity store: %v", err)
	}
	self, err := presence.LoadOrCreate(store, cfg.Room)
	if err != nil {
		logger.Fatalf("identity: %v", err)
	}
	if nameOverride != "" {
		self.Name = nameOverride
	}
	logger.Printf("joining room %q as %s (%s)", cfg.Room, self.Name, self.ID)

	transport := sknet.Dial(url)
	defer transport.Close()

	ui.RunApp(sync.Config{
		RoomID:         cfg.Room,
		Heartbeat:      cfg.Heartbeat(),
		SweepEvery:     cfg.Sweep(),
		StaleAfter:     cfg.StaleAfter(),
		ReconnectGrace: cfg.ReconnectGrace(),
	}, transport, store, self)
}

// discoverRelay runs one mDNS lookup and returns the first relay seen.
func discoverRelay() (string, error) {
	found := make(chan string, 1)
	err := sknet.Browse(func(addr string) {
		select {
		case found <- addr:
		default:
		}
	})
	select {
	case addr := <-found:
		return "ws://" + addr + "/ws", nil
	default:
	}
	if err != nil {
		return "", err
	}
	return "", fmt.Errorf("no relay answered the lookup")
}

// listenPort extracts the port from a listen address like ":8777" or
// "0.0.0.0:8777".
func listenPort(addr string) int {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return 0
	}
	p, err := strconv.Atoi(addr[i+1:])
	if err != nil {
		return 0
	}
	return p
}
