package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AIRF0X788/Op-V2/internal/common"
	"github.com/AIRF0X788/Op-V2/internal/config"
	"github.com/AIRF0X788/Op-V2/internal/ui"
	"github.com/AIRF0X788/Op-V2/internal/ui/spectate"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	url := flag.String("url", "", "Server websocket URL (empty to use viewer.server_url)")
	code := flag.String("room", "", "Room code to spectate")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	cfg := config.Get().Viewer
	if *url == "" {
		*url = cfg.ServerURL
	}
	if !common.ValidateRoomCode(*code) {
		log.Fatal().Str("room", *code).Msg("A six character room code is required (-room)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	state := spectate.NewState()
	client, err := spectate.Dial(ctx, *url, common.NormalizeRoomCode(*code), state, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect")
	}
	defer client.Close()

	viewer := ui.NewViewer(state, client, cfg.Width, cfg.Height, cfg.CellSize)
	go func() {
		<-client.Done()
		if err := client.Err(); err != nil {
			viewer.SetStatus("disconnected: " + err.Error())
		} else {
			viewer.SetStatus("disconnected")
		}
	}()

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title + " - " + common.NormalizeRoomCode(*code))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(viewer); err != nil {
		log.Fatal().Err(err).Msg("Viewer stopped")
	}
}
