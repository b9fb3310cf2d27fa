// Command computeimage opens a window and draws an image generated by a compute shader
// onto a full-screen quad every frame until the window is closed.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/Carmen-Shannon/oxy-compute/engine"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer"
	"github.com/Carmen-Shannon/oxy-compute/engine/window"
)

func main() {
	os.Exit(run())
}

func run() int {
	verbose := flag.Bool("v", false, "enable debug logging")
	profile := flag.Bool("profile", false, "log frame rate and memory once per second")
	uncapped := flag.Bool("uncapped", false, "present without vsync when the surface supports it")
	software := flag.Bool("software", false, "force the software fallback adapter")
	limit := flag.Float64("fps", 0, "cap the frame rate (0 = no cap)")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	presentMode := renderer.PresentModeVSync
	if *uncapped {
		presentMode = renderer.PresentModeUncapped
	}

	win := window.NewWindow(
		window.WithTitle(window.DefaultTitle),
		window.WithWidth(window.DefaultWidth),
		window.WithHeight(window.DefaultHeight),
	)

	eng, err := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithImageSize(window.DefaultWidth, window.DefaultHeight),
		engine.WithPresentMode(presentMode),
		engine.WithForceSoftwareRenderer(*software),
		engine.WithProfiling(*profile),
		engine.WithRenderFrameLimit(*limit),
	)
	if err != nil {
		common.Logger().Error("startup failed", "err", err)
		_ = win.Close()
		return 1
	}
	defer eng.Release()

	if err := eng.Run(); err != nil {
		common.Logger().Error("stopped", "err", err, "frames", eng.Frames())
		return 1
	}
	return 0
}
