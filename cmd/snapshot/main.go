// Command snapshot runs the compute shader without a window, checks the result against the CPU
// reference gradient and writes it to a PNG file.
//
// It exits with status 1 if two consecutive dispatches differ or if any channel is further than
// the tolerance from the reference.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/Carmen-Shannon/oxy-compute/engine/gradient"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer"
	"github.com/Carmen-Shannon/oxy-compute/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-compute/engine/stage"
)

func main() {
	os.Exit(run())
}

func run() int {
	out := flag.String("o", "compute_image.png", "output PNG path")
	width := flag.Uint("width", 512, "image width")
	height := flag.Uint("height", 512, "image height")
	tolerance := flag.Uint("tolerance", 1, "largest allowed per-channel difference from the reference")
	software := flag.Bool("software", false, "force the software fallback adapter")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := snapshot(*out, uint32(*width), uint32(*height), uint8(min(*tolerance, 255)), *software); err != nil {
		common.Logger().Error("snapshot failed", "err", err)
		return 1
	}
	return 0
}

func snapshot(path string, width, height uint32, tolerance uint8, software bool) error {
	set, err := shader.NewSet()
	if err != nil {
		return err
	}

	ctx, err := renderer.NewContext(nil, int(width), int(height), renderer.WithForceSoftwareRenderer(software))
	if err != nil {
		return err
	}
	defer ctx.Release()

	compute, err := stage.NewComputeStage(ctx, set, width, height)
	if err != nil {
		return err
	}
	defer compute.Release()

	first, err := dispatchAndRead(ctx, compute)
	if err != nil {
		return err
	}
	second, err := dispatchAndRead(ctx, compute)
	if err != nil {
		return err
	}
	if !bytes.Equal(first, second) {
		return fmt.Errorf("consecutive dispatches produced different images")
	}

	img, err := gradient.FromPixels(first, int(width), int(height))
	if err != nil {
		return err
	}
	diff, err := gradient.Compare(img, gradient.Render(int(width), int(height)), tolerance)
	if err != nil {
		return err
	}
	common.Logger().Info("compared with reference", "max_delta", diff.MaxDelta, "mismatches", diff.Mismatches)
	if !diff.Equal() {
		return fmt.Errorf("%d pixels differ from the reference by more than %d, first at %v", diff.Mismatches, tolerance, diff.First)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	common.Logger().Info("snapshot written", "path", path, "width", width, "height", height)
	return nil
}

func dispatchAndRead(ctx *renderer.Context, compute *stage.ComputeStage) ([]byte, error) {
	encoder, err := ctx.NewCommandEncoder("snapshot")
	if err != nil {
		return nil, err
	}
	w, h := compute.Size()
	compute.Dispatch(encoder, w, h)
	if err := ctx.Submit(encoder); err != nil {
		return nil, err
	}
	return ctx.ReadTexture(compute.Image(), w, h)
}
