//go:build !nogpu

// Command spritedemo renders a self-playing snake game with the sprite
// batcher and logs per-frame statistics.
//
// Frames are drawn into an offscreen target, so the demo runs headless:
//
//	spritedemo -frames 120 -backend noop
//	spritedemo -lr -width 48 -height 32 -backend vulkan -v
//
// Cell textures are generated in memory; files with the same names
// ("snake", "food", "wall") in the asset directory override them.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strconv"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/spritebatch"
	"github.com/gogpu/spritebatch/assets"
	"github.com/gogpu/spritebatch/backend/wgpu"
	"github.com/gogpu/spritebatch/label"
)

const (
	lowResCellSize  = 16
	highResCellSize = 32

	minGrid = 10
	maxGrid = 100
)

type config struct {
	lowRes    bool
	width     int
	height    int
	frames    int
	backend   string
	assetsDir string
	seed      uint64
	verbose   bool
}

func main() {
	var cfg config
	flag.BoolVar(&cfg.lowRes, "lr", false, "enable low resolution rendering")
	flag.IntVar(&cfg.width, "width", 32, "width of the gameplay grid (10-100)")
	flag.IntVar(&cfg.height, "height", 24, "height of the gameplay grid (10-100)")
	flag.IntVar(&cfg.frames, "frames", 60, "number of frames to render")
	flag.StringVar(&cfg.backend, "backend", "noop", "GPU backend: noop or vulkan")
	flag.StringVar(&cfg.assetsDir, "assets", "", "asset directory (default: Assets next to the executable)")
	flag.Uint64Var(&cfg.seed, "seed", 1, "food placement seed")
	flag.BoolVar(&cfg.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	spritebatch.SetLogger(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("spritedemo failed", "err", err)
		os.Exit(1)
	}
}

func (c config) validate() error {
	if c.width < minGrid || c.width > maxGrid {
		return fmt.Errorf("width must be between %d and %d, got %d", minGrid, maxGrid, c.width)
	}
	if c.height < minGrid || c.height > maxGrid {
		return fmt.Errorf("height must be between %d and %d, got %d", minGrid, maxGrid, c.height)
	}
	if c.frames < 1 {
		return errors.New("frames must be positive")
	}
	return nil
}

func (c config) cellSize() float32 {
	if c.lowRes {
		return lowResCellSize
	}
	return highResCellSize
}

// newLoader serves generated textures from memory, with the asset
// directory consulted first so files can replace them.
func newLoader(c config, mem *assets.Memory) assets.Chain {
	dir := assets.DefaultDir()
	if c.assetsDir != "" {
		dir = assets.NewDir(c.assetsDir)
	}
	size := int(c.cellSize())
	mem.Put(texSnake, cellImage(size, color.RGBA{R: 60, G: 200, B: 80, A: 255}))
	mem.Put(texFood, cellImage(size, color.RGBA{R: 230, G: 60, B: 50, A: 255}))
	mem.Put(texWall, cellImage(size, color.RGBA{R: 120, G: 120, B: 140, A: 255}))
	return assets.Chain{dir, mem}
}

func run(cfg config, logger *slog.Logger) (err error) {
	if err := cfg.validate(); err != nil {
		return err
	}
	backend, err := wgpu.ParseBackend(cfg.backend)
	if err != nil {
		return err
	}

	dev, err := wgpu.Open(backend)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, dev.Close())
	}()

	w := newWorld(cfg.width, cfg.height, cfg.cellSize(), cfg.seed)
	width, height := w.pixelSize()

	format := gputypes.TextureFormatRGBA8Unorm
	target, err := dev.NewOffscreen(width, height, format)
	if err != nil {
		return err
	}
	defer target.Destroy(dev)

	mem := assets.NewMemory()
	r, err := spritebatch.New(dev,
		spritebatch.WithLoader(newLoader(cfg, mem)),
		spritebatch.WithTargetFormat(format),
		spritebatch.WithInitialCapacity(2*(cfg.width+cfg.height)+16),
	)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, dev.Wait())
		r.Destroy(dev)
	}()

	face, err := label.NewFace(label.Options{Size: float64(cfg.cellSize()), Shape: true})
	if err != nil {
		return err
	}
	defer face.Close()

	score := newScoreLabel(face, mem)
	background := spritebatch.RGBf(0, 0, 0.2)

	for i := 0; i < cfg.frames; i++ {
		w.step()
		w.render(r)
		if err := score.render(r, w.score, width, height); err != nil {
			return err
		}

		frame, err := dev.BeginFrame(target, background)
		if err != nil {
			return err
		}
		if err := r.Flush(dev, frame); err != nil {
			frame.Discard()
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if err := frame.Submit(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		released := dev.Poll()

		stats := r.Stats()
		logger.Debug("frame",
			"n", i,
			"sprites", stats.Sprites,
			"draws", stats.DrawCalls,
			"buffer", stats.BufferCapacity,
			"textures", stats.CachedTextures,
			"released", released,
		)
	}

	logger.Info("done",
		"frames", cfg.frames,
		"adapter", dev.AdapterInfo().Name,
		"score", w.score,
		"high_score", w.best,
	)
	return nil
}

// scoreLabel rasterizes the score into the memory namespace. Each distinct
// score gets its own texture id, so earlier values stay cached.
type scoreLabel struct {
	face *label.Face
	mem  *assets.Memory
	seen map[int]string
}

func newScoreLabel(face *label.Face, mem *assets.Memory) *scoreLabel {
	return &scoreLabel{face: face, mem: mem, seen: make(map[int]string)}
}

// render queues the score centered at the top of a width x height target.
func (s *scoreLabel) render(r spriteAdder, score int, width, height uint32) error {
	text := strconv.Itoa(score)
	id, ok := s.seen[score]
	if !ok {
		img, err := s.face.Render(text)
		if err != nil {
			return err
		}
		id = "score:" + text
		s.mem.Put(id, img)
		s.seen[score] = id
	}
	size := s.face.Measure(text)
	pos := spritebatch.V2(
		float32(width)/2-float32(size.X)/2,
		float32(height)-float32(size.Y)-10,
	)
	r.AddEx(pos, spritebatch.V2(float32(size.X), float32(size.Y)), id, spritebatch.White, 0)
	return nil
}
