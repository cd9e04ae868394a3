//go:build !nogpu

package main

import (
	"image"
	"image/color"
	"math/rand/v2"
	"slices"

	"github.com/gogpu/spritebatch"
)

// Texture ids of the generated cell images.
const (
	texSnake = "snake"
	texFood  = "food"
	texWall  = "wall"
)

type cell struct{ X, Y int }

func (c cell) add(d cell) cell { return cell{c.X + d.X, c.Y + d.Y} }

var directions = []cell{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// spriteAdder is the part of spritebatch.Renderer the world draws with.
type spriteAdder interface {
	AddEx(pos, size spritebatch.Vec2, texture string, tint spritebatch.Tint, rotation float32)
}

// world is a walled grid with a self-steering snake chasing food.
// Cell (0,0) is the bottom-left corner; the outer ring is wall.
type world struct {
	width, height int
	cellSize      float32

	snake []cell // head first
	dir   cell
	food  cell
	score int
	best  int
	rng   *rand.Rand
}

func newWorld(width, height int, cellSize float32, seed uint64) *world {
	w := &world{
		width:    width,
		height:   height,
		cellSize: cellSize,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	w.reset()
	return w
}

// reset places a three-cell snake in the middle heading right.
func (w *world) reset() {
	mid := cell{w.width / 2, w.height / 2}
	w.snake = []cell{mid, {mid.X - 1, mid.Y}, {mid.X - 2, mid.Y}}
	w.dir = cell{1, 0}
	w.score = 0
	w.placeFood()
}

func (w *world) wall(c cell) bool {
	return c.X <= 0 || c.Y <= 0 || c.X >= w.width-1 || c.Y >= w.height-1
}

func (w *world) free(c cell) bool {
	return !w.wall(c) && !slices.Contains(w.snake, c)
}

func (w *world) placeFood() {
	for {
		c := cell{1 + w.rng.IntN(w.width-2), 1 + w.rng.IntN(w.height-2)}
		if w.free(c) {
			w.food = c
			return
		}
	}
}

// step advances the snake one cell. It steers toward the food, avoiding
// walls and its own body, and starts over when boxed in.
func (w *world) step() {
	head := w.snake[0]
	best, bestDist := cell{}, -1
	for _, d := range directions {
		if d == (cell{-w.dir.X, -w.dir.Y}) {
			continue
		}
		next := head.add(d)
		// The tail moves out of the way unless the snake is about to eat.
		if !w.free(next) && next != w.snake[len(w.snake)-1] {
			continue
		}
		dist := abs(next.X-w.food.X) + abs(next.Y-w.food.Y)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = d, dist
		}
	}
	if bestDist < 0 {
		w.reset()
		return
	}

	w.dir = best
	next := head.add(best)
	if next == w.food {
		w.snake = slices.Insert(w.snake, 0, next)
		w.score++
		w.best = max(w.best, w.score)
		if len(w.snake) >= (w.width-2)*(w.height-2) {
			w.reset()
			return
		}
		w.placeFood()
		return
	}
	copy(w.snake[1:], w.snake[:len(w.snake)-1])
	w.snake[0] = next
}

// pixelSize returns the render target size for the grid.
func (w *world) pixelSize() (uint32, uint32) {
	return uint32(float32(w.width) * w.cellSize), uint32(float32(w.height) * w.cellSize) //nolint:gosec // flags are range checked
}

func (w *world) pos(c cell) spritebatch.Vec2 {
	return spritebatch.V2(float32(c.X)*w.cellSize, float32(c.Y)*w.cellSize)
}

// render queues the snake, then the food, then the walls. Each group shares
// a texture so the whole world costs three draws.
func (w *world) render(r spriteAdder) {
	size := spritebatch.V2(w.cellSize, w.cellSize)
	for i, c := range w.snake {
		tint := spritebatch.White
		if i == 0 {
			tint = spritebatch.RGBA8(255, 255, 160, 255)
		}
		r.AddEx(w.pos(c), size, texSnake, tint, 0)
	}
	// Diamond-shaped food: a square turned 45 degrees whose corners touch
	// the cell edges.
	food := size.Mul(0.7071)
	inset := size.Sub(food).Mul(0.5)
	r.AddEx(w.pos(w.food).Add(inset), food, texFood, spritebatch.White, 0.7853982)
	for x := 0; x < w.width; x++ {
		r.AddEx(w.pos(cell{x, 0}), size, texWall, spritebatch.White, 0)
		r.AddEx(w.pos(cell{x, w.height - 1}), size, texWall, spritebatch.White, 0)
	}
	for y := 1; y < w.height-1; y++ {
		r.AddEx(w.pos(cell{0, y}), size, texWall, spritebatch.White, 0)
		r.AddEx(w.pos(cell{w.width - 1, y}), size, texWall, spritebatch.White, 0)
	}
}

// cellImage returns a square tile of c with a darker one pixel rim.
func cellImage(size int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	rim := color.RGBA{R: c.R / 2, G: c.G / 2, B: c.B / 2, A: c.A}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if x == 0 || y == 0 || x == size-1 || y == size-1 {
				img.SetRGBA(x, y, rim)
			} else {
				img.SetRGBA(x, y, c)
			}
		}
	}
	return img
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
