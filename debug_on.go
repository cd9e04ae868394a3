//go:build spritedebug

package spritebatch

import "fmt"

// checkSprite panics on a sprite whose geometry cannot be drawn.
func checkSprite(s *Sprite) {
	switch {
	case !s.Position.IsFinite():
		panic(fmt.Sprintf("spritebatch: non-finite position %v for %q", s.Position, s.Texture))
	case !s.Size.IsFinite():
		panic(fmt.Sprintf("spritebatch: non-finite size %v for %q", s.Size, s.Texture))
	case !isFinite(s.Rotation):
		panic(fmt.Sprintf("spritebatch: non-finite rotation %v for %q", s.Rotation, s.Texture))
	}
}
