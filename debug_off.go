//go:build !spritedebug

package spritebatch

// checkSprite is a no-op in release builds. Build with -tags spritedebug
// to validate sprites at enqueue time.
func checkSprite(*Sprite) {}
