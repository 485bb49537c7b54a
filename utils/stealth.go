package utils

import (
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RandomDelay pauses execution for a random time between min and max (milliseconds)
func RandomDelay(min, max int) {
	if min >= max {
		time.Sleep(time.Duration(min) * time.Millisecond)
		return
	}
	duration := time.Duration(rand.Intn(max-min)+min) * time.Millisecond
	time.Sleep(duration)
}

// MouseJiggle simulates random mouse movements
func MouseJiggle(page playwright.Page) {
	//random position in viewport (0-1000)
	x := float64(rand.Intn(800) + 100) //100-900
	y := float64(rand.Intn(600) + 100) //100-700

	//move
	page.Mouse().Move(x, y)
	RandomDelay(100, 300)
}

// SmoothScroll advances the page by pixels with a small overshoot and
// correction, like a human flicking the wheel. Net movement is pixels.
func SmoothScroll(page playwright.Page, pixels int) error {
	const overshoot = 120
	if err := page.Mouse().Wheel(0, float64(pixels+overshoot)); err != nil {
		return err
	}
	RandomDelay(200, 500)

	// Scroll up a tiny bit (human-like correction)
	page.Mouse().Wheel(0, -overshoot)
	return nil
}
