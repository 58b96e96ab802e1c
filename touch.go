package main

import (
	"math"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
)

// Pinch distance ratio that triggers one zoom step.
const pinchStep = 1.1

// handleTouchEvents pans with one finger and zooms around the midpoint of a
// two finger pinch.
func (g *Viewer) handleTouchEvents() {
	touches := ebiten.AppendTouchIDs(make([]ebiten.TouchID, 0, 8))

	if g.lastTouchX == nil {
		g.lastTouchX = make(map[ebiten.TouchID]float64)
		g.lastTouchY = make(map[ebiten.TouchID]float64)
	}
	for _, id := range touches {
		if _, exists := g.lastTouchX[id]; !exists {
			x, y := ebiten.TouchPosition(id)
			g.lastTouchX[id], g.lastTouchY[id] = float64(x), float64(y)
		}
	}
	for id := range g.lastTouchX {
		if !slices.Contains(touches, id) {
			delete(g.lastTouchX, id)
			delete(g.lastTouchY, id)
		}
	}

	switch len(touches) {
	case 1:
		id := touches[0]
		x, y := ebiten.TouchPosition(id)
		dx, dy := float64(x)-g.lastTouchX[id], float64(y)-g.lastTouchY[id]
		if dx != 0 || dy != 0 {
			g.m.PanBy(dx, dy)
		}
		g.lastTouchX[id], g.lastTouchY[id] = float64(x), float64(y)

	case 2:
		id1, id2 := touches[0], touches[1]
		x1, y1 := ebiten.TouchPosition(id1)
		x2, y2 := ebiten.TouchPosition(id2)
		cur := distance(float64(x1), float64(y1), float64(x2), float64(y2))
		prev := distance(g.lastTouchX[id1], g.lastTouchY[id1], g.lastTouchX[id2], g.lastTouchY[id2])
		midX, midY := float64(x1+x2)/2, float64(y1+y2)/2

		switch {
		case cur > prev*pinchStep:
			g.m.ZoomAtPoint(true, midX, midY)
		case cur < prev/pinchStep:
			g.m.ZoomAtPoint(false, midX, midY)
		default:
			// Keep the reference distance until the pinch crosses a step.
			return
		}
		g.lastTouchX[id1], g.lastTouchY[id1] = float64(x1), float64(y1)
		g.lastTouchX[id2], g.lastTouchY[id2] = float64(x2), float64(y2)
	}
}

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
