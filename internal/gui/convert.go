package gui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

func toVec(v mgl64.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(v[0]), float32(v[1]), float32(v[2]))
}

func toColor(c [3]float32) rl.Color {
	u := func(x float32) uint8 {
		return uint8(math.Round(float64(math.Max(0, math.Min(1, float64(x)))) * 255))
	}
	return rl.NewColor(u(c[0]), u(c[1]), u(c[2]), 255)
}
