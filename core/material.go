package core

// Material identifies what fills a voxel or lies under a surface vertex.
type Material uint8

const (
	MaterialAir      Material = 0
	MaterialRock     Material = 1
	MaterialWater    Material = 2
	MaterialLava     Material = 3
	MaterialIce      Material = 4
	MaterialSediment Material = 5
	MaterialCount             = 6
)

func (m Material) String() string {
	switch m {
	case MaterialAir:
		return "air"
	case MaterialRock:
		return "rock"
	case MaterialWater:
		return "water"
	case MaterialLava:
		return "lava"
	case MaterialIce:
		return "ice"
	case MaterialSediment:
		return "sediment"
	}
	return "unknown"
}

// Solid reports whether the material occupies volume.
func (m Material) Solid() bool {
	return m != MaterialAir
}

// materialPalette holds linear RGB display colors per material.
var materialPalette = [MaterialCount][3]float32{
	MaterialAir:      {0.7, 0.85, 1.0},  // light sky blue
	MaterialRock:     {0.5, 0.45, 0.4},  // gray-brown
	MaterialWater:    {0.05, 0.3, 0.55}, // deep ocean blue
	MaterialLava:     {1.0, 0.3, 0.0},   // bright orange-red
	MaterialIce:      {0.8, 0.9, 1.0},   // ice blue
	MaterialSediment: {0.76, 0.7, 0.5},  // beach tan
}

// Color returns the display color of the material.
func (m Material) Color() [3]float32 {
	if int(m) < len(materialPalette) {
		return materialPalette[m]
	}
	return [3]float32{1, 0, 1} // debug magenta for unknown ids
}
