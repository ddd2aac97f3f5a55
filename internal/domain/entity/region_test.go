package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVehicleRegion_Center(t *testing.T) {
	r := VehicleRegion{X1: 10, Y1: 20, X2: 18, Y2: 26}
	x, y := r.Center()
	require.Equal(t, 14, x)
	require.Equal(t, 23, y)
}

func TestVehicleRegion_PadClipsToFrame(t *testing.T) {
	r := VehicleRegion{X1: 5, Y1: 5, X2: 40, Y2: 30}

	padded := r.Pad(20, 50, 40)
	require.Equal(t, VehicleRegion{X1: 0, Y1: 0, X2: 50, Y2: 40}, padded)

	inner := r.Pad(2, 100, 100)
	require.Equal(t, VehicleRegion{X1: 3, Y1: 3, X2: 42, Y2: 32}, inner)
}

func TestVehicleRegion_Empty(t *testing.T) {
	require.True(t, VehicleRegion{X1: 10, Y1: 10, X2: 10, Y2: 20}.Empty())
	require.Zero(t, VehicleRegion{X1: 10, Y1: 10, X2: 5, Y2: 20}.Area())
	require.Equal(t, 200, VehicleRegion{X1: 0, Y1: 0, X2: 20, Y2: 10}.Area())
}
