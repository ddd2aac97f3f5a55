package entity

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClampConfidence(t *testing.T) {
	require.Equal(t, 0.0, ClampConfidence(-0.5))
	require.Equal(t, 1.0, ClampConfidence(1.7))
	require.Equal(t, 0.0, ClampConfidence(math.NaN()))
	require.Equal(t, 0.42, ClampConfidence(0.42))
}

func TestOdometerReading_MarshalsNulls(t *testing.T) {
	data, err := json.Marshal(OdometerReading{})
	require.NoError(t, err)
	require.JSONEq(t, `{"value":null,"confidence":0,"speedometer_image_path":null}`, string(data))

	v := 45210
	data, err = json.Marshal(OdometerReading{Value: &v, Confidence: 0.8, ImagePath: "frames/a/frame_0001.jpg"})
	require.NoError(t, err)
	require.JSONEq(t, `{"value":45210,"confidence":0.8,"speedometer_image_path":"frames/a/frame_0001.jpg"}`, string(data))
}

func TestDamageVerdict_Total(t *testing.T) {
	v := DamageVerdict{
		Scratches: NewDamageCount(2),
		Dents:     NewDamageCount(0),
		Rust:      NewDamageCount(1),
	}
	require.Equal(t, 3, v.Total())
	require.True(t, v.Scratches.Detected)
	require.False(t, v.Dents.Detected)
}

func TestPipelineState_Terminal(t *testing.T) {
	require.True(t, StateComplete.Terminal())
	require.True(t, StateFailed.Terminal())
	require.False(t, StateExtracting.Terminal())
}
