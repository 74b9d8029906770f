package rsiproto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFrame_CartesianAndJoints(t *testing.T) {
	frame := []byte(`<Rob TYpe="KUKA"><RIst X="10.5" Y="-2.25" Z="300" A="1.5" B="0" C="-90.25" />` +
		`<AIPos A1="0.1" A2="1.2" A3="2.3" A4="3.4" A5="4.5" A6="5.6" />` +
		`<IPOC>123456</IPOC></Rob>`)

	f, err := ParseFrame(frame)
	require.NoError(t, err)
	require.True(t, f.HasCartesian)
	require.True(t, f.HasJoints)
	require.Equal(t, uint32(123456), f.IPOC)
	require.Equal(t, []byte("123456"), f.IPOCRaw)

	require.Equal(t, 10.5, f.Cartesian.X)
	require.Equal(t, -2.25, f.Cartesian.Y)
	require.Equal(t, 300.0, f.Cartesian.Z)
	require.Equal(t, 1.5, f.Cartesian.A)
	require.Equal(t, 0.0, f.Cartesian.B)
	require.Equal(t, -90.25, f.Cartesian.C)

	require.Equal(t, [6]float64{0.1, 1.2, 2.3, 3.4, 4.5, 5.6}, f.Joints.Axis)
}

func TestParseFrame_MissingIPOCIsDropped(t *testing.T) {
	frame := []byte(`<Rob><RIst X="1" Y="2" Z="3" A="0" B="0" C="0" /></Rob>`)

	_, err := ParseFrame(frame)
	require.ErrorIs(t, err, ErrMissingIPOC)
}

func TestParseFrame_UnparseableIPOCIsDropped(t *testing.T) {
	frame := []byte(`<Rob><IPOC>not-a-number</IPOC></Rob>`)

	_, err := ParseFrame(frame)
	require.ErrorIs(t, err, ErrMissingIPOC)
}

func TestParseFrame_LeadingZerosPreservedInRaw(t *testing.T) {
	frame := []byte(`<Rob><IPOC>00099</IPOC></Rob>`)

	f, err := ParseFrame(frame)
	require.NoError(t, err)
	require.Equal(t, uint32(99), f.IPOC)
	require.Equal(t, []byte("00099"), f.IPOCRaw)
}

func TestParseFrame_MissingAttributeDefaultsToZero(t *testing.T) {
	frame := []byte(`<Rob><RIst X="10" Z="20" /><IPOC>1</IPOC></Rob>`)

	f, err := ParseFrame(frame)
	require.NoError(t, err)
	require.True(t, f.HasCartesian)
	require.Equal(t, 10.0, f.Cartesian.X)
	require.Equal(t, 0.0, f.Cartesian.Y)
	require.Equal(t, 20.0, f.Cartesian.Z)
}

func TestParseFrame_NoRIstOrAIPosOnlyClearsFlags(t *testing.T) {
	frame := []byte(`<Rob><IPOC>42</IPOC></Rob>`)

	f, err := ParseFrame(frame)
	require.NoError(t, err)
	require.False(t, f.HasCartesian)
	require.False(t, f.HasJoints)
	require.Equal(t, uint32(42), f.IPOC)
}

func TestRenderCorrection_RoundTripsIPOCByteExact(t *testing.T) {
	buf := make([]byte, ResponseBufferSize)
	corr := CartesianCorrection{X: 1, Y: -2.5, Z: 0, A: 0.10005, B: 0, C: 0}

	n, err := RenderCorrection(buf, corr, []byte("00099"))
	require.NoError(t, err)

	out := string(buf[:n])
	require.Contains(t, out, "<IPOC>00099</IPOC>")
	require.Contains(t, out, `X="1.0000"`)
	require.Contains(t, out, `Y="-2.5000"`)
	require.Contains(t, out, `A="0.1001"` /* rounds to 4 digits */)
	require.Contains(t, out, `<Sen Type="ImFree">`)
}

func TestRenderCorrection_BufferTooSmall(t *testing.T) {
	buf := make([]byte, 4)

	_, err := RenderCorrection(buf, CartesianCorrection{}, []byte("1"))
	require.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestParseFloatPrefix_ToleratesTrailingGarbage(t *testing.T) {
	require.Equal(t, 12.5, parseFloatPrefix([]byte(`12.5" foo`)))
	require.Equal(t, 0.0, parseFloatPrefix([]byte(`garbage`)))
	require.Equal(t, -3.0, parseFloatPrefix([]byte(`-3"`)))
}
