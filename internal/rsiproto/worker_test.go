package rsiproto

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorker_EchoesCorrectionWithMatchingIPOC(t *testing.T) {
	sock, err := NewSocket(DefaultSocketConfig("127.0.0.1:0"))
	require.NoError(t, err)

	state := NewSharedState()
	state.SetCorrection(CartesianCorrection{X: 1, Y: 2, Z: 3, A: 4, B: 5, C: 6})

	w := NewWorker(WorkerConfig{
		Socket: sock,
		State:  state,
	})
	go w.Run()
	t.Cleanup(w.Stop)

	client, err := net.DialUDP("udp", nil, sock.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer client.Close()

	frame := `<Rob><RIst X="1" Y="2" Z="3" A="0" B="0" C="0" /><AIPos A1="0" A2="0" A3="0" A4="0" A5="0" A6="0" /><IPOC>00042</IPOC></Rob>`
	_, err = client.Write([]byte(frame))
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, ResponseBufferSize)
	n, err := client.Read(buf)
	require.NoError(t, err)

	reply := string(buf[:n])
	require.Contains(t, reply, "<IPOC>00042</IPOC>")
	require.Contains(t, reply, `X="1.0000"`)
	require.Contains(t, reply, `C="6.0000"`)
}

func TestWorker_DataCallbackOnlyOnBothPositionsParsed(t *testing.T) {
	sock, err := NewSocket(DefaultSocketConfig("127.0.0.1:0"))
	require.NoError(t, err)

	var mu sync.Mutex
	calls := 0

	w := NewWorker(WorkerConfig{
		Socket: sock,
		State:  NewSharedState(),
		OnData: func(CartesianPosition, JointPosition, any) {
			mu.Lock()
			calls++
			mu.Unlock()
		},
	})
	go w.Run()
	t.Cleanup(w.Stop)

	client, err := net.DialUDP("udp", nil, sock.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer client.Close()

	// Cartesian only: no joints, no callback expected.
	_, err = client.Write([]byte(`<Rob><RIst X="1" Y="0" Z="0" A="0" B="0" C="0" /><IPOC>1</IPOC></Rob>`))
	require.NoError(t, err)

	// Full frame: callback expected.
	_, err = client.Write([]byte(`<Rob><RIst X="1" Y="0" Z="0" A="0" B="0" C="0" /><AIPos A1="0" A2="0" A3="0" A4="0" A5="0" A6="0" /><IPOC>2</IPOC></Rob>`))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorker_MissingIPOCDropsFrameSilently(t *testing.T) {
	sock, err := NewSocket(DefaultSocketConfig("127.0.0.1:0"))
	require.NoError(t, err)

	state := NewSharedState()
	w := NewWorker(WorkerConfig{Socket: sock, State: state})
	go w.Run()
	t.Cleanup(w.Stop)

	client, err := net.DialUDP("udp", nil, sock.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte(`<Rob><RIst X="1" Y="0" Z="0" A="0" B="0" C="0" /></Rob>`))
	require.NoError(t, err)

	// Give the worker a few cycles to (not) process it.
	time.Sleep(100 * time.Millisecond)

	require.Equal(t, uint64(0), state.GetStatistics().PacketsReceived)
}

func TestWorker_SlowDataCallbackIncrementsLateResponses(t *testing.T) {
	sock, err := NewSocket(DefaultSocketConfig("127.0.0.1:0"))
	require.NoError(t, err)

	state := NewSharedState()
	w := NewWorker(WorkerConfig{
		Socket: sock,
		State:  state,
		OnData: func(CartesianPosition, JointPosition, any) {
			time.Sleep(6 * time.Millisecond)
		},
	})
	go w.Run()
	t.Cleanup(w.Stop)

	client, err := net.DialUDP("udp", nil, sock.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer client.Close()

	const frames = 10
	for i := 0; i < frames; i++ {
		frame := fmt.Sprintf(
			`<Rob><RIst X="1" Y="0" Z="0" A="0" B="0" C="0" /><AIPos A1="0" A2="0" A3="0" A4="0" A5="0" A6="0" /><IPOC>%d</IPOC></Rob>`,
			i,
		)
		_, err = client.Write([]byte(frame))
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		stats := state.GetStatistics()
		return stats.PacketsReceived >= frames
	}, 5*time.Second, 10*time.Millisecond)

	stats := state.GetStatistics()
	require.Equal(t, uint64(frames), stats.PacketsReceived)
	require.Equal(t, uint64(frames), stats.LateResponses,
		"every cycle's processing time includes the 6ms callback sleep, which exceeds the 4ms budget")
}

func TestWorker_ConnectionCallbackFiresOnLivenessLossAndRecovery(t *testing.T) {
	sock, err := NewSocket(DefaultSocketConfig("127.0.0.1:0"))
	require.NoError(t, err)

	var mu sync.Mutex
	var transitions []bool

	w := NewWorker(WorkerConfig{
		Socket:            sock,
		State:             NewSharedState(),
		LivenessTimeoutMs: 50,
		OnConnection: func(connected bool, _ any) {
			mu.Lock()
			transitions = append(transitions, connected)
			mu.Unlock()
		},
	})
	go w.Run()
	t.Cleanup(w.Stop)

	client, err := net.DialUDP("udp", nil, sock.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte(`<Rob><IPOC>1</IPOC></Rob>`))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) >= 2 && transitions[0] == true && transitions[1] == false
	}, 2*time.Second, 10*time.Millisecond)

	_, err = client.Write([]byte(`<Rob><IPOC>2</IPOC></Rob>`))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) >= 3 && transitions[2] == true
	}, 2*time.Second, 10*time.Millisecond)
}
