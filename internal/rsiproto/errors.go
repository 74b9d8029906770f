package rsiproto

import "errors"

var (
	// ErrMissingIPOC is returned when a frame has no parseable <IPOC> element.
	// Frames without an IPOC are dropped entirely: no reply, no state update.
	ErrMissingIPOC = errors.New("rsiproto: frame missing IPOC")

	// ErrBufferTooSmall is returned when a render destination buffer cannot
	// hold the rendered correction frame.
	ErrBufferTooSmall = errors.New("rsiproto: destination buffer too small")
)
