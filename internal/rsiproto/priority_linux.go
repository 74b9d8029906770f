//go:build linux && cgo

package rsiproto

/*
#define _GNU_SOURCE
#include <pthread.h>
#include <sched.h>

int rsiproto_set_realtime_priority(int prio) {
	struct sched_param param;
	param.sched_priority = prio;
	return pthread_setschedparam(pthread_self(), SCHED_FIFO, &param);
}
*/
import "C"

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

func platformApplyRealtimeScheduling(cfg PriorityConfig) error {
	runtime.LockOSThread()

	if cfg.Enabled {
		if ret := C.rsiproto_set_realtime_priority(C.int(cfg.Priority)); ret != 0 {
			return fmt.Errorf("rsiproto: pthread_setschedparam(SCHED_FIFO, %d) failed: %d", cfg.Priority, ret)
		}
	}

	if cfg.PinCPU >= 0 {
		var mask unix.CPUSet
		mask.Set(cfg.PinCPU)
		if err := unix.SchedSetaffinity(0, &mask); err != nil {
			return fmt.Errorf("rsiproto: pin to cpu %d: %w", cfg.PinCPU, err)
		}
	}

	return nil
}
