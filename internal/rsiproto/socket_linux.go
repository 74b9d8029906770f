//go:build linux

package rsiproto

import (
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// epollSocket is the Linux non-blocking UDP socket: raw fd, SO_REUSEADDR,
// enlarged SO_RCVBUF/SO_SNDBUF, and an epoll instance used to wait for
// readability with a bounded timeout each cycle (epoll_create1/epoll_ctl/
// epoll_wait + non-blocking recvfrom/sendto), generalized to a peer address
// that is learned and refreshed from every inbound datagram rather than
// fixed at construction.
type epollSocket struct {
	fd   int
	epfd int
	addr *net.UDPAddr
}

func newPlatformSocket(cfg SocketConfig) (Socket, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("resolve addr: %w", err)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK, unix.IPPROTO_UDP)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if cfg.RecvBufBytes > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.RecvBufBytes)
	}
	if cfg.SendBufBytes > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, cfg.SendBufBytes)
	}

	sockaddr := &unix.SockaddrInet4{Port: udpAddr.Port}
	if ip4 := udpAddr.IP.To4(); ip4 != nil {
		copy(sockaddr.Addr[:], ip4)
	}
	if err := unix.Bind(fd, sockaddr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind: %w", err)
	}

	// Re-read the bound address so an ephemeral port (":0") resolves to the
	// port the kernel actually assigned.
	if bound, err := unix.Getsockname(fd); err == nil {
		if addr := sockaddrToUDPAddr(bound); addr != nil {
			udpAddr = addr
		}
	}

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	event := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, event); err != nil {
		unix.Close(fd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll_ctl: %w", err)
	}

	return &epollSocket{fd: fd, epfd: epfd, addr: udpAddr}, nil
}

func (s *epollSocket) RecvFrom(buf []byte, timeoutMs int) (int, net.Addr, bool, error) {
	events := make([]unix.EpollEvent, 1)
	n, err := unix.EpollWait(s.epfd, events, timeoutMs)
	if err != nil {
		if err == syscall.EINTR {
			return 0, nil, false, nil
		}
		return 0, nil, false, fmt.Errorf("epoll_wait: %w", err)
	}
	if n == 0 {
		return 0, nil, false, nil
	}

	nread, from, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			return 0, nil, false, nil
		}
		return 0, nil, false, fmt.Errorf("recvfrom: %w", err)
	}

	addr := sockaddrToUDPAddr(from)
	return nread, addr, true, nil
}

func (s *epollSocket) SendTo(buf []byte, addr net.Addr) (int, error) {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return 0, fmt.Errorf("rsiproto: address %T is not a *net.UDPAddr", addr)
	}
	sockaddr := &unix.SockaddrInet4{Port: udpAddr.Port}
	if ip4 := udpAddr.IP.To4(); ip4 != nil {
		copy(sockaddr.Addr[:], ip4)
	}
	if err := unix.Sendto(s.fd, buf, 0, sockaddr); err != nil {
		return 0, fmt.Errorf("sendto: %w", err)
	}
	return len(buf), nil
}

func (s *epollSocket) LocalAddr() net.Addr {
	return s.addr
}

func (s *epollSocket) Close() error {
	_ = unix.Close(s.epfd)
	return unix.Close(s.fd)
}

func sockaddrToUDPAddr(sa unix.Sockaddr) *net.UDPAddr {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, 4)
		copy(ip, v.Addr[:])
		return &net.UDPAddr{IP: ip, Port: v.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, 16)
		copy(ip, v.Addr[:])
		return &net.UDPAddr{IP: ip, Port: v.Port}
	default:
		return nil
	}
}
