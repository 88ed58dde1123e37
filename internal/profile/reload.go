package profile

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

const inheritedSocketsEnv = "WAMBLE_PROFILES_INHERITED"

// InheritedSockets parses WAMBLE_PROFILES_INHERITED ("name=fd,name=fd,...")
// into a name -> *net.UDPConn map, reconstructing each connection from
// its inherited file descriptor. Sockets not marked inheritable do not
// survive exec and so never appear here (spec §4.5/§6).
func InheritedSockets() (map[string]*net.UDPConn, error) {
	raw := os.Getenv(inheritedSocketsEnv)
	out := make(map[string]*net.UDPConn)
	if raw == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("profile: malformed %s entry %q", inheritedSocketsEnv, pair)
		}
		name := parts[0]
		fd, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("profile: bad fd in %s entry %q: %w", inheritedSocketsEnv, pair, err)
		}
		file := os.NewFile(uintptr(fd), name)
		conn, err := net.FilePacketConn(file)
		if err != nil {
			return nil, fmt.Errorf("profile: adopt fd %d (%s): %w", fd, name, err)
		}
		udpConn, ok := conn.(*net.UDPConn)
		if !ok {
			return nil, fmt.Errorf("profile: inherited fd %d (%s) is not a UDP socket", fd, name)
		}
		out[name] = udpConn
	}
	return out, nil
}

// ExportEnv builds the WAMBLE_PROFILES_INHERITED value for a supervisor
// about to exec a replacement image, one name=fd pair per Runtime,
// pairing each profile's bound socket with a File descriptor the child
// process will inherit (the caller must mark the file descriptors
// inheritable, e.g. by clearing close-on-exec, before calling exec).
func (s *Supervisor) ExportEnv() (string, []*os.File, error) {
	var pairs []string
	var files []*os.File
	for _, rt := range s.runtimes {
		f, err := rt.conn.File()
		if err != nil {
			return "", nil, fmt.Errorf("profile: export socket for %q: %w", rt.Cfg.Name, err)
		}
		fd := 3 + len(files) // conventional: stdin/stdout/stderr occupy 0-2
		pairs = append(pairs, fmt.Sprintf("%s=%d", rt.Cfg.Name, fd))
		files = append(files, f)
	}
	return strings.Join(pairs, ","), files, nil
}
