// sccctl is an interactive debug client for sccd's control socket: it
// performs the auth handshake, then reads lines from stdin and sends each
// verbatim as a command, printing whatever the daemon replies.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/scc-go/sccd/internal/clientproto/auth"
	"github.com/scc-go/sccd/internal/configpaths"
)

func main() {
	socketPath, keyFilePath := resolvePaths()

	var useDefaults bool
	if term.IsTerminal(int(os.Stdin.Fd())) {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Control socket path").Value(&socketPath),
			huh.NewInput().Title("Key file path").Value(&keyFilePath),
			huh.NewConfirm().Title("Connect with these settings?").Value(&useDefaults),
		))
		if err := form.Run(); err != nil {
			fmt.Fprintln(os.Stderr, "sccctl:", err)
			os.Exit(1)
		}
		if !useDefaults {
			os.Exit(0)
		}
	}

	keyBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sccctl: read key file:", err)
		os.Exit(1)
	}
	key, err := auth.DeriveKey(strings.TrimSpace(string(keyBytes)))
	if err != nil {
		fmt.Fprintln(os.Stderr, "sccctl: derive key:", err)
		os.Exit(1)
	}

	raw, err := net.Dial("unix", socketPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sccctl: connect:", err)
		os.Exit(1)
	}
	defer raw.Close()

	r := bufio.NewReader(raw)
	clientNonce, serverNonce, err := auth.HandleAuthHandshake(r, raw, key, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sccctl: handshake:", err)
		os.Exit(1)
	}
	sessionKey := auth.DeriveSessionKey(key, serverNonce, clientNonce)
	conn, err := auth.WrapConn(raw, sessionKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sccctl: wrap session:", err)
		os.Exit(1)
	}

	go func() {
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			fmt.Println(sc.Text())
		}
	}()

	fmt.Println("connected; type commands, Ctrl-D to quit")
	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		line := in.Text()
		if line == "" {
			continue
		}
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			fmt.Fprintln(os.Stderr, "sccctl: write:", err)
			return
		}
	}
}

func resolvePaths() (socketPath, keyFilePath string) {
	socketPath, _ = configpaths.DefaultSocketPath()
	dir, _ := configpaths.DefaultConfigDir()
	if dir != "" {
		keyFilePath = filepath.Join(dir, "scc-daemon.key")
	}
	return
}
