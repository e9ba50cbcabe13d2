package main

// Scratch prototype of the Minder wire exchange: password prompt, one JSON
// command, one JSON response, close. Try it with:
//
//	printf 'changeme\n{"action":"get_system_info"}' | nc 127.0.0.1 65432

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

const (
	listenAddr = "127.0.0.1:65432"
	password   = "changeme"
	ioTimeout  = 60 * time.Second
)

func main() {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("POC daemon listening on", listenAddr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			fmt.Fprintf(os.Stderr, "accept: %v\n", err)
			continue
		}
		go handle(conn)
	}
}

func handle(conn net.Conn) {
	defer conn.Close()
	fmt.Println("connected:", conn.RemoteAddr())

	_ = conn.SetDeadline(time.Now().Add(ioTimeout))
	if _, err := conn.Write([]byte("Password: ")); err != nil {
		return
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return
	}
	if strings.TrimSpace(string(buf[:n])) != password {
		_, _ = conn.Write([]byte("Authentication failed.\n"))
		fmt.Println("auth failed:", conn.RemoteAddr())
		return
	}
	if _, err := conn.Write([]byte("Authentication successful. Send JSON command.\n")); err != nil {
		return
	}

	cmdBuf := make([]byte, 4096)
	n, err = conn.Read(cmdBuf)
	if err != nil || n == 0 {
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(cmdBuf[:n], &req); err != nil {
		_, _ = conn.Write([]byte(`{"status": "error", "message": "Invalid JSON command."}`))
		return
	}

	switch req.Action {
	case "get_system_info":
		hostname, _ := os.Hostname()
		_ = json.NewEncoder(conn).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"hostname": hostname},
		})
	default:
		_ = json.NewEncoder(conn).Encode(map[string]any{
			"status":  "error",
			"message": "Unknown action: " + req.Action,
		})
	}
	fmt.Println("served:", conn.RemoteAddr(), "action:", req.Action)
}
