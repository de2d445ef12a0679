// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"golang.org/x/term"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
	"github.com/Thermoquad/thermoview/pkg/recording"
)

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// WebSocketConnection carries the module's byte stream over a WebSocket
// serial bridge. Each binary message is a chunk of the stream.
type WebSocketConnection struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int

	mu     sync.Mutex
	closed bool
}

func (w *WebSocketConnection) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.isClosed() {
		return 0, ErrConnectionClosed
	}

	// If we have buffered data, return it first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.mu.Lock()
			w.closed = true
			w.mu.Unlock()
			return 0, fmt.Errorf("%w: %w", ErrConnectionClosed, err)
		}

		// Text messages are bridge status, not sensor data
		if messageType != websocket.BinaryMessage {
			glog.V(1).Infof("websocket: ignoring text message %q", data)
			continue
		}

		w.buf = data
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	if w.isClosed() {
		return 0, ErrConnectionClosed
	}
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return w.conn.Close()
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (*WebSocketConnection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: WebSocket connection failed (HTTP %d): %w", mcu90640.ErrChannelUnavailable, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: WebSocket connection failed: %w", mcu90640.ErrChannelUnavailable, err)
	}

	return &WebSocketConnection{conn: conn}, nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("THERMOVIEW_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens a replay, WebSocket or serial transport based on flags.
// The second return value describes the connection for banners.
func OpenConnection() (*mcu90640.Transport, string, error) {
	if replayPath != "" {
		p, err := recording.OpenPlayer(replayPath, recording.PlayerOptions{Loop: replayLoop})
		if err != nil {
			return nil, "", err
		}
		return mcu90640.NewTransport(p), fmt.Sprintf("Replay: %s", replayPath), nil
	}

	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := OpenWebSocketConnection(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return mcu90640.NewTransport(conn), fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		if sensorBaud != 0 && sensorBaud != baudRate {
			t, err := mcu90640.SwitchBaudRate(portName, sensorBaud)
			if err != nil {
				return nil, "", err
			}
			return t, fmt.Sprintf("Serial: %s @ %d baud (switched from %d)", portName, sensorBaud, mcu90640.DefaultBaudRate), nil
		}

		t, err := mcu90640.Open(portName, baudRate)
		if err != nil {
			return nil, "", err
		}
		return t, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("one of --port, --url or --replay must be specified")
}

// signalContext returns a context cancelled by SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// stopStream sends the stop command best effort and closes t
func stopStream(t *mcu90640.Transport) {
	if err := mcu90640.StopStreaming(t); err != nil {
		glog.V(1).Infof("stop command not sent: %v", err)
	}
	if err := t.Close(); err != nil {
		glog.Warningf("failed to close connection: %v", err)
	}
}
