// Command client is a small terminal chat client used for manual testing
// against a running server: it registers or logs in through the front
// door, connects over WebSocket, authenticates with the issued token and
// relays stdin lines as chat messages.
package main

import (
	"bufio"
	"bytes"
	"chat-relay/protocol"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	username := flag.String("username", "", "account username")
	password := flag.String("password", "", "account password")
	register := flag.Bool("register", false, "create the account before logging in")
	flag.Parse()

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "both -username and -password are required")
		os.Exit(1)
	}

	if err := runClient(*server, *username, *password, *register); err != nil {
		color.Red.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func runClient(server, username, password string, register bool) error {
	if register {
		if err := postCredentials(server+"/register", username, password, http.StatusCreated); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		color.Green.Printf("Registered %s\n", username)
	}

	token, err := login(server, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	wsURL := "ws" + strings.TrimPrefix(server, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	defer conn.Close()

	// First frame is always the history replay
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	var history protocol.History
	if err = json.Unmarshal(raw, &history); err == nil && history.Type == protocol.TypeHistory {
		renderHistory(history)
	}

	if err = authenticate(conn, token); err != nil {
		return err
	}
	color.Green.Printf("Connected as %s, type messages and press enter\n", username)

	go receive(conn)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		frame, err := json.Marshal(protocol.Inbound{Type: protocol.TypeMessage, Message: line})
		if err != nil {
			return err
		}
		if err = conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return fmt.Errorf("connection lost: %w", err)
		}
	}
	return scanner.Err()
}

func postCredentials(url, username, password string, wantStatus int) error {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

func login(server, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}
	resp, err := http.Post(server+"/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload map[string]string
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	return payload["token"], nil
}

func authenticate(conn *websocket.Conn, token string) error {
	frame, err := json.Marshal(protocol.Inbound{Type: protocol.TypeAuth, Token: token})
	if err != nil {
		return err
	}
	if err = conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return err
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	var ack protocol.AuthError
	if err = json.Unmarshal(raw, &ack); err != nil {
		return err
	}
	if ack.Type != protocol.TypeAuthSuccess {
		return fmt.Errorf("authentication rejected: %s", ack.Message)
	}
	return nil
}

func renderHistory(history protocol.History) {
	if len(history.Messages) == 0 {
		return
	}
	color.Cyan.Println("Recent messages:")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"User", "Message"})
	for _, entry := range history.Messages {
		table.Append([]string{entry.Username, entry.Message})
	}
	table.Render()
}

func receive(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			color.Red.Println("Disconnected from server")
			os.Exit(1)
		}

		var frame protocol.Message
		if err = json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		switch frame.Type {
		case protocol.TypeMessage:
			color.Yellow.Printf("%s: ", frame.Username)
			fmt.Println(frame.Message)
		case protocol.TypeError:
			color.Red.Printf("server: %s\n", frame.Message)
		}
	}
}
