// Command client is a line-oriented smoke client for the relay: it logs
// in, keeps the session alive in the background, and maps simple console
// commands onto protocol requests.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"chat-relay/dispatch"
	"chat-relay/transport"
)

func main() {
	_ = godotenv.Load()
	addr := flag.String("addr", "127.0.0.1:8743", "relay address")
	username := flag.String("user", "", "username to log in with")
	nickname := flag.String("nick", "", "nickname (defaults to username)")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "missing -user")
		os.Exit(1)
	}
	if *nickname == "" {
		*nickname = *username
	}

	token := uuid.NewString()
	code, _, err := transport.Send(*addr, token, dispatch.RequestLogin, *username, *nickname)
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}
	if code != dispatch.ResultSuccess {
		fmt.Fprintf(os.Stderr, "login refused: %d\n", code)
		os.Exit(1)
	}
	fmt.Printf("logged in as %s (session %s)\n", *username, token)

	// The server evicts idle sessions; ping well inside the window.
	go func() {
		for range time.Tick(10 * time.Second) {
			_, _, _ = transport.Send(*addr, token, dispatch.RequestKeepAlive)
		}
	}()

	fmt.Println("commands: users | chats | poll | send <username> <text> | sendchat <id> <text> | nick <name> | quit")
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if done := handle(*addr, token, sc.Text()); done {
			return
		}
	}
}

func handle(addr, token, line string) bool {
	command, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch command {
	case "quit":
		_, _, _ = transport.Send(addr, token, dispatch.RequestLogout)
		return true
	case "users":
		report(transport.Send(addr, token, dispatch.RequestListUsers))
	case "chats":
		report(transport.Send(addr, token, dispatch.RequestListChats))
	case "nick":
		report(transport.Send(addr, token, dispatch.RequestSetNickname, rest))
	case "send":
		target, text, _ := strings.Cut(rest, " ")
		stamp := time.Now().UTC().Format(time.RFC3339)
		report(transport.Send(addr, token, dispatch.RequestSendMessage, "true", target, text, stamp))
	case "sendchat":
		target, text, _ := strings.Cut(rest, " ")
		stamp := time.Now().UTC().Format(time.RFC3339)
		report(transport.Send(addr, token, dispatch.RequestSendMessage, "false", target, text, stamp))
	case "poll":
		report(transport.Send(addr, token, dispatch.RequestPollNewMessage))
		report(transport.Send(addr, token, dispatch.RequestPollChatUpdates))
		report(transport.Send(addr, token, dispatch.RequestPollUserUpdates))
	default:
		fmt.Println("unknown command")
	}
	return false
}

func report(code dispatch.Result, fields []string, err error) {
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("-> %d %s\n", code, strings.Join(fields, " | "))
}
