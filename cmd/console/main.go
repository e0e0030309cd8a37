package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"

	"areasigns.ai/internal/protocol"
)

// console connects as one actor and sends each stdin line as a COMMAND.
func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		actor = flag.String("actor", "console", "actor id")
		name  = flag.String("name", "", "actor display name")
		token = flag.String("token", os.Getenv("AREASIGNS_TOKEN"), "shared session token")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[console] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Actor:           *actor,
		ActorName:       *name,
	}
	if *token != "" {
		hello.Auth = &protocol.HelloAuth{Token: *token}
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			printMessage(logger, msg)
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	seq := 0
	for {
		select {
		case <-stop:
			return
		case <-done:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			seq++
			cmd := protocol.CommandMsg{
				Type:            protocol.TypeCommand,
				ProtocolVersion: protocol.Version,
				ReqID:           fmt.Sprintf("C%d", seq),
				Line:            line,
			}
			if err := conn.WriteJSON(cmd); err != nil {
				logger.Printf("send: %v", err)
				return
			}
		}
	}
}

func printMessage(logger *log.Logger, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return
	}
	switch base.Type {
	case protocol.TypeWelcome:
		var w protocol.WelcomeMsg
		if err := json.Unmarshal(msg, &w); err != nil {
			return
		}
		logger.Printf("WELCOME session=%s actor=%s ready=%v", w.SessionID, w.Actor, w.Ready)
	case protocol.TypeNotify:
		var n protocol.NotifyMsg
		if err := json.Unmarshal(msg, &n); err != nil {
			return
		}
		fmt.Println(n.Text)
	case protocol.TypeResult:
		var r protocol.ResultMsg
		if err := json.Unmarshal(msg, &r); err != nil {
			return
		}
		if r.Code != "" {
			logger.Printf("%s %s: %s", r.ReqID, r.Code, r.Message)
		}
	case protocol.TypeRender:
		var r protocol.RenderMsg
		if err := json.Unmarshal(msg, &r); err != nil {
			return
		}
		if r.Clear {
			logger.Printf("clear %s %v", r.World, r.Pos)
		} else {
			logger.Printf("render %s %v %s %q", r.World, r.Pos, r.Region, r.Lines)
		}
	}
}
