package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Interactive line client for manual testing against a running server.
// Commands: create <name> [rating], join <id>, leave <id>, rooms,
// info <id>, queue, quit.

type request struct {
	Cmd  string      `json:"cmd"`
	Data interface{} `json:"data"`
}

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("connected to %s\n", *addr)

	// Responses and notifications arrive asynchronously on one stream.
	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			fmt.Printf("<< %s\n", scanner.Text())
		}
		fmt.Println("connection closed")
		os.Exit(0)
	}()

	stdin := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !stdin.Scan() {
			return
		}
		fields := strings.Fields(stdin.Text())
		if len(fields) == 0 {
			continue
		}

		var req request
		switch fields[0] {
		case "create":
			if len(fields) < 2 {
				fmt.Println("usage: create <name> [rating]")
				continue
			}
			data := map[string]interface{}{"name": fields[1]}
			if len(fields) > 2 {
				rating, err := strconv.Atoi(fields[2])
				if err != nil {
					fmt.Println("rating must be a number")
					continue
				}
				data["rating"] = rating
			}
			req = request{Cmd: "create_player", Data: data}
		case "join", "leave", "info":
			if len(fields) < 2 {
				fmt.Printf("usage: %s <player_id>\n", fields[0])
				continue
			}
			id, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				fmt.Println("player_id must be a number")
				continue
			}
			cmd := map[string]string{
				"join":  "join_matchmaking",
				"leave": "leave_matchmaking",
				"info":  "get_player_info",
			}[fields[0]]
			req = request{Cmd: cmd, Data: map[string]uint64{"player_id": id}}
		case "rooms":
			req = request{Cmd: "get_rooms", Data: map[string]string{}}
		case "queue":
			req = request{Cmd: "get_queue_status", Data: map[string]string{}}
		case "quit", "exit":
			return
		default:
			fmt.Println("commands: create join leave rooms info queue quit")
			continue
		}

		payload, err := json.Marshal(req)
		if err != nil {
			fmt.Printf("encode failed: %v\n", err)
			continue
		}
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			fmt.Printf("send failed: %v\n", err)
			return
		}
	}
}
