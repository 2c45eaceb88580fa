// batepapo CLI - Command line client for the batepapo group-chat relay
package main

import (
	"fmt"
	"os"

	"github.com/mateusfaissal/batepapo-api/clients/go/batepapo"
)

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("BATEPAPO_URL")
	client := batepapo.NewClient(baseURL)
	client.Name = os.Args[1]
	cmd := os.Args[2]

	switch cmd {
	case "join":
		err := client.Register(client.Name)
		exitOnError(err)
		fmt.Printf("Joined as: %s\n", client.Name)

	case "who":
		participants, err := client.Participants()
		exitOnError(err)
		for _, p := range participants {
			fmt.Printf("  %s\n", p.Name)
		}

	case "say":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: batepapo <name> say <text>")
			os.Exit(1)
		}
		msg, err := client.Send(batepapo.Broadcast, os.Args[3], false)
		exitOnError(err)
		fmt.Printf("Sent: %s\n", msg.ID)

	case "whisper":
		if len(os.Args) < 5 {
			fmt.Fprintln(os.Stderr, "Usage: batepapo <name> whisper <to> <text>")
			os.Exit(1)
		}
		msg, err := client.Send(os.Args[3], os.Args[4], true)
		exitOnError(err)
		fmt.Printf("Sent: %s\n", msg.ID)

	case "read":
		msgs, err := client.Messages(20)
		exitOnError(err)
		// Newest-first from the API; print oldest-first like a chat log.
		for i := len(msgs) - 1; i >= 0; i-- {
			m := msgs[i]
			switch m.Type {
			case batepapo.TypeStatus:
				fmt.Printf("[%s] * %s %s\n", m.Time, m.From, m.Text)
			case batepapo.TypePrivate:
				fmt.Printf("[%s] %s -> %s (private): %s\n", m.Time, m.From, m.To, m.Text)
			default:
				fmt.Printf("[%s] %s: %s\n", m.Time, m.From, m.Text)
			}
		}

	case "ping":
		err := client.Heartbeat()
		exitOnError(err)
		fmt.Println("Still here.")

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`batepapo CLI - group-chat relay client

Usage: batepapo <name> <command> [options]

Commands:
  join                  Register the display name
  say <text>            Broadcast a message to the room
  whisper <to> <text>   Send a private message
  read                  Read the 20 newest visible messages
  who                   List active participants
  ping                  Refresh presence (run under the 10s timeout)

Environment:
  BATEPAPO_URL   Server URL (default: http://localhost:5000)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
