// Command emberctl is the interactive line-based REPL collaborator: a
// single positional root directory argument, and stdin commands
// {get, put, delete, exit}. It is a driver for pkg/engine, not part of
// the engine itself.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/emberdb/ember/pkg/engine"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: emberctl <root-dir>")
		os.Exit(1)
	}
	rootDir := os.Args[1]

	eng, err := engine.Open(engine.Options{RootDir: rootDir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening engine: %s\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	historyFile := filepath.Join(os.TempDir(), ".emberctl_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ember> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error initializing readline: %s\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	for {
		line, readErr := rl.Readline()
		if readErr != nil {
			if readErr == readline.ErrInterrupt {
				continue
			}
			if readErr == io.EOF {
				fmt.Println("bye ;)")
				return
			}
			fmt.Fprintf(os.Stderr, "error reading input: %s\n", readErr)
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !dispatch(eng, line) {
			return
		}
	}
}

// dispatch runs one REPL command. It returns false when the loop should
// terminate.
func dispatch(eng *engine.Engine, line string) bool {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "exit":
		fmt.Println("bye ;)")
		return false

	case "get":
		if len(fields) != 2 {
			fmt.Println("invalid command")
			return true
		}
		value, err := eng.Get([]byte(fields[1]))
		if err != nil {
			if errors.Is(err, engine.ErrKeyNotFound) {
				fmt.Printf("error: key not found: %s\n", fields[1])
			} else {
				fmt.Printf("error: %s\n", err)
			}
			return true
		}
		fmt.Println(string(value))

	case "put":
		if len(fields) != 3 {
			fmt.Println("invalid command")
			return true
		}
		if err := eng.Put([]byte(fields[1]), []byte(fields[2])); err != nil {
			fmt.Printf("error: %s\n", err)
		}

	case "delete":
		if len(fields) != 2 {
			fmt.Println("invalid command")
			return true
		}
		if err := eng.Remove([]byte(fields[1])); err != nil {
			if errors.Is(err, engine.ErrKeyNotFound) {
				fmt.Printf("error: key not found: %s\n", fields[1])
			} else {
				fmt.Printf("error: %s\n", err)
			}
		}

	default:
		fmt.Println("invalid command")
	}

	return true
}
