// remind is a small reminder list backed by an object space.
//
// Reminders live in the space and are queried the same way a program
// would: listing walks a ranged read over the "time" field, "due" takes
// everything at or before now, and "done" takes by exact id. The list is
// persisted to a JSON file after every change.
//
// Usage:
//
//	remind [--store FILE]
//
// Commands (in REPL):
//
//	add <minutes> <text...>   Schedule a reminder
//	ls                        List reminders, soonest first
//	next                      Show the next reminder
//	due                       Pop every reminder that is due
//	done <id>                 Remove a reminder by id
//	help                      Show this help
//	exit / quit / q           Exit
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"
	"github.com/spf13/pflag"
	"github.com/tailscale/hujson"

	"github.com/calvinalkan/objectspace/pkg/objectspace"
)

type reminder struct {
	ID   int64  `json:"id"`
	Time int64  `json:"time"` // unix seconds
	Text string `json:"text"`
}

// config is read from $XDG_CONFIG_HOME/remind/config.json (or
// ~/.config/remind/config.json). The file is JSONC.
type config struct {
	Store string `json:"store,omitempty"`
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("remind", pflag.ContinueOnError)

	storeFlag := fs.StringP("store", "s", "", "reminder file (overrides config)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	storePath, err := resolveStorePath(*storeFlag)
	if err != nil {
		return err
	}

	space := objectspace.New()

	nextID, err := loadStore(space, storePath)
	if err != nil {
		return err
	}

	return repl(space, storePath, nextID)
}

// resolveStorePath picks the reminder file: the --store flag wins, then
// the config file, then reminders.json next to the config.
func resolveStorePath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}

	cfg, err := loadConfig(filepath.Join(dir, "config.json"))
	if err != nil {
		return "", err
	}

	if cfg.Store != "" {
		return cfg.Store, nil
	}

	return filepath.Join(dir, "reminders.json"), nil
}

func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "remind"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}

	return filepath.Join(home, ".config", "remind"), nil
}

func loadConfig(path string) (config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config{}, nil
		}

		return config{}, fmt.Errorf("reading config: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return config{}, fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}

	var cfg config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// loadStore fills the space from the reminder file and returns the next
// free id.
func loadStore(space *objectspace.Space, path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}

		return 0, fmt.Errorf("reading store: %w", err)
	}

	var reminders []reminder

	if err := json.Unmarshal(data, &reminders); err != nil {
		return 0, fmt.Errorf("invalid store %s: %w", path, err)
	}

	nextID := int64(1)

	for _, r := range reminders {
		if err := objectspace.Write(space, r); err != nil {
			return 0, fmt.Errorf("loading reminder %d: %w", r.ID, err)
		}

		if r.ID >= nextID {
			nextID = r.ID + 1
		}
	}

	return nextID, nil
}

// saveStore writes every reminder to the file atomically.
func saveStore(space *objectspace.Space, path string) error {
	reminders, err := objectspace.ReadAllRange[reminder](space, "time", objectspace.Range{})
	if err != nil {
		return fmt.Errorf("listing reminders: %w", err)
	}

	data, err := json.MarshalIndent(reminders, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}

	if err := atomic.WriteFile(path, strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}

	return nil
}

func repl(space *objectspace.Space, storePath string, nextID int64) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	fmt.Printf("remind: store %s, type 'help' for commands\n", storePath)

	for {
		input, err := line.Prompt("remind> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println()

				return nil
			}

			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		cmd, rest, _ := strings.Cut(input, " ")

		switch cmd {
		case "add":
			nextID, err = cmdAdd(space, storePath, nextID, rest)
		case "ls":
			err = cmdList(space)
		case "next":
			err = cmdNext(space)
		case "due":
			err = cmdDue(space, storePath)
		case "done":
			err = cmdDone(space, storePath, rest)
		case "help":
			printHelp()
		case "exit", "quit", "q":
			return nil
		default:
			fmt.Printf("unknown command %q, type 'help'\n", cmd)
		}

		if err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func printHelp() {
	fmt.Println("  add <minutes> <text...>   Schedule a reminder")
	fmt.Println("  ls                        List reminders, soonest first")
	fmt.Println("  next                      Show the next reminder")
	fmt.Println("  due                       Pop every reminder that is due")
	fmt.Println("  done <id>                 Remove a reminder by id")
	fmt.Println("  exit                      Exit")
}

func cmdAdd(space *objectspace.Space, storePath string, nextID int64, rest string) (int64, error) {
	minsStr, text, _ := strings.Cut(rest, " ")

	mins, err := strconv.ParseInt(minsStr, 10, 64)
	if err != nil || text == "" {
		return nextID, errors.New("usage: add <minutes> <text...>")
	}

	r := reminder{
		ID:   nextID,
		Time: time.Now().Add(time.Duration(mins) * time.Minute).Unix(),
		Text: text,
	}

	if err := objectspace.Write(space, r); err != nil {
		return nextID, err
	}

	if err := saveStore(space, storePath); err != nil {
		return nextID, err
	}

	fmt.Printf("#%d at %s\n", r.ID, formatTime(r.Time))

	return nextID + 1, nil
}

func cmdList(space *objectspace.Space) error {
	reminders, err := objectspace.ReadAllRange[reminder](space, "time", objectspace.Range{})
	if err != nil {
		return err
	}

	if len(reminders) == 0 {
		fmt.Println("nothing scheduled")

		return nil
	}

	for _, r := range reminders {
		fmt.Printf("#%-4d %s  %s\n", r.ID, formatTime(r.Time), r.Text)
	}

	return nil
}

func cmdNext(space *objectspace.Space) error {
	r, ok, err := objectspace.TryReadRange[reminder](space, "time", objectspace.Range{})
	if err != nil {
		return err
	}

	if !ok {
		fmt.Println("nothing scheduled")

		return nil
	}

	fmt.Printf("#%d %s  %s\n", r.ID, formatTime(r.Time), r.Text)

	return nil
}

func cmdDue(space *objectspace.Space, storePath string) error {
	due, err := objectspace.TakeAllRange[reminder](space, "time",
		objectspace.AtMost(objectspace.Int(time.Now().Unix())))
	if err != nil {
		return err
	}

	if len(due) == 0 {
		fmt.Println("nothing due")

		return nil
	}

	for _, r := range due {
		fmt.Printf("#%d %s  %s\n", r.ID, formatTime(r.Time), r.Text)
	}

	return saveStore(space, storePath)
}

func cmdDone(space *objectspace.Space, storePath, rest string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
	if err != nil {
		return errors.New("usage: done <id>")
	}

	r, ok, err := objectspace.TryTakeKey[reminder](space, "id", objectspace.Int(id))
	if err != nil {
		return err
	}

	if !ok {
		fmt.Printf("no reminder #%d\n", id)

		return nil
	}

	fmt.Printf("done: #%d %s\n", r.ID, r.Text)

	return saveStore(space, storePath)
}

func formatTime(unix int64) string {
	return time.Unix(unix, 0).Format("2006-01-02 15:04")
}
