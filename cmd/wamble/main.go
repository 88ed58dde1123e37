// Command wamble runs one or more wamble profiles out of a single
// process, per spec §4.5/§6.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/Fsmount/wamble/internal/config"
	"github.com/Fsmount/wamble/internal/logging"
	"github.com/Fsmount/wamble/internal/profile"
	"github.com/Fsmount/wamble/internal/storage/sqlitestore"
)

const usage = `wamble: a UDP chess server

Usage:
  wamble --config <path> [--profile <name>]

Flags:
  --config   path to the profiles YAML document (required)
  --profile  run only the named profile instead of every profile in the file
  --help     show this message
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("wamble", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	configPath := fs.String("config", "", "path to the profiles YAML document")
	profileName := fs.String("profile", "", "run only the named profile")
	help := fs.Bool("help", false, "show this message")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help {
		fmt.Fprint(os.Stdout, usage)
		return 0
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "wamble: --config is required")
		fs.Usage()
		return 1
	}

	file, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wamble: %v\n", err)
		return 1
	}

	profiles := file.Profiles
	if *profileName != "" {
		profiles = selectProfile(file.Profiles, *profileName)
		if profiles == nil {
			fmt.Fprintf(os.Stderr, "wamble: no profile named %q in %s\n", *profileName, *configPath)
			return 1
		}
	}

	log, err := logging.New("wamble", uuid.New().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "wamble: logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	driver, err := sqlitestore.Open(dsnFor(profiles))
	if err != nil {
		log.Sugar().Errorf("storage: %v", err)
		return 1
	}
	defer driver.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup, err := profile.Start(ctx, profiles, driver, log)
	if err != nil {
		log.Sugar().Errorf("start: %v", err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")
	sup.Stop()
	return 0
}

// selectProfile narrows file.Profiles to the single named entry,
// returning nil if no profile has that name.
func selectProfile(profiles []config.Profile, name string) []config.Profile {
	for _, p := range profiles {
		if p.Name == name {
			return []config.Profile{p}
		}
	}
	return nil
}

// dsnFor returns the first non-empty StorageDSN in the set, or
// "wamble.db" if none is set. Every profile, db-isolated or not, shares
// the one process-wide sqlite handle opened from it.
func dsnFor(profiles []config.Profile) string {
	for _, p := range profiles {
		if p.StorageDSN != "" {
			return p.StorageDSN
		}
	}
	return "wamble.db"
}
