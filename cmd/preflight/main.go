// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
	"time"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))
	addr := strings.TrimSpace(os.Getenv("ADDR"))
	allowed := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS"))
	watchSystem := strings.TrimSpace(os.Getenv("WATCH_SYSTEM"))
	watchFile := strings.TrimSpace(os.Getenv("WATCH_DATA_FILE"))
	watchInterval := strings.TrimSpace(os.Getenv("WATCH_INTERVAL"))

	if admin == "" {
		fail("ADMIN_API_KEYS is empty (dataset uploads will be open to anyone).")
	}
	if pub == "" {
		fail("PUBLIC_API_KEYS is empty (read routes will be open to anyone).")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if addr == "" {
		warn("ADDR is empty; the server default will be used.")
	} else {
		ok("ADDR=" + addr)
	}

	if allowed == "" {
		warn("ALLOWED_ORIGINS empty — browser will be blocked by CORS for cross-origin requests.")
	} else {
		ok("ALLOWED_ORIGINS=" + allowed)
	}

	if watchSystem != "" {
		if watchFile == "" {
			fail("WATCH_SYSTEM is set but WATCH_DATA_FILE is empty.")
		}
		if _, err := os.Stat(watchFile); err != nil {
			fail("WATCH_DATA_FILE is not readable: " + err.Error())
		}
		if watchInterval != "" {
			if _, err := time.ParseDuration(watchInterval); err != nil {
				fail("WATCH_INTERVAL is not a valid duration: " + watchInterval)
			}
		}
		ok("watcher configured for system " + watchSystem)
	}

	ok("preflight passed")
}
