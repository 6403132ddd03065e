// Package rollback restores package state when a transaction is
// interrupted. Commands that mutate state arm a context before running the
// slow nix steps; Ctrl-C during that window rewrites state and flake.nix
// from the armed snapshot before the process exits.
package rollback

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/nixydotdev/nixy/internal/flake"
	"github.com/nixydotdev/nixy/internal/logging"
	"github.com/nixydotdev/nixy/internal/state"
)

// Context is a snapshot of everything an interrupted transaction must put
// back. Only the fields relevant to the running command are set.
type Context struct {
	// Store is the pre-transaction snapshot to write back to StorePath.
	Store     *state.Store
	StorePath string

	// FlakeDir is regenerated from the snapshot's active profile.
	FlakeDir string
	// PackagesDir feeds local package discovery during regeneration.
	PackagesDir string

	// CopiedFile is removed on rollback (file install transactions).
	CopiedFile string
	// CreatedDir is removed on rollback, recursively.
	CreatedDir string
}

var (
	mu        sync.Mutex
	armed     *Context
	completed atomic.Bool
)

// Arm registers the snapshot the signal handler should restore. It replaces
// any previously armed context.
func Arm(c *Context) {
	mu.Lock()
	armed = c
	mu.Unlock()
}

// Clear disarms the current context without marking the transaction done.
// Callers that roll back themselves use this before restoring.
func Clear() {
	mu.Lock()
	armed = nil
	mu.Unlock()
}

// Commit marks the transaction finished. An interrupt arriving after Commit
// exits without touching any files. The context is cleared before the
// completion flag flips so no window exists where a stale snapshot could be
// restored over committed state.
func Commit() {
	Clear()
	completed.Store(true)
}

// take atomically removes and returns the armed context.
func take() *Context {
	mu.Lock()
	defer mu.Unlock()
	c := armed
	armed = nil
	return c
}

// Restore writes the snapshot back to disk.
func (c *Context) Restore() error {
	if c.Store != nil && c.StorePath != "" {
		if err := c.Store.Save(c.StorePath); err != nil {
			return fmt.Errorf("restore state: %w", err)
		}
		if c.FlakeDir != "" {
			if err := flake.Regenerate(c.FlakeDir, c.Store.ActiveState(), c.PackagesDir); err != nil {
				return fmt.Errorf("restore flake: %w", err)
			}
		}
	}
	if c.CopiedFile != "" {
		if err := os.Remove(c.CopiedFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove copied file: %w", err)
		}
	}
	if c.CreatedDir != "" {
		if err := os.RemoveAll(c.CreatedDir); err != nil {
			return fmt.Errorf("remove created dir: %w", err)
		}
	}
	return nil
}

// InstallSignalHandler starts the goroutine that rolls back on SIGINT or
// SIGTERM. Call once at process start.
func InstallSignalHandler() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		handleInterrupt(os.Exit)
	}()
}

// handleInterrupt runs the rollback and exits with the conventional status
// for a signal-terminated process.
func handleInterrupt(exit func(int)) {
	if completed.Load() {
		exit(130)
		return
	}

	if c := take(); c != nil {
		fmt.Fprintln(os.Stderr, "Interrupted. Rolling back changes...")
		if err := c.Restore(); err != nil {
			logging.GetLogger("rollback").Error().Err(err).Msg("rollback failed")
		} else {
			fmt.Fprintln(os.Stderr, "Rollback complete.")
		}
	}
	exit(130)
}
