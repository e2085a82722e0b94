// shieldctl inspects the durable state a shield instance persists through
// its key-value backend. It opens the badger directory directly, so it must
// not run against a store a live instance has open.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	shield "github.com/ericalber/shield"
	"github.com/ericalber/shield/crypto"
	"github.com/ericalber/shield/firewall"
	"github.com/ericalber/shield/session"
	"github.com/ericalber/shield/storage"
)

var stateDir string

func main() {
	root := &cobra.Command{
		Use:           "shieldctl",
		Short:         "Inspect persisted shield state",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&stateDir, "dir", "shield-state", "badger state directory")

	root.AddCommand(
		sessionsCmd(),
		blockedCmd(),
		threatsCmd(),
		auditCmd(),
		tokenCmd(),
		hashCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openState() (*storage.Badger, error) {
	return storage.OpenBadger(storage.BadgerOptions{Dir: stateDir})
}

func loadJSON(key string, v any) error {
	kv, err := openState()
	if err != nil {
		return err
	}
	defer kv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	payload, ok, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no %s state in %s", key, stateDir)
	}
	return json.Unmarshal(payload, v)
}

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List persisted sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var sessions []session.Session
			if err := loadJSON("state:sessions", &sessions); err != nil {
				return err
			}
			for _, s := range sessions {
				fmt.Printf("%s  user=%s ip=%s expires=%s\n",
					s.ID, s.UserID, s.Fingerprint.IP, s.ExpiresAt.Format(time.RFC3339))
			}
			fmt.Printf("%d session(s)\n", len(sessions))
			return nil
		},
	}
}

func blockedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blocked",
		Short: "List blocked actors",
		RunE: func(cmd *cobra.Command, args []string) error {
			var state firewall.State
			if err := loadJSON("state:firewall", &state); err != nil {
				return err
			}
			for _, actor := range state.Blocked {
				fmt.Println(actor)
			}
			fmt.Printf("%d blocked actor(s)\n", len(state.Blocked))
			return nil
		},
	}
}

func threatsCmd() *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "threats",
		Short: "List recorded threats",
		RunE: func(cmd *cobra.Command, args []string) error {
			var threats []firewall.Threat
			if err := loadJSON("state:threats", &threats); err != nil {
				return err
			}
			shown := 0
			for _, t := range threats {
				if activeOnly && t.Status != firewall.ThreatActive {
					continue
				}
				fmt.Printf("%s  [%s/%s] %s: %s\n",
					t.Timestamp.Format(time.RFC3339), t.Severity, t.Status, t.Type, t.Description)
				shown++
			}
			fmt.Printf("%d threat(s)\n", shown)
			return nil
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "show only unresolved threats")
	return cmd
}

func auditCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the persisted audit tail",
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []struct {
				ID        string            `json:"id"`
				Timestamp time.Time         `json:"timestamp"`
				Event     string            `json:"event"`
				Actor     string            `json:"actor"`
				Details   map[string]string `json:"details"`
			}
			if err := loadJSON("state:audit", &entries); err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			for _, e := range entries {
				fmt.Printf("%s  %-20s actor=%s %v\n",
					e.Timestamp.Format(time.RFC3339), e.Event, e.Actor, e.Details)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	return cmd
}

func tokenCmd() *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a random URL-safe token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := crypto.SecureToken(length)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().IntVar(&length, "bytes", 32, "random bytes in the token")
	return cmd
}

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Hash a password with the default argon2id parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasher, err := crypto.NewHasher(shield.DefaultConfig().Password)
			if err != nil {
				return err
			}
			encoded, err := hasher.Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Println(encoded)
			return nil
		},
	}
}
