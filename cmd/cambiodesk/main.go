// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for the Cambiodesk
// administration console using the Cobra library. It defines the root
// command, subcommands (catalog, instances, users, ...), flags, and the
// main entry point for execution.

package main

import (
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veloretti/cambiodesk/internal/cascade"
	"github.com/veloretti/cambiodesk/internal/config"
	"github.com/veloretti/cambiodesk/internal/db"
	"github.com/veloretti/cambiodesk/internal/i18n"
	"github.com/veloretti/cambiodesk/internal/listsync"
	"github.com/veloretti/cambiodesk/internal/logging"
	"github.com/veloretti/cambiodesk/internal/registry"
	"github.com/veloretti/cambiodesk/internal/state"
)

var version = "dev" // this will be set by the linker
var cfgFile string

// Wired in PersistentPreRunE; every subcommand goes through svc.
var (
	cfg     config.Config
	store   db.Store
	session *state.Session
	svc     *registry.Service
	syncer  *listsync.Synchronizer
)

// main is the entry point of the application.
func main() {
	if err := rootCmd.Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

var rootCmd = newRootCmd()

// defaultActor returns the OS username as the default session actor.
func defaultActor() string {
	if u, err := user.Current(); err == nil {
		if parts := strings.Split(u.Username, `\`); len(parts) > 1 {
			return parts[1]
		}
		return u.Username
	}
	return "unknown"
}

// newRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cambiodesk",
		Short: "Cambiodesk is the administration console for a currency exchange operation.",
		Long: `Cambiodesk centralizes the back office of a casa de cambio:
users and roles, currencies and posted rates, and the payment-method
registry (banks, wallets, cards) with its capability-gated cascading
activation lifecycle. A database is the source of truth.

Running without a subcommand prints the registry overview.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var extra *string
			if cfgFile != "" {
				extra = &cfgFile
			}
			c, err := config.LoadConfig[config.Config](cmd, config.Defaults(), extra)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			// These flag names differ from their config keys, so the
			// generic flag binding cannot map them.
			if f := cmd.Flags().Lookup("db-type"); f != nil && f.Changed {
				c.Database.Type = f.Value.String()
			}
			if f := cmd.Flags().Lookup("db-dsn"); f != nil && f.Changed {
				c.Database.DSN = f.Value.String()
			}
			if f := cmd.Flags().Lookup("lang"); f != nil && f.Changed {
				c.Language = f.Value.String()
			}
			cfg = c

			i18n.Init(cfg.Language)
			logging.SetDebug(cfg.Debug)
			db.SetDebug(cfg.Debug)

			s, err := db.NewStoreFromDSN(cfg.Database.Type, cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("%s: %v", i18n.T("config.error_init_db"), err)
			}
			store = s

			// Capabilities load once per session; until then every gate denies.
			session = state.NewSession(cfg.Actor)
			if err := session.Load(cmd.Context(), registry.CapabilityLoader{Store: store}); err != nil {
				return fmt.Errorf("failed to load capabilities for %s: %w", session.Actor, err)
			}

			svc = registry.NewService(store, session)
			interval := time.Duration(cfg.Sync.RefreshInterval) * time.Second
			syncer = listsync.New(store, interval)
			svc.SetSynchronizer(syncer)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverview(cmd)
		},
	}

	cmd.AddCommand(setupCmd)
	cmd.AddCommand(catalogCmd)
	cmd.AddCommand(instancesCmd)
	cmd.AddCommand(usersCmd)
	cmd.AddCommand(rolesCmd)
	cmd.AddCommand(clientsCmd)
	cmd.AddCommand(currenciesCmd)
	cmd.AddCommand(ratesCmd)
	cmd.AddCommand(auditCmd)
	cmd.AddCommand(backupCmd)
	cmd.AddCommand(restoreCmd)
	cmd.AddCommand(dbMaintainCmd)

	cmd.Version = version

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is cambiodesk.yaml in the user or system config dir)")
	cmd.PersistentFlags().String("db-type", "sqlite", "Database type (e.g., sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("db-dsn", "./cambiodesk.db", "Database connection string (DSN)")
	cmd.PersistentFlags().String("lang", "en", `console language ("en", "es")`)
	cmd.PersistentFlags().String("actor", defaultActor(), "username the session acts as")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	return cmd
}

// runOverview refreshes the synchronizer once and prints the registry with
// derived pair states.
func runOverview(cmd *cobra.Command) error {
	if err := syncer.Refresh(cmd.Context()); err != nil {
		return err
	}
	ov, ready := syncer.Current()
	if !ready {
		fmt.Println(i18n.T("overview.loading"))
		return nil
	}

	for _, e := range ov.Catalog {
		status := i18n.T("status.active")
		if !e.IsActive {
			status = i18n.T("status.inactive")
		}
		fmt.Printf("%-6d %-30s %s\n", e.ID, e.String(), status)
	}
	for _, d := range ov.Details {
		st := cascade.PairStateOf(d)
		var badge string
		switch st {
		case cascade.LockedInactive:
			badge = i18n.T("detail.locked_by_catalog")
		case cascade.InactiveFree:
			badge = i18n.T("status.inactive")
		default:
			badge = i18n.T("status.active")
		}
		fmt.Printf("  %-38s catalog=%-4d owner=%-10s %s\n", d.ID, d.CatalogEntityID, d.Owner, badge)
	}
	return nil
}
