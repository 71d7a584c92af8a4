// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/veloretti/cambiodesk/internal/access"
	"github.com/veloretti/cambiodesk/internal/cascade"
	"github.com/veloretti/cambiodesk/internal/db"
	"github.com/veloretti/cambiodesk/internal/i18n"
	"github.com/veloretti/cambiodesk/internal/logging"
	"github.com/veloretti/cambiodesk/internal/model"
	"github.com/veloretti/cambiodesk/internal/registry"
)

// surface maps an operation error to its localized notification, logs the
// raw error, and returns the notification for Cobra to print. The session
// stays usable; no error here is fatal.
func surface(err error) error {
	if err == nil {
		return nil
	}
	logging.Errorf("%v", err)

	var partial *cascade.PartialCascadeError
	switch {
	case errors.Is(err, access.ErrPermissionsNotReady):
		return errors.New(i18n.T("error.permissions_not_ready"))
	case errors.Is(err, access.ErrUnauthorized):
		return errors.New(i18n.T("error.unauthorized"))
	case errors.Is(err, cascade.ErrLockedByCatalog):
		return errors.New(i18n.T("cascade.locked_by_catalog"))
	case errors.As(err, &partial):
		return errors.New(i18n.Tf("cascade.partial_failure", map[string]any{
			"Updated":   partial.Updated,
			"Requested": partial.Requested,
		}))
	case errors.Is(err, cascade.ErrCatalogNotFound):
		return errors.New(i18n.T("cascade.catalog_not_found"))
	case errors.Is(err, cascade.ErrDetailNotFound):
		return errors.New(i18n.T("cascade.detail_not_found"))
	case errors.Is(err, registry.ErrCatalogInactive):
		return errors.New(i18n.T("error.catalog_inactive"))
	case errors.Is(err, registry.ErrCreateRolledBack):
		return errors.New(i18n.T("instance.create_rolled_back"))
	case errors.Is(err, db.ErrDuplicate):
		return errors.New(i18n.T("error.duplicate"))
	default:
		return fmt.Errorf("%s: %v", i18n.T("error.transient"), err)
	}
}

func parseKind(s string) (model.CatalogKind, error) {
	k := model.CatalogKind(s)
	if s != "" && !k.Valid() {
		return "", fmt.Errorf("invalid kind %q (bank, wallet, card)", s)
	}
	return k, nil
}

// setupCmd seeds the admin role and first user. It writes through the store
// directly: on a fresh database no actor holds any capability yet.
var setupCmd = &cobra.Command{
	Use:   "setup <username>",
	Short: "Seed the admin role and the first console user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if r, err := store.GetRoleByName(ctx, "admin"); err != nil {
			return surface(err)
		} else if r == nil {
			if _, err := store.AddRole(ctx, "admin", registry.BootstrapAdminCapabilities); err != nil {
				return surface(err)
			}
		}
		if _, err := store.AddUser(ctx, args[0], "admin", ""); err != nil {
			return surface(err)
		}
		fmt.Println(i18n.Tf("setup.done", map[string]any{"User": args[0]}))
		return nil
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the payment-method catalog (banks, wallets, cards)",
}

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "Manage concrete account/wallet/card instances",
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage console users",
}

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Manage roles and their capability tokens",
}

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage exchange clients",
}

var currenciesCmd = &cobra.Command{
	Use:   "currencies",
	Short: "Manage the currency catalog",
}

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Manage posted exchange rates",
}

func init() {
	catalogCmd.AddCommand(catalogListCmd, catalogAddCmd, catalogCommissionsCmd, catalogDeactivateCmd, catalogReactivateCmd)
	instancesCmd.AddCommand(instancesListCmd, instancesAddCmd, instancesToggleCmd)
	usersCmd.AddCommand(usersListCmd, usersAddCmd, usersToggleCmd)
	rolesCmd.AddCommand(rolesListCmd, rolesAddCmd, rolesSetCapsCmd)
	clientsCmd.AddCommand(clientsListCmd, clientsAddCmd)
	currenciesCmd.AddCommand(currenciesListCmd, currenciesAddCmd, currenciesToggleCmd)
	ratesCmd.AddCommand(ratesListCmd, ratesPostCmd)

	catalogListCmd.Flags().String("kind", "", "restrict to one kind (bank, wallet, card)")
	catalogListCmd.Flags().String("search", "", "tokenized search over entry names")
	catalogAddCmd.Flags().Float64("buy", 0, "default buy commission")
	catalogAddCmd.Flags().Float64("sell", 0, "default sell commission")
	catalogAddCmd.Flags().Bool("custom-buy", false, "instances may override the buy commission")
	catalogAddCmd.Flags().Bool("custom-sell", false, "instances may override the sell commission")
	instancesListCmd.Flags().String("kind", "", "restrict to one kind (bank, wallet, card)")
	instancesAddCmd.Flags().Int("client", 0, "owning client id (0 = house)")
	instancesAddCmd.Flags().String("currency", "", "currency code of the instance")
	backupCmd.Flags().String("out", "cambiodesk-backup.json.zst", "output file")
	restoreCmd.Flags().String("in", "cambiodesk-backup.json.zst", "input file")
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(cmd.Flag("kind").Value.String())
		if err != nil {
			return err
		}
		entries, err := svc.ListCatalog(cmd.Context(), kind, cmd.Flag("search").Value.String())
		if err != nil {
			return surface(err)
		}
		for _, e := range entries {
			status := i18n.T("status.active")
			if !e.IsActive {
				status = i18n.T("status.inactive")
			}
			fmt.Printf("%-6d %-30s buy=%.4f sell=%.4f %s\n", e.ID, e.String(), e.CommissionBuy, e.CommissionSell, status)
		}
		return nil
	},
}

var catalogAddCmd = &cobra.Command{
	Use:   "add <kind> <name>",
	Short: "Add a catalog entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		buy, _ := cmd.Flags().GetFloat64("buy")
		sell, _ := cmd.Flags().GetFloat64("sell")
		customBuy, _ := cmd.Flags().GetBool("custom-buy")
		customSell, _ := cmd.Flags().GetBool("custom-sell")
		id, err := svc.CreateCatalogEntity(cmd.Context(), model.CatalogEntity{
			Kind:                       kind,
			Name:                       args[1],
			CommissionBuy:              buy,
			CommissionSell:             sell,
			AllowsCustomCommissionBuy:  customBuy,
			AllowsCustomCommissionSell: customSell,
			IsActive:                   true,
		})
		if err != nil {
			return surface(err)
		}
		fmt.Printf("%d\n", id)
		return nil
	},
}

var catalogCommissionsCmd = &cobra.Command{
	Use:   "set-commissions <id> <buy> <sell>",
	Short: "Update an entry's default commissions",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		buy, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return err
		}
		sell, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return err
		}
		return surface(svc.UpdateCatalogCommissions(cmd.Context(), id, buy, sell))
	},
}

var catalogDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Deactivate a catalog entry and lock its active instances",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		n, err := svc.DeactivateCatalogEntity(cmd.Context(), id)
		if err != nil {
			return surface(err)
		}
		fmt.Println(i18n.Tf("cascade.deactivated", map[string]any{"Count": n}))
		return nil
	},
}

var catalogReactivateCmd = &cobra.Command{
	Use:   "reactivate <id>",
	Short: "Reactivate a catalog entry and unlock its instances",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		n, err := svc.ReactivateCatalogEntity(cmd.Context(), id)
		if err != nil {
			return surface(err)
		}
		fmt.Println(i18n.Tf("cascade.reactivated", map[string]any{"Count": n}))
		return nil
	},
}

var instancesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List instances with their lifecycle state",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(cmd.Flag("kind").Value.String())
		if err != nil {
			return err
		}
		ov, err := svc.Overview(cmd.Context(), kind, "")
		if err != nil {
			return surface(err)
		}
		catalogName := make(map[int]string, len(ov.Catalog))
		for _, e := range ov.Catalog {
			catalogName[e.ID] = e.String()
		}
		details := make(map[string]model.InstanceDetail, len(ov.Details))
		for _, d := range ov.Details {
			details[d.ID] = d
		}
		for _, inst := range ov.Instances {
			d, ok := details[inst.DetailID]
			if !ok {
				continue
			}
			var badge string
			switch cascade.PairStateOf(d) {
			case cascade.LockedInactive:
				badge = i18n.T("detail.locked_by_catalog")
			case cascade.InactiveFree:
				badge = i18n.T("status.inactive")
			default:
				badge = i18n.T("status.active")
			}
			fmt.Printf("%-38s %-28s %-24s owner=%-10s %s\n", d.ID, inst.String(), catalogName[d.CatalogEntityID], d.Owner, badge)
		}
		return nil
	},
}

var instancesAddCmd = &cobra.Command{
	Use:   "add <catalog-id> <holder> <reference>",
	Short: "Create an instance under a catalog entry",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalogID, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		clientID, _ := cmd.Flags().GetInt("client")
		currency, _ := cmd.Flags().GetString("currency")
		detailID, err := svc.CreateInstance(cmd.Context(), registry.CreateInstanceParams{
			Owner:        model.OwnerRef{ClientID: clientID},
			CatalogID:    catalogID,
			Holder:       args[1],
			Reference:    args[2],
			CurrencyCode: currency,
		})
		if err != nil {
			return surface(err)
		}
		fmt.Println(i18n.Tf("instance.created", map[string]any{"ID": detailID}))
		return nil
	},
}

var instancesToggleCmd = &cobra.Command{
	Use:   "toggle <detail-id>",
	Short: "Toggle an instance active/inactive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		active, err := svc.ToggleInstance(cmd.Context(), args[0])
		if err != nil {
			return surface(err)
		}
		if active {
			fmt.Println(i18n.T("instance.toggled_on"))
		} else {
			fmt.Println(i18n.T("instance.toggled_off"))
		}
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List console users",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := svc.ListUsers(cmd.Context())
		if err != nil {
			return surface(err)
		}
		for _, u := range users {
			status := i18n.T("status.active")
			if !u.IsActive {
				status = i18n.T("status.inactive")
			}
			fmt.Printf("%-6d %-20s %-16s %s\n", u.ID, u.Username, u.Role, status)
		}
		return nil
	},
}

var usersAddCmd = &cobra.Command{
	Use:   "add <username> <role> [extra-capabilities]",
	Short: "Add a console user",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		extra := ""
		if len(args) == 3 {
			extra = args[2]
		}
		id, err := svc.CreateUser(cmd.Context(), args[0], args[1], extra)
		if err != nil {
			return surface(err)
		}
		fmt.Printf("%d\n", id)
		return nil
	},
}

var usersToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Toggle a user active/inactive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		active, err := svc.ToggleUser(cmd.Context(), id)
		if err != nil {
			return surface(err)
		}
		fmt.Printf("active=%t\n", active)
		return nil
	},
}

var rolesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		roles, err := svc.ListRoles(cmd.Context())
		if err != nil {
			return surface(err)
		}
		for _, r := range roles {
			fmt.Printf("%-6d %-20s %s\n", r.ID, r.Name, r.Capabilities)
		}
		return nil
	},
}

var rolesAddCmd = &cobra.Command{
	Use:   "add <name> <capabilities>",
	Short: "Add a role with a comma-separated capability list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := svc.CreateRole(cmd.Context(), args[0], args[1])
		if err != nil {
			return surface(err)
		}
		fmt.Printf("%d\n", id)
		return nil
	},
}

var rolesSetCapsCmd = &cobra.Command{
	Use:   "set-caps <id> <capabilities>",
	Short: "Replace a role's capability list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		return surface(svc.UpdateRoleCapabilities(cmd.Context(), id, args[1]))
	},
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		clients, err := svc.ListClients(cmd.Context())
		if err != nil {
			return surface(err)
		}
		for _, c := range clients {
			fmt.Printf("%-6d %-30s %s\n", c.ID, c.Name, c.Document)
		}
		return nil
	},
}

var clientsAddCmd = &cobra.Command{
	Use:   "add <name> [document]",
	Short: "Add a client",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		document := ""
		if len(args) == 2 {
			document = args[1]
		}
		id, err := svc.CreateClient(cmd.Context(), args[0], document)
		if err != nil {
			return surface(err)
		}
		fmt.Printf("%d\n", id)
		return nil
	},
}

var currenciesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List currencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		currencies, err := svc.ListCurrencies(cmd.Context())
		if err != nil {
			return surface(err)
		}
		for _, c := range currencies {
			status := i18n.T("status.active")
			if !c.IsActive {
				status = i18n.T("status.inactive")
			}
			fmt.Printf("%-6d %-6s %-24s %-4s %s\n", c.ID, c.Code, c.Name, c.Symbol, status)
		}
		return nil
	},
}

var currenciesAddCmd = &cobra.Command{
	Use:   "add <code> <name> [symbol]",
	Short: "Add a currency",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := ""
		if len(args) == 3 {
			symbol = args[2]
		}
		id, err := svc.CreateCurrency(cmd.Context(), args[0], args[1], symbol)
		if err != nil {
			return surface(err)
		}
		fmt.Printf("%d\n", id)
		return nil
	},
}

var currenciesToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Toggle a currency active/inactive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		active, err := svc.ToggleCurrency(cmd.Context(), id)
		if err != nil {
			return surface(err)
		}
		fmt.Printf("active=%t\n", active)
		return nil
	},
}

var ratesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posted exchange rates",
	RunE: func(cmd *cobra.Command, args []string) error {
		rates, err := svc.ListRates(cmd.Context())
		if err != nil {
			return surface(err)
		}
		for _, r := range rates {
			fmt.Printf("%-10s buy=%.4f sell=%.4f %s\n", r.String(), r.Buy, r.Sell, r.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var ratesPostCmd = &cobra.Command{
	Use:   "post <base> <quote> <buy> <sell>",
	Short: "Post buy/sell values for a currency pair",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		buy, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return err
		}
		sell, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return err
		}
		return surface(svc.PostRate(cmd.Context(), args[0], args[1], buy, sell))
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := svc.ListAuditLog(cmd.Context())
		if err != nil {
			return surface(err)
		}
		for _, e := range entries {
			fmt.Printf("%-20s %-16s %-24s %s\n", e.Timestamp, e.Username, e.Action, e.Details)
		}
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export all data as compressed JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := svc.WriteBackup(cmd.Context(), f); err != nil {
			return surface(err)
		}
		fmt.Println(i18n.Tf("backup.written", map[string]any{"Path": out}))
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Wipe the database and restore from a backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("in")
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := svc.ReadBackup(cmd.Context(), f); err != nil {
			return surface(err)
		}
		fmt.Println(i18n.Tf("backup.restored", map[string]any{"Path": in}))
		return nil
	},
}

var dbMaintainCmd = &cobra.Command{
	Use:   "db-maintain",
	Short: "Run engine-specific database maintenance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return surface(db.RunDBMaintenance(cfg.Database.Type, cfg.Database.DSN))
	},
}
