// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package registry

import (
	"github.com/veloretti/cambiodesk/internal/access"
	"github.com/veloretti/cambiodesk/internal/model"
)

// Capability tokens known to the console. Tokens follow the
// <domain>.<action>_<resource> convention; unknown tokens are ordinary
// non-matching strings to the evaluator.
const (
	CapAdminFull = access.Capability("admin.full_access")

	CapCatalogView       = access.Capability("catalog.view_entries")
	CapCatalogEditBank   = access.Capability("catalog.edit_bank")
	CapCatalogEditWallet = access.Capability("catalog.edit_wallet")
	CapCatalogEditCard   = access.Capability("catalog.edit_card")
	CapCatalogToggle     = access.Capability("catalog.toggle_entry")

	CapInstanceCreate = access.Capability("instance.create_detail")
	CapInstanceToggle = access.Capability("instance.toggle_detail")

	CapUsersManage      = access.Capability("user.manage_users")
	CapCurrenciesManage = access.Capability("currency.manage_currencies")
	CapRatesManage      = access.Capability("rate.manage_rates")
	CapClientsManage    = access.Capability("client.manage_clients")
	CapAuditView        = access.Capability("audit.view_log")
	CapBackupManage     = access.Capability("backup.manage_backups")
)

// BootstrapAdminCapabilities is the capability list the setup command seeds
// the first admin role with. The composite toggle gate demands the toggle
// token in its all-of half, so full admin alone would lock the first admin
// out of catalog (de)activation.
const BootstrapAdminCapabilities = string(CapAdminFull) + "," + string(CapCatalogToggle)

// catalogEditCap maps a catalog kind to its edit token.
func catalogEditCap(kind model.CatalogKind) access.Capability {
	switch kind {
	case model.KindWallet:
		return CapCatalogEditWallet
	case model.KindCard:
		return CapCatalogEditCard
	default:
		return CapCatalogEditBank
	}
}

// reqCatalogToggle guards catalog (de)activation: the actor needs the edit
// token for the entry's kind (or full admin) AND the toggle token. This is
// the one composite gate in the console.
func reqCatalogToggle(kind model.CatalogKind) access.Composite {
	return access.Composite{
		Any: access.AnyOf(catalogEditCap(kind), CapAdminFull),
		All: access.AllOf(CapCatalogToggle),
	}
}

func reqCatalogEdit(kind model.CatalogKind) access.Requirement {
	return access.AnyOf(catalogEditCap(kind), CapAdminFull)
}

var (
	reqCatalogView      = access.AnyOf(CapCatalogView, CapCatalogEditBank, CapCatalogEditWallet, CapCatalogEditCard, CapAdminFull)
	reqInstanceCreate   = access.AnyOf(CapInstanceCreate, CapAdminFull)
	reqInstanceToggle   = access.AnyOf(CapInstanceToggle, CapAdminFull)
	reqUsersManage      = access.AnyOf(CapUsersManage, CapAdminFull)
	reqCurrenciesManage = access.AnyOf(CapCurrenciesManage, CapAdminFull)
	reqRatesManage      = access.AnyOf(CapRatesManage, CapAdminFull)
	reqClientsManage    = access.AnyOf(CapClientsManage, CapAdminFull)
	reqAuditView        = access.AnyOf(CapAuditView, CapAdminFull)
	reqBackupManage     = access.AnyOf(CapBackupManage, CapAdminFull)
)
