// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"os/user"
	"strings"

	"github.com/uptrace/bun"

	"github.com/veloretti/cambiodesk/internal/model"
)

// The adapters below accept bun.IDB so the same query code serves both a
// plain *bun.DB and a transaction (FetchOverviewBun and the backup helpers
// run them inside one).

// --- User and role helpers ---

// GetAllUsersBun returns all users ordered by username.
func GetAllUsersBun(ctx context.Context, bdb bun.IDB) ([]model.User, error) {
	var um []UserModel
	if err := bdb.NewSelect().Model(&um).OrderExpr("username").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(um))
	for _, u := range um {
		out = append(out, userModelToModel(u))
	}
	return out, nil
}

// GetUserByUsernameBun returns the user with the given username, or nil when
// no such user exists.
func GetUserByUsernameBun(ctx context.Context, bdb bun.IDB, username string) (*model.User, error) {
	var um UserModel
	err := bdb.NewSelect().Model(&um).Where("username = ?", username).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := userModelToModel(um)
	return &m, nil
}

// AddUserBun inserts a new active user and returns its ID.
func AddUserBun(ctx context.Context, bdb bun.IDB, username, role, extraCapabilities string) (int, error) {
	um := &UserModel{
		Username:  username,
		Role:      role,
		ExtraCaps: sql.NullString{String: extraCapabilities, Valid: extraCapabilities != ""},
		IsActive:  true,
	}
	if _, err := bdb.NewInsert().Model(um).Column("username", "role", "extra_capabilities", "is_active").Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return um.ID, nil
}

// ToggleUserStatusBun flips a user's active flag and returns the new state.
func ToggleUserStatusBun(ctx context.Context, bdb bun.IDB, id int) (bool, error) {
	if _, err := ExecRaw(ctx, bdb, "UPDATE users SET is_active = NOT is_active WHERE id = ?", id); err != nil {
		return false, err
	}
	var um UserModel
	if err := bdb.NewSelect().Model(&um).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return false, err
	}
	return um.IsActive, nil
}

// GetAllRolesBun returns all roles ordered by name.
func GetAllRolesBun(ctx context.Context, bdb bun.IDB) ([]model.Role, error) {
	var rm []RoleModel
	if err := bdb.NewSelect().Model(&rm).OrderExpr("name").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Role, 0, len(rm))
	for _, r := range rm {
		out = append(out, roleModelToModel(r))
	}
	return out, nil
}

// GetRoleByNameBun returns the role with the given name, or nil.
func GetRoleByNameBun(ctx context.Context, bdb bun.IDB, name string) (*model.Role, error) {
	var rm RoleModel
	err := bdb.NewSelect().Model(&rm).Where("name = ?", name).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := roleModelToModel(rm)
	return &m, nil
}

// AddRoleBun inserts a new role and returns its ID.
func AddRoleBun(ctx context.Context, bdb bun.IDB, name, capabilities string) (int, error) {
	rm := &RoleModel{Name: name, Capabilities: capabilities}
	if _, err := bdb.NewInsert().Model(rm).Column("name", "capabilities").Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return rm.ID, nil
}

// UpdateRoleCapabilitiesBun replaces a role's capability token list.
func UpdateRoleCapabilitiesBun(ctx context.Context, bdb bun.IDB, id int, capabilities string) error {
	_, err := ExecRaw(ctx, bdb, "UPDATE roles SET capabilities = ? WHERE id = ?", capabilities, id)
	return err
}

// --- Client helpers ---

// GetAllClientsBun returns all clients ordered by name.
func GetAllClientsBun(ctx context.Context, bdb bun.IDB) ([]model.Client, error) {
	var cm []ClientModel
	if err := bdb.NewSelect().Model(&cm).OrderExpr("name").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Client, 0, len(cm))
	for _, c := range cm {
		out = append(out, clientModelToModel(c))
	}
	return out, nil
}

// AddClientBun inserts a new active client and returns its ID.
func AddClientBun(ctx context.Context, bdb bun.IDB, name, document string) (int, error) {
	cm := &ClientModel{
		Name:     name,
		Document: sql.NullString{String: document, Valid: document != ""},
		IsActive: true,
	}
	if _, err := bdb.NewInsert().Model(cm).Column("name", "document", "is_active").Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return cm.ID, nil
}

// --- Currency and rate helpers ---

// GetAllCurrenciesBun returns all currencies ordered by code.
func GetAllCurrenciesBun(ctx context.Context, bdb bun.IDB) ([]model.Currency, error) {
	var cm []CurrencyModel
	if err := bdb.NewSelect().Model(&cm).OrderExpr("code").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Currency, 0, len(cm))
	for _, c := range cm {
		out = append(out, currencyModelToModel(c))
	}
	return out, nil
}

// AddCurrencyBun inserts a new active currency and returns its ID.
func AddCurrencyBun(ctx context.Context, bdb bun.IDB, code, name, symbol string) (int, error) {
	cm := &CurrencyModel{
		Code:     code,
		Name:     name,
		Symbol:   sql.NullString{String: symbol, Valid: symbol != ""},
		IsActive: true,
	}
	if _, err := bdb.NewInsert().Model(cm).Column("code", "name", "symbol", "is_active").Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return cm.ID, nil
}

// ToggleCurrencyStatusBun flips a currency's active flag and returns the new state.
func ToggleCurrencyStatusBun(ctx context.Context, bdb bun.IDB, id int) (bool, error) {
	if _, err := ExecRaw(ctx, bdb, "UPDATE currencies SET is_active = NOT is_active WHERE id = ?", id); err != nil {
		return false, err
	}
	var cm CurrencyModel
	if err := bdb.NewSelect().Model(&cm).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return false, err
	}
	return cm.IsActive, nil
}

// GetAllExchangeRatesBun returns all rates ordered by pair.
func GetAllExchangeRatesBun(ctx context.Context, bdb bun.IDB) ([]model.ExchangeRate, error) {
	var rm []ExchangeRateModel
	if err := bdb.NewSelect().Model(&rm).OrderExpr("base_code, quote_code").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.ExchangeRate, 0, len(rm))
	for _, r := range rm {
		out = append(out, rateModelToModel(r))
	}
	return out, nil
}

// UpsertExchangeRateBun posts new buy/sell values for a pair, inserting the
// pair row on first post. The update path is raw SQL so the timestamp comes
// from the database clock on every engine.
func UpsertExchangeRateBun(ctx context.Context, bdb bun.IDB, baseCode, quoteCode string, buy, sell float64) error {
	res, err := ExecRaw(ctx, bdb,
		"UPDATE exchange_rates SET buy = ?, sell = ?, updated_at = CURRENT_TIMESTAMP WHERE base_code = ? AND quote_code = ?",
		buy, sell, baseCode, quoteCode)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	_, err = ExecRaw(ctx, bdb,
		"INSERT INTO exchange_rates (base_code, quote_code, buy, sell, updated_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)",
		baseCode, quoteCode, buy, sell)
	return MapDBError(err)
}

// --- Catalog entity helpers ---

// GetAllCatalogEntitiesBun returns catalog entities, optionally restricted to
// one kind, ordered by kind then name.
func GetAllCatalogEntitiesBun(ctx context.Context, bdb bun.IDB, kind model.CatalogKind) ([]model.CatalogEntity, error) {
	var em []CatalogEntityModel
	qb := bdb.NewSelect().Model(&em)
	if kind != "" {
		qb = qb.Where("kind = ?", string(kind))
	}
	if err := qb.OrderExpr("kind, name").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.CatalogEntity, 0, len(em))
	for _, e := range em {
		out = append(out, catalogModelToModel(e))
	}
	return out, nil
}

// SearchCatalogEntitiesBun performs a portable fuzzy search over catalog
// entities using tokenized LIKE matching on the name. This emulates more
// advanced Postgres full-text search in a DB-agnostic way.
func SearchCatalogEntitiesBun(ctx context.Context, bdb bun.IDB, kind model.CatalogKind, q string) ([]model.CatalogEntity, error) {
	tokens := TokenizeSearchQuery(q)
	var em []CatalogEntityModel
	qb := bdb.NewSelect().Model(&em)
	if kind != "" {
		qb = qb.Where("kind = ?", string(kind))
	}
	for _, tok := range tokens {
		like := "%" + tok + "%"
		// LOWER(...) keeps matching case-insensitive across engines
		qb = qb.Where("LOWER(name) LIKE ?", like)
	}
	if err := qb.OrderExpr("kind, name").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.CatalogEntity, 0, len(em))
	for _, e := range em {
		out = append(out, catalogModelToModel(e))
	}
	return out, nil
}

// GetCatalogEntityBun returns the catalog entity with the given ID, or nil.
func GetCatalogEntityBun(ctx context.Context, bdb bun.IDB, id int) (*model.CatalogEntity, error) {
	var em CatalogEntityModel
	err := bdb.NewSelect().Model(&em).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := catalogModelToModel(em)
	return &m, nil
}

// AddCatalogEntityBun inserts a catalog entity and returns its ID.
func AddCatalogEntityBun(ctx context.Context, bdb bun.IDB, e model.CatalogEntity) (int, error) {
	em := &CatalogEntityModel{
		Kind:             string(e.Kind),
		Name:             e.Name,
		CommissionBuy:    e.CommissionBuy,
		CommissionSell:   e.CommissionSell,
		AllowsCustomBuy:  e.AllowsCustomCommissionBuy,
		AllowsCustomSell: e.AllowsCustomCommissionSell,
		IsActive:         e.IsActive,
	}
	if _, err := bdb.NewInsert().Model(em).
		Column("kind", "name", "commission_buy", "commission_sell", "allows_custom_commission_buy", "allows_custom_commission_sell", "is_active").
		Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return em.ID, nil
}

// UpdateCatalogEntityCommissionsBun updates the default commissions.
func UpdateCatalogEntityCommissionsBun(ctx context.Context, bdb bun.IDB, id int, buy, sell float64) error {
	_, err := ExecRaw(ctx, bdb, "UPDATE catalog_entities SET commission_buy = ?, commission_sell = ? WHERE id = ?", buy, sell, id)
	return err
}

// SetCatalogEntityActiveBun writes the catalog activation flag. The cascade
// commits this write before touching any detail rows.
func SetCatalogEntityActiveBun(ctx context.Context, bdb bun.IDB, id int, active bool) error {
	_, err := ExecRaw(ctx, bdb, "UPDATE catalog_entities SET is_active = ? WHERE id = ?", active, id)
	return err
}

// --- Instance detail helpers ---

// GetInstanceDetailBun returns the detail with the given ID, or nil.
func GetInstanceDetailBun(ctx context.Context, bdb bun.IDB, id string) (*model.InstanceDetail, error) {
	var dm InstanceDetailModel
	err := bdb.NewSelect().Model(&dm).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := detailModelToModel(dm)
	return &m, nil
}

// GetAllInstanceDetailsBun returns every detail row.
func GetAllInstanceDetailsBun(ctx context.Context, bdb bun.IDB) ([]model.InstanceDetail, error) {
	var dm []InstanceDetailModel
	if err := bdb.NewSelect().Model(&dm).OrderExpr("id").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.InstanceDetail, 0, len(dm))
	for _, d := range dm {
		out = append(out, detailModelToModel(d))
	}
	return out, nil
}

// ListInstanceDetailsByCatalogBun returns the details bound to one catalog entity.
func ListInstanceDetailsByCatalogBun(ctx context.Context, bdb bun.IDB, catalogID int) ([]model.InstanceDetail, error) {
	var dm []InstanceDetailModel
	if err := bdb.NewSelect().Model(&dm).Where("catalog_entity_id = ?", catalogID).OrderExpr("id").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.InstanceDetail, 0, len(dm))
	for _, d := range dm {
		out = append(out, detailModelToModel(d))
	}
	return out, nil
}

// AddInstanceDetailBun inserts a detail row with the caller-assigned ID.
func AddInstanceDetailBun(ctx context.Context, bdb bun.IDB, d model.InstanceDetail) error {
	dm := &InstanceDetailModel{
		ID:              d.ID,
		OwnerClientID:   d.Owner.ClientID,
		CatalogEntityID: d.CatalogEntityID,
		IsActive:        d.IsActive,
		LockedByCatalog: d.LockedByCatalog,
	}
	_, err := bdb.NewInsert().Model(dm).Exec(ctx)
	return MapDBError(err)
}

// DeleteInstanceDetailBun removes a detail row. Used by the compensating
// step of instance creation when the payload insert fails.
func DeleteInstanceDetailBun(ctx context.Context, bdb bun.IDB, id string) error {
	_, err := bdb.NewDelete().Model((*InstanceDetailModel)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// SetInstanceDetailFlagsBun writes both lifecycle flags in one statement so
// a detail row can never be observed locked-but-active.
func SetInstanceDetailFlagsBun(ctx context.Context, bdb bun.IDB, id string, active, locked bool) error {
	_, err := ExecRaw(ctx, bdb, "UPDATE instance_details SET is_active = ?, locked_by_catalog = ? WHERE id = ?", active, locked, id)
	return err
}

// --- Instance payload helpers ---

// GetAllInstancesBun returns instance payloads, optionally restricted to one kind.
func GetAllInstancesBun(ctx context.Context, bdb bun.IDB, kind model.CatalogKind) ([]model.Instance, error) {
	var im []InstanceModel
	qb := bdb.NewSelect().Model(&im)
	if kind != "" {
		qb = qb.Where("kind = ?", string(kind))
	}
	if err := qb.OrderExpr("holder, reference").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Instance, 0, len(im))
	for _, i := range im {
		out = append(out, instanceModelToModel(i))
	}
	return out, nil
}

// GetInstanceByDetailBun returns the payload bound to a detail, or nil.
func GetInstanceByDetailBun(ctx context.Context, bdb bun.IDB, detailID string) (*model.Instance, error) {
	var im InstanceModel
	err := bdb.NewSelect().Model(&im).Where("detail_id = ?", detailID).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m := instanceModelToModel(im)
	return &m, nil
}

// AddInstanceBun inserts a payload row and returns its ID.
func AddInstanceBun(ctx context.Context, bdb bun.IDB, inst model.Instance) (int, error) {
	im := &InstanceModel{
		DetailID:     inst.DetailID,
		Kind:         string(inst.Kind),
		Holder:       inst.Holder,
		Reference:    inst.Reference,
		CurrencyCode: sql.NullString{String: inst.CurrencyCode, Valid: inst.CurrencyCode != ""},
	}
	if _, err := bdb.NewInsert().Model(im).Column("detail_id", "kind", "holder", "reference", "currency_code").Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return im.ID, nil
}

// --- Overview snapshot ---

// FetchOverviewBun reads the catalog/detail/instance triple inside one
// transaction so list views never observe a torn combination of the three.
func FetchOverviewBun(ctx context.Context, bdb *bun.DB, kind model.CatalogKind, filter string) (*model.Overview, error) {
	var ov *model.Overview
	err := WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		var err error
		ov = &model.Overview{}
		if filter != "" {
			ov.Catalog, err = SearchCatalogEntitiesBun(ctx, tx, kind, filter)
		} else {
			ov.Catalog, err = GetAllCatalogEntitiesBun(ctx, tx, kind)
		}
		if err != nil {
			return err
		}
		if ov.Details, err = GetAllInstanceDetailsBun(ctx, tx); err != nil {
			return err
		}
		ov.Instances, err = GetAllInstancesBun(ctx, tx, kind)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ov, nil
}

// --- Audit helpers ---

// GetAllAuditLogEntriesBun retrieves audit log entries ordered by timestamp desc.
func GetAllAuditLogEntriesBun(ctx context.Context, bdb bun.IDB) ([]model.AuditLogEntry, error) {
	var am []AuditLogModel
	if err := bdb.NewSelect().Model(&am).OrderExpr("timestamp DESC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(am))
	for _, a := range am {
		out = append(out, auditModelToModel(a))
	}
	return out, nil
}

// LogActionBun writes an audit entry attributed to the current OS user.
func LogActionBun(ctx context.Context, bdb bun.IDB, action string, details string) error {
	curUser, err := user.Current()
	username := "unknown"
	if err == nil {
		if parts := strings.Split(curUser.Username, `\`); len(parts) > 1 {
			username = parts[1]
		} else {
			username = curUser.Username
		}
	}
	_, err = ExecRaw(ctx, bdb, "INSERT INTO audit_log (username, action, details) VALUES (?, ?, ?)", username, action, details)
	return MapDBError(err)
}

// --- Backup helpers ---

// ExportDataForBackupBun exports all tables' data into a model.BackupData
// using a Bun transaction.
func ExportDataForBackupBun(ctx context.Context, bdb *bun.DB) (*model.BackupData, error) {
	var backup *model.BackupData
	err := WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		backup = &model.BackupData{SchemaVersion: 1}
		var err error
		if backup.Users, err = GetAllUsersBun(ctx, tx); err != nil {
			return err
		}
		if backup.Roles, err = GetAllRolesBun(ctx, tx); err != nil {
			return err
		}
		if backup.Clients, err = GetAllClientsBun(ctx, tx); err != nil {
			return err
		}
		if backup.Currencies, err = GetAllCurrenciesBun(ctx, tx); err != nil {
			return err
		}
		if backup.ExchangeRates, err = GetAllExchangeRatesBun(ctx, tx); err != nil {
			return err
		}
		if backup.CatalogEntities, err = GetAllCatalogEntitiesBun(ctx, tx, ""); err != nil {
			return err
		}
		if backup.InstanceDetails, err = GetAllInstanceDetailsBun(ctx, tx); err != nil {
			return err
		}
		if backup.Instances, err = GetAllInstancesBun(ctx, tx, ""); err != nil {
			return err
		}
		backup.AuditLogEntries, err = GetAllAuditLogEntriesBun(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return backup, nil
}

// ImportDataFromBackupBun performs a full wipe-and-replace using a Bun transaction.
func ImportDataFromBackupBun(ctx context.Context, bdb *bun.DB, backup *model.BackupData) error {
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		// Wipe tables, children first
		tables := []string{"audit_log", "instances", "instance_details", "catalog_entities", "exchange_rates", "currencies", "clients", "users", "roles"}
		for _, t := range tables {
			if _, err := ExecRaw(ctx, tx, fmt.Sprintf("DELETE FROM %s", t)); err != nil {
				return err
			}
		}

		for _, r := range backup.Roles {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO roles (id, name, capabilities) VALUES (?, ?, ?)", r.ID, r.Name, r.Capabilities); err != nil {
				return MapDBError(err)
			}
		}
		for _, u := range backup.Users {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO users (id, username, role, extra_capabilities, is_active) VALUES (?, ?, ?, ?, ?)", u.ID, u.Username, u.Role, u.ExtraCapabilities, u.IsActive); err != nil {
				return MapDBError(err)
			}
		}
		for _, c := range backup.Clients {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO clients (id, name, document, is_active) VALUES (?, ?, ?, ?)", c.ID, c.Name, c.Document, c.IsActive); err != nil {
				return MapDBError(err)
			}
		}
		for _, c := range backup.Currencies {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO currencies (id, code, name, symbol, is_active) VALUES (?, ?, ?, ?, ?)", c.ID, c.Code, c.Name, c.Symbol, c.IsActive); err != nil {
				return MapDBError(err)
			}
		}
		for _, r := range backup.ExchangeRates {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO exchange_rates (id, base_code, quote_code, buy, sell, updated_at) VALUES (?, ?, ?, ?, ?, ?)", r.ID, r.BaseCode, r.QuoteCode, r.Buy, r.Sell, r.UpdatedAt); err != nil {
				return MapDBError(err)
			}
		}
		for _, e := range backup.CatalogEntities {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO catalog_entities (id, kind, name, commission_buy, commission_sell, allows_custom_commission_buy, allows_custom_commission_sell, is_active) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
				e.ID, string(e.Kind), e.Name, e.CommissionBuy, e.CommissionSell, e.AllowsCustomCommissionBuy, e.AllowsCustomCommissionSell, e.IsActive); err != nil {
				return MapDBError(err)
			}
		}
		for _, d := range backup.InstanceDetails {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO instance_details (id, owner_client_id, catalog_entity_id, is_active, locked_by_catalog) VALUES (?, ?, ?, ?, ?)",
				d.ID, d.Owner.ClientID, d.CatalogEntityID, d.IsActive, d.LockedByCatalog); err != nil {
				return MapDBError(err)
			}
		}
		for _, i := range backup.Instances {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO instances (id, detail_id, kind, holder, reference, currency_code) VALUES (?, ?, ?, ?, ?, ?)",
				i.ID, i.DetailID, string(i.Kind), i.Holder, i.Reference, i.CurrencyCode); err != nil {
				return MapDBError(err)
			}
		}
		for _, a := range backup.AuditLogEntries {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO audit_log (id, timestamp, username, action, details) VALUES (?, ?, ?, ?, ?)", a.ID, a.Timestamp, a.Username, a.Action, a.Details); err != nil {
				return MapDBError(err)
			}
		}
		return nil
	})
}
