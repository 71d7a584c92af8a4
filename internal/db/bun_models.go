// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"
	"time"

	"github.com/uptrace/bun"

	"github.com/veloretti/cambiodesk/internal/model"
)

// UserModel maps the `users` table for Bun queries.
type UserModel struct {
	bun.BaseModel `bun:"table:users"`
	ID            int            `bun:"id,pk,autoincrement"`
	Username      string         `bun:"username"`
	Role          string         `bun:"role"`
	ExtraCaps     sql.NullString `bun:"extra_capabilities"`
	IsActive      bool           `bun:"is_active"`
}

// RoleModel maps the `roles` table.
type RoleModel struct {
	bun.BaseModel `bun:"table:roles"`
	ID            int    `bun:"id,pk,autoincrement"`
	Name          string `bun:"name"`
	Capabilities  string `bun:"capabilities"`
}

// ClientModel maps the `clients` table.
type ClientModel struct {
	bun.BaseModel `bun:"table:clients"`
	ID            int            `bun:"id,pk,autoincrement"`
	Name          string         `bun:"name"`
	Document      sql.NullString `bun:"document"`
	IsActive      bool           `bun:"is_active"`
}

// CurrencyModel maps the `currencies` table.
type CurrencyModel struct {
	bun.BaseModel `bun:"table:currencies"`
	ID            int            `bun:"id,pk,autoincrement"`
	Code          string         `bun:"code"`
	Name          string         `bun:"name"`
	Symbol        sql.NullString `bun:"symbol"`
	IsActive      bool           `bun:"is_active"`
}

// ExchangeRateModel maps the `exchange_rates` table.
type ExchangeRateModel struct {
	bun.BaseModel `bun:"table:exchange_rates"`
	ID            int       `bun:"id,pk,autoincrement"`
	BaseCode      string    `bun:"base_code"`
	QuoteCode     string    `bun:"quote_code"`
	Buy           float64   `bun:"buy"`
	Sell          float64   `bun:"sell"`
	UpdatedAt     time.Time `bun:"updated_at"`
}

// CatalogEntityModel maps the `catalog_entities` table.
type CatalogEntityModel struct {
	bun.BaseModel    `bun:"table:catalog_entities"`
	ID               int     `bun:"id,pk,autoincrement"`
	Kind             string  `bun:"kind"`
	Name             string  `bun:"name"`
	CommissionBuy    float64 `bun:"commission_buy"`
	CommissionSell   float64 `bun:"commission_sell"`
	AllowsCustomBuy  bool    `bun:"allows_custom_commission_buy"`
	AllowsCustomSell bool    `bun:"allows_custom_commission_sell"`
	IsActive         bool    `bun:"is_active"`
}

// InstanceDetailModel maps the `instance_details` table.
type InstanceDetailModel struct {
	bun.BaseModel   `bun:"table:instance_details"`
	ID              string `bun:"id,pk"`
	OwnerClientID   int    `bun:"owner_client_id"`
	CatalogEntityID int    `bun:"catalog_entity_id"`
	IsActive        bool   `bun:"is_active"`
	LockedByCatalog bool   `bun:"locked_by_catalog"`
}

// InstanceModel maps the `instances` table.
type InstanceModel struct {
	bun.BaseModel `bun:"table:instances"`
	ID            int            `bun:"id,pk,autoincrement"`
	DetailID      string         `bun:"detail_id"`
	Kind          string         `bun:"kind"`
	Holder        string         `bun:"holder"`
	Reference     string         `bun:"reference"`
	CurrencyCode  sql.NullString `bun:"currency_code"`
}

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Username      string `bun:"username"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

// --- Mapping helpers (centralized conversions) ---

func userModelToModel(u UserModel) model.User {
	m := model.User{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
	if u.ExtraCaps.Valid {
		m.ExtraCapabilities = u.ExtraCaps.String
	}
	return m
}

func roleModelToModel(r RoleModel) model.Role {
	return model.Role{ID: r.ID, Name: r.Name, Capabilities: r.Capabilities}
}

func clientModelToModel(c ClientModel) model.Client {
	m := model.Client{ID: c.ID, Name: c.Name, IsActive: c.IsActive}
	if c.Document.Valid {
		m.Document = c.Document.String
	}
	return m
}

func currencyModelToModel(c CurrencyModel) model.Currency {
	m := model.Currency{ID: c.ID, Code: c.Code, Name: c.Name, IsActive: c.IsActive}
	if c.Symbol.Valid {
		m.Symbol = c.Symbol.String
	}
	return m
}

func rateModelToModel(r ExchangeRateModel) model.ExchangeRate {
	return model.ExchangeRate{
		ID:        r.ID,
		BaseCode:  r.BaseCode,
		QuoteCode: r.QuoteCode,
		Buy:       r.Buy,
		Sell:      r.Sell,
		UpdatedAt: r.UpdatedAt,
	}
}

func catalogModelToModel(e CatalogEntityModel) model.CatalogEntity {
	return model.CatalogEntity{
		ID:                         e.ID,
		Kind:                       model.CatalogKind(e.Kind),
		Name:                       e.Name,
		CommissionBuy:              e.CommissionBuy,
		CommissionSell:             e.CommissionSell,
		AllowsCustomCommissionBuy:  e.AllowsCustomBuy,
		AllowsCustomCommissionSell: e.AllowsCustomSell,
		IsActive:                   e.IsActive,
	}
}

func detailModelToModel(d InstanceDetailModel) model.InstanceDetail {
	return model.InstanceDetail{
		ID:              d.ID,
		Owner:           model.OwnerRef{ClientID: d.OwnerClientID},
		CatalogEntityID: d.CatalogEntityID,
		IsActive:        d.IsActive,
		LockedByCatalog: d.LockedByCatalog,
	}
}

func instanceModelToModel(i InstanceModel) model.Instance {
	m := model.Instance{
		ID:        i.ID,
		DetailID:  i.DetailID,
		Kind:      model.CatalogKind(i.Kind),
		Holder:    i.Holder,
		Reference: i.Reference,
	}
	if i.CurrencyCode.Valid {
		m.CurrencyCode = i.CurrencyCode.String
	}
	return m
}

func auditModelToModel(a AuditLogModel) model.AuditLogEntry {
	return model.AuditLogEntry{ID: a.ID, Timestamp: a.Timestamp, Username: a.Username, Action: a.Action, Details: a.Details}
}
