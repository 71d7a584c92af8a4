// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data structures for the Cambiodesk
// administration console: users and roles, the currency and rate catalogs,
// and the three-tier payment-method registry (catalog entity -> instance
// detail -> instance payload).
package model // import "github.com/veloretti/cambiodesk/internal/model"

import (
	"fmt"
	"time"
)

// CatalogKind partitions the payment-method catalog into its three tiers of
// providers: banks, digital-wallet brands, and card brands.
type CatalogKind string

const (
	KindBank   CatalogKind = "bank"
	KindWallet CatalogKind = "wallet"
	KindCard   CatalogKind = "card"
)

// Valid reports whether k is one of the known catalog kinds.
func (k CatalogKind) Valid() bool {
	switch k {
	case KindBank, KindWallet, KindCard:
		return true
	}
	return false
}

// User represents an operator of the console. The capability tokens a user
// holds are resolved through their role plus any extra per-user grants.
type User struct {
	ID       int
	Username string
	Role     string
	// ExtraCapabilities holds comma-separated capability tokens granted to
	// this user beyond their role.
	ExtraCapabilities string
	IsActive          bool
}

// Role maps a role name to a comma-separated set of capability tokens.
type Role struct {
	ID           int
	Name         string
	Capabilities string
}

// Client is a registered customer of the exchange operation. Instances may
// belong to a client or to the house.
type Client struct {
	ID       int
	Name     string
	Document string
	IsActive bool
}

// Currency is an entry in the currency catalog.
type Currency struct {
	ID       int
	Code     string
	Name     string
	Symbol   string
	IsActive bool
}

// ExchangeRate records the posted buy/sell values for a currency pair.
// Conversion arithmetic is out of scope; rates are catalog data only.
type ExchangeRate struct {
	ID        int
	BaseCode  string
	QuoteCode string
	Buy       float64
	Sell      float64
	UpdatedAt time.Time
}

// String returns the pair representation, e.g. "USD/ARS".
func (r ExchangeRate) String() string {
	return fmt.Sprintf("%s/%s", r.BaseCode, r.QuoteCode)
}

// CatalogEntity is a shared, reusable definition of a payment-method
// provider (a bank, a wallet brand, a card brand) with its own activation
// flag and commission attributes. Identity is ID; IsActive is the only
// field the cascade mutates.
type CatalogEntity struct {
	ID                         int
	Kind                       CatalogKind
	Name                       string
	CommissionBuy              float64
	CommissionSell             float64
	AllowsCustomCommissionBuy  bool
	AllowsCustomCommissionSell bool
	IsActive                   bool
}

// String returns the kind-qualified name, e.g. "bank:Acme".
func (e CatalogEntity) String() string {
	return fmt.Sprintf("%s:%s", e.Kind, e.Name)
}

// OwnerRef identifies who an instance belongs to: a client, or the house
// itself when ClientID is zero.
type OwnerRef struct {
	ClientID int
}

// HouseOwner returns the owner reference for house-owned instances.
func HouseOwner() OwnerRef { return OwnerRef{} }

// ClientOwner returns an owner reference for the given client.
func ClientOwner(clientID int) OwnerRef { return OwnerRef{ClientID: clientID} }

// IsHouse reports whether the owner is the house.
func (o OwnerRef) IsHouse() bool { return o.ClientID == 0 }

// String returns "house" or "client:<id>".
func (o OwnerRef) String() string {
	if o.IsHouse() {
		return "house"
	}
	return fmt.Sprintf("client:%d", o.ClientID)
}

// InstanceDetail binds one concrete instance to exactly one catalog entity
// and an owner. It is the unit the cascade mutates.
//
// LockedByCatalog means the detail was deactivated because its catalog
// entity was deactivated, not by direct user action. A locked detail is
// always inactive, and stays immutable-inactive until the catalog entity is
// restored.
type InstanceDetail struct {
	ID              string
	Owner           OwnerRef
	CatalogEntityID int
	IsActive        bool
	LockedByCatalog bool
}

// Instance is the payload record for a concrete account/wallet/card. It
// references exactly one InstanceDetail and is never mutated by the
// cascade; only its detail's flags change.
type Instance struct {
	ID           int
	DetailID     string
	Kind         CatalogKind
	Holder       string
	Reference    string
	CurrencyCode string
}

// String returns the holder/reference representation.
func (i Instance) String() string {
	return fmt.Sprintf("%s (%s %s)", i.Holder, i.Kind, i.Reference)
}

// Overview is the consistent triple of lists a registry view depends on.
// The three slices are always fetched together inside one store transaction
// so derived lock badges never show stale combinations.
type Overview struct {
	Catalog   []CatalogEntity
	Details   []InstanceDetail
	Instances []Instance
}

// AuditLogEntry records a single administrative action.
type AuditLogEntry struct {
	ID        int
	Timestamp string
	Username  string
	Action    string
	Details   string
}
