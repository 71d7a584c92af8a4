// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil provides in-memory test doubles for the db layer so the
// core packages can be tested without a database.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/veloretti/cambiodesk/internal/db"
	"github.com/veloretti/cambiodesk/internal/model"
)

// MemStore is an in-memory implementation of db.Store. All methods are
// safe for concurrent use. The zero value is not usable; call NewMemStore.
type MemStore struct {
	mu sync.Mutex

	nextID    int
	users     map[int]model.User
	roles     map[int]model.Role
	clients   map[int]model.Client
	curr      map[int]model.Currency
	rates     map[int]model.ExchangeRate
	catalog   map[int]model.CatalogEntity
	details   map[string]model.InstanceDetail
	instances map[int]model.Instance
	audit     []model.AuditLogEntry

	// FailDetailWrites makes SetInstanceDetailFlags fail after N successful
	// writes (-1 disables). Used to exercise partial cascade failures.
	FailDetailWrites int
	detailWrites     int
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		nextID:           0,
		users:            map[int]model.User{},
		roles:            map[int]model.Role{},
		clients:          map[int]model.Client{},
		curr:             map[int]model.Currency{},
		rates:            map[int]model.ExchangeRate{},
		catalog:          map[int]model.CatalogEntity{},
		details:          map[string]model.InstanceDetail{},
		instances:        map[int]model.Instance{},
		FailDetailWrites: -1,
	}
}

func (m *MemStore) id() int {
	m.nextID++
	return m.nextID
}

var _ db.Store = (*MemStore)(nil)

func (m *MemStore) GetAllUsers(ctx context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *MemStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *MemStore) AddUser(ctx context.Context, username, role, extraCapabilities string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return 0, db.ErrDuplicate
		}
	}
	id := m.id()
	m.users[id] = model.User{ID: id, Username: username, Role: role, ExtraCapabilities: extraCapabilities, IsActive: true}
	return id, nil
}

func (m *MemStore) ToggleUserStatus(ctx context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return false, fmt.Errorf("user %d not found", id)
	}
	u.IsActive = !u.IsActive
	m.users[id] = u
	return u.IsActive, nil
}

func (m *MemStore) GetAllRoles(ctx context.Context) ([]model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.Name == name {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (m *MemStore) AddRole(ctx context.Context, name, capabilities string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.Name == name {
			return 0, db.ErrDuplicate
		}
	}
	id := m.id()
	m.roles[id] = model.Role{ID: id, Name: name, Capabilities: capabilities}
	return id, nil
}

func (m *MemStore) UpdateRoleCapabilities(ctx context.Context, id int, capabilities string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return fmt.Errorf("role %d not found", id)
	}
	r.Capabilities = capabilities
	m.roles[id] = r
	return nil
}

func (m *MemStore) GetAllClients(ctx context.Context) ([]model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) AddClient(ctx context.Context, name, document string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.clients[id] = model.Client{ID: id, Name: name, Document: document, IsActive: true}
	return id, nil
}

func (m *MemStore) GetAllCurrencies(ctx context.Context) ([]model.Currency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Currency, 0, len(m.curr))
	for _, c := range m.curr {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MemStore) AddCurrency(ctx context.Context, code, name, symbol string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.curr {
		if c.Code == code {
			return 0, db.ErrDuplicate
		}
	}
	id := m.id()
	m.curr[id] = model.Currency{ID: id, Code: code, Name: name, Symbol: symbol, IsActive: true}
	return id, nil
}

func (m *MemStore) ToggleCurrencyStatus(ctx context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.curr[id]
	if !ok {
		return false, fmt.Errorf("currency %d not found", id)
	}
	c.IsActive = !c.IsActive
	m.curr[id] = c
	return c.IsActive, nil
}

func (m *MemStore) GetAllExchangeRates(ctx context.Context) ([]model.ExchangeRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ExchangeRate, 0, len(m.rates))
	for _, r := range m.rates {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (m *MemStore) UpsertExchangeRate(ctx context.Context, baseCode, quoteCode string, buy, sell float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rates {
		if r.BaseCode == baseCode && r.QuoteCode == quoteCode {
			r.Buy, r.Sell, r.UpdatedAt = buy, sell, time.Now()
			m.rates[id] = r
			return nil
		}
	}
	id := m.id()
	m.rates[id] = model.ExchangeRate{ID: id, BaseCode: baseCode, QuoteCode: quoteCode, Buy: buy, Sell: sell, UpdatedAt: time.Now()}
	return nil
}

func (m *MemStore) GetAllCatalogEntities(ctx context.Context, kind model.CatalogKind) ([]model.CatalogEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.CatalogEntity, 0, len(m.catalog))
	for _, e := range m.catalog {
		if kind != "" && e.Kind != kind {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (m *MemStore) SearchCatalogEntities(ctx context.Context, kind model.CatalogKind, query string) ([]model.CatalogEntity, error) {
	all, _ := m.GetAllCatalogEntities(ctx, kind)
	tokens := db.TokenizeSearchQuery(query)
	out := make([]model.CatalogEntity, 0, len(all))
	for _, e := range all {
		name := strings.ToLower(e.Name)
		match := true
		for _, tok := range tokens {
			if !strings.Contains(name, tok) {
				match = false
				break
			}
		}
		if match {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemStore) GetCatalogEntity(ctx context.Context, id int) (*model.CatalogEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.catalog[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *MemStore) AddCatalogEntity(ctx context.Context, e model.CatalogEntity) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.catalog {
		if other.Kind == e.Kind && other.Name == e.Name {
			return 0, db.ErrDuplicate
		}
	}
	id := m.id()
	e.ID = id
	m.catalog[id] = e
	return id, nil
}

func (m *MemStore) UpdateCatalogEntityCommissions(ctx context.Context, id int, buy, sell float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.catalog[id]
	if !ok {
		return fmt.Errorf("catalog entity %d not found", id)
	}
	e.CommissionBuy, e.CommissionSell = buy, sell
	m.catalog[id] = e
	return nil
}

func (m *MemStore) SetCatalogEntityActive(ctx context.Context, id int, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.catalog[id]
	if !ok {
		return fmt.Errorf("catalog entity %d not found", id)
	}
	e.IsActive = active
	m.catalog[id] = e
	return nil
}

func (m *MemStore) GetInstanceDetail(ctx context.Context, id string) (*model.InstanceDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.details[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *MemStore) GetAllInstanceDetails(ctx context.Context) ([]model.InstanceDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.InstanceDetail, 0, len(m.details))
	for _, d := range m.details {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) ListInstanceDetailsByCatalog(ctx context.Context, catalogID int) ([]model.InstanceDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.InstanceDetail{}
	for _, d := range m.details {
		if d.CatalogEntityID == catalogID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) AddInstanceDetail(ctx context.Context, d model.InstanceDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.details[d.ID]; ok {
		return db.ErrDuplicate
	}
	m.details[d.ID] = d
	return nil
}

func (m *MemStore) DeleteInstanceDetail(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.details, id)
	return nil
}

func (m *MemStore) SetInstanceDetailFlags(ctx context.Context, id string, active, locked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDetailWrites >= 0 && m.detailWrites >= m.FailDetailWrites {
		return fmt.Errorf("injected write failure for detail %s", id)
	}
	d, ok := m.details[id]
	if !ok {
		return fmt.Errorf("detail %s not found", id)
	}
	d.IsActive, d.LockedByCatalog = active, locked
	m.details[id] = d
	m.detailWrites++
	return nil
}

func (m *MemStore) GetAllInstances(ctx context.Context, kind model.CatalogKind) ([]model.Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Instance, 0, len(m.instances))
	for _, i := range m.instances {
		if kind != "" && i.Kind != kind {
			continue
		}
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) GetInstanceByDetail(ctx context.Context, detailID string) (*model.Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.instances {
		if i.DetailID == detailID {
			i := i
			return &i, nil
		}
	}
	return nil, nil
}

func (m *MemStore) AddInstance(ctx context.Context, inst model.Instance) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.instances {
		if other.DetailID == inst.DetailID {
			return 0, db.ErrDuplicate
		}
	}
	id := m.id()
	inst.ID = id
	m.instances[id] = inst
	return id, nil
}

func (m *MemStore) FetchOverview(ctx context.Context, kind model.CatalogKind, filter string) (*model.Overview, error) {
	var (
		ov  model.Overview
		err error
	)
	if filter != "" {
		ov.Catalog, err = m.SearchCatalogEntities(ctx, kind, filter)
	} else {
		ov.Catalog, err = m.GetAllCatalogEntities(ctx, kind)
	}
	if err != nil {
		return nil, err
	}
	if ov.Details, err = m.GetAllInstanceDetails(ctx); err != nil {
		return nil, err
	}
	if ov.Instances, err = m.GetAllInstances(ctx, kind); err != nil {
		return nil, err
	}
	return &ov, nil
}

func (m *MemStore) GetAllAuditLogEntries(ctx context.Context) ([]model.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AuditLogEntry, len(m.audit))
	copy(out, m.audit)
	return out, nil
}

func (m *MemStore) LogAction(ctx context.Context, action string, details string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, model.AuditLogEntry{
		ID:        len(m.audit) + 1,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Username:  "test",
		Action:    action,
		Details:   details,
	})
	return nil
}

func (m *MemStore) ExportDataForBackup(ctx context.Context) (*model.BackupData, error) {
	backup := &model.BackupData{SchemaVersion: 1}
	var err error
	if backup.Users, err = m.GetAllUsers(ctx); err != nil {
		return nil, err
	}
	if backup.Roles, err = m.GetAllRoles(ctx); err != nil {
		return nil, err
	}
	if backup.Clients, err = m.GetAllClients(ctx); err != nil {
		return nil, err
	}
	if backup.Currencies, err = m.GetAllCurrencies(ctx); err != nil {
		return nil, err
	}
	if backup.ExchangeRates, err = m.GetAllExchangeRates(ctx); err != nil {
		return nil, err
	}
	if backup.CatalogEntities, err = m.GetAllCatalogEntities(ctx, ""); err != nil {
		return nil, err
	}
	if backup.InstanceDetails, err = m.GetAllInstanceDetails(ctx); err != nil {
		return nil, err
	}
	if backup.Instances, err = m.GetAllInstances(ctx, ""); err != nil {
		return nil, err
	}
	if backup.AuditLogEntries, err = m.GetAllAuditLogEntries(ctx); err != nil {
		return nil, err
	}
	return backup, nil
}

func (m *MemStore) ImportDataFromBackup(ctx context.Context, backup *model.BackupData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = map[int]model.User{}
	m.roles = map[int]model.Role{}
	m.clients = map[int]model.Client{}
	m.curr = map[int]model.Currency{}
	m.rates = map[int]model.ExchangeRate{}
	m.catalog = map[int]model.CatalogEntity{}
	m.details = map[string]model.InstanceDetail{}
	m.instances = map[int]model.Instance{}
	m.audit = nil
	for _, u := range backup.Users {
		m.users[u.ID] = u
	}
	for _, r := range backup.Roles {
		m.roles[r.ID] = r
	}
	for _, c := range backup.Clients {
		m.clients[c.ID] = c
	}
	for _, c := range backup.Currencies {
		m.curr[c.ID] = c
	}
	for _, r := range backup.ExchangeRates {
		m.rates[r.ID] = r
	}
	for _, e := range backup.CatalogEntities {
		m.catalog[e.ID] = e
	}
	for _, d := range backup.InstanceDetails {
		m.details[d.ID] = d
	}
	for _, i := range backup.Instances {
		m.instances[i.ID] = i
	}
	m.audit = append(m.audit, backup.AuditLogEntries...)
	for id := range m.users {
		if id > m.nextID {
			m.nextID = id
		}
	}
	for id := range m.instances {
		if id > m.nextID {
			m.nextID = id
		}
	}
	return nil
}
