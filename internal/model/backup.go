// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.
package model

// BackupData is a container for all data exported in a backup. It holds
// slices of every core table in Cambiodesk.
type BackupData struct {
	// SchemaVersion helps in handling migrations during restore.
	SchemaVersion int `json:"schema_version"`

	// Data from each table.
	Users           []User           `json:"users"`
	Roles           []Role           `json:"roles"`
	Clients         []Client         `json:"clients"`
	Currencies      []Currency       `json:"currencies"`
	ExchangeRates   []ExchangeRate   `json:"exchange_rates"`
	CatalogEntities []CatalogEntity  `json:"catalog_entities"`
	InstanceDetails []InstanceDetail `json:"instance_details"`
	Instances       []Instance       `json:"instances"`
	AuditLogEntries []AuditLogEntry  `json:"audit_log_entries"`
}
