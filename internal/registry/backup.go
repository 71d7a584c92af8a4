// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/veloretti/cambiodesk/internal/access"
	"github.com/veloretti/cambiodesk/internal/model"
)

// WriteBackup exports every table as zstd-compressed JSON to w.
func (s *Service) WriteBackup(ctx context.Context, w io.Writer) error {
	if err := access.Require(s.caps.Capabilities(), reqBackupManage); err != nil {
		return err
	}
	backup, err := s.store.ExportDataForBackup(ctx)
	if err != nil {
		return fmt.Errorf("failed to export data: %w", err)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create compressor: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		_ = zw.Close()
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish compression: %w", err)
	}

	s.audit(ctx, "EXPORT_BACKUP", fmt.Sprintf("schema_version: %d", backup.SchemaVersion))
	return nil
}

// ReadBackup wipes the database and replaces its contents with the
// zstd-compressed JSON backup read from r.
func (s *Service) ReadBackup(ctx context.Context, r io.Reader) error {
	if err := access.Require(s.caps.Capabilities(), reqBackupManage); err != nil {
		return err
	}
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to create decompressor: %w", err)
	}
	defer zr.Close()

	var backup struct {
		SchemaVersion int `json:"schema_version"`
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("failed to read backup stream: %w", err)
	}
	if err := json.Unmarshal(raw, &backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.SchemaVersion != 1 {
		return fmt.Errorf("unsupported backup schema version: %d", backup.SchemaVersion)
	}

	data := &model.BackupData{}
	if err := json.Unmarshal(raw, data); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if err := s.store.ImportDataFromBackup(ctx, data); err != nil {
		return fmt.Errorf("failed to import backup: %w", err)
	}

	s.audit(ctx, "IMPORT_BACKUP", fmt.Sprintf("schema_version: %d", backup.SchemaVersion))
	s.refresh(ctx)
	return nil
}
