package shield

import (
	"errors"
	"fmt"

	"github.com/ericalber/shield/backup"
)

// CreateBackup bundles every registered store into one record, compressing
// and encrypting the payload per configuration.
func (s *Shield) CreateBackup() (backup.Record, error) {
	if s == nil {
		return backup.Record{}, ErrNotReady
	}
	if s.backups == nil {
		return backup.Record{}, ErrBackupsDisabled
	}
	record, err := s.backups.Create()
	if err != nil {
		s.emitAudit(auditEventBackupFailed, "", func() map[string]string {
			return map[string]string{"error": err.Error()}
		})
		return backup.Record{}, fmt.Errorf("shield: create backup: %w", err)
	}
	s.metrics.inc(MetricBackupCreated)
	s.emitAudit(auditEventBackupCreated, "", func() map[string]string {
		return map[string]string{"backup_id": record.ID}
	})
	return record, nil
}

// RestoreBackup replaces the state of every registered store from one
// backup. Restoration is all-or-nothing: any integrity failure leaves
// current state untouched.
func (s *Shield) RestoreBackup(id string) error {
	if s == nil {
		return ErrNotReady
	}
	if s.backups == nil {
		return ErrBackupsDisabled
	}
	if err := s.backups.Restore(id); err != nil {
		s.emitAudit(auditEventBackupFailed, "", func() map[string]string {
			return map[string]string{"backup_id": id, "error": err.Error()}
		})
		switch {
		case errors.Is(err, backup.ErrNotFound):
			return ErrBackupNotFound
		case errors.Is(err, backup.ErrIntegrity):
			return ErrBackupIntegrity
		default:
			return fmt.Errorf("shield: restore backup: %w", err)
		}
	}
	s.metrics.inc(MetricBackupRestored)
	s.emitAudit(auditEventBackupRestored, "", func() map[string]string {
		return map[string]string{"backup_id": id}
	})
	return nil
}

// ListBackups returns the retained backup records, oldest first.
func (s *Shield) ListBackups() []backup.Record {
	if s == nil || s.backups == nil {
		return nil
	}
	return s.backups.List()
}
