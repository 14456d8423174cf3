package testutil

import (
	"context"
	"sync"

	common_models "go-approvals/internal/common/models"
)

// AuditRecorder satisfies audit.AuditService and keeps entries in memory.
type AuditRecorder struct {
	mu      sync.Mutex
	Entries []common_models.AuditLog
}

func (r *AuditRecorder) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, common_models.AuditLog{
		Action:   action,
		Module:   module,
		RecordID: recordID,
		Changes:  changes,
	})
	return nil
}

func (r *AuditRecorder) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]common_models.AuditLog(nil), r.Entries...), nil
}

// Actions returns the recorded actions in order.
func (r *AuditRecorder) Actions() []common_models.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]common_models.AuditAction, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e.Action)
	}
	return out
}
