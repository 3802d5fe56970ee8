package audit

import "time"

// EventRecord is an immutable audit event row. One record is written for
// every versioning operation, successful or not.
type EventRecord struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	Action    string    `gorm:"column:action;index:idx_audit_action_time,priority:1;not null"`
	VersionID string    `gorm:"column:version_id;index"`
	UserName  string    `gorm:"column:user_name;index:idx_audit_user_time,priority:1;not null"`
	Outcome   string    `gorm:"column:outcome;not null"` // success, failure
	Reason    string    `gorm:"column:reason"`
	CreatedAt time.Time `gorm:"column:created_at;index:idx_audit_action_time,priority:2;index:idx_audit_user_time,priority:2;autoCreateTime"`
}

// TableName returns the GORM table name.
func (EventRecord) TableName() string { return "audit_events" }
