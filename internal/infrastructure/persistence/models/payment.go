package models

import (
	"time"

	"github.com/koperasi/backend/internal/domain/payment"
	"github.com/koperasi/backend/internal/domain/shared"
)

// MovementModel is the persistence model for money movements.
// The unique index on (organization_id, reference_id) is the storage-level
// guarantee that one business reference produces at most one movement.
type MovementModel struct {
	OrgAggregateModel
	Type           string     `gorm:"size:32;not null"`
	ReferenceType  string     `gorm:"size:64;not null"`
	ReferenceID    string     `gorm:"size:128;not null;uniqueIndex:idx_movements_org_ref,composite:org"`
	Method         string     `gorm:"size:32;not null"`
	Provider       string     `gorm:"size:64"`
	AmountMinor    int64      `gorm:"not null"`
	Status         string     `gorm:"size:16;not null;index"`
	ExternalID     string     `gorm:"size:128;index"`
	ExpiresAt      *time.Time `gorm:""`
	WebhookPayload []byte     `gorm:"type:bytea"`
	FailureReason  string     `gorm:"size:512"`
	SettledAt      *time.Time `gorm:""`
}

// TableName returns the table name for MovementModel
func (MovementModel) TableName() string {
	return "money_movements"
}

// ToDomain converts the model to a domain Movement
func (m *MovementModel) ToDomain() *payment.Movement {
	mv := &payment.Movement{
		Type:           payment.MovementType(m.Type),
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
		Method:         payment.Method(m.Method),
		Provider:       m.Provider,
		AmountMinor:    m.AmountMinor,
		Status:         payment.Status(m.Status),
		ExternalID:     m.ExternalID,
		ExpiresAt:      m.ExpiresAt,
		WebhookPayload: m.WebhookPayload,
		FailureReason:  m.FailureReason,
		SettledAt:      m.SettledAt,
	}
	m.PopulateOrgAggregateRoot(&mv.OrgAggregateRoot)
	return mv
}

// FromDomain populates the model from a domain Movement
func (m *MovementModel) FromDomain(mv *payment.Movement) {
	m.FromDomainOrgAggregateRoot(mv.OrgAggregateRoot)
	m.Type = string(mv.Type)
	m.ReferenceType = mv.ReferenceType
	m.ReferenceID = mv.ReferenceID
	m.Method = string(mv.Method)
	m.Provider = mv.Provider
	m.AmountMinor = mv.AmountMinor
	m.Status = mv.Status.String()
	m.ExternalID = mv.ExternalID
	m.ExpiresAt = mv.ExpiresAt
	m.WebhookPayload = mv.WebhookPayload
	m.FailureReason = mv.FailureReason
	m.SettledAt = mv.SettledAt
}

// IdempotencyRecordModel is the persistence model for operation guard records.
// The primary key on Key is the claim's serialization point: the first insert
// wins, every later insert for the same key conflicts.
type IdempotencyRecordModel struct {
	Key            string     `gorm:"size:64;primary_key"`
	Fingerprint    string     `gorm:"size:64;not null"`
	Status         string     `gorm:"size:16;not null"`
	ResultSnapshot []byte     `gorm:"type:bytea"`
	CreatedAt      time.Time  `gorm:"not null"`
	CompletedAt    *time.Time `gorm:""`
}

// TableName returns the table name for IdempotencyRecordModel
func (IdempotencyRecordModel) TableName() string {
	return "idempotency_records"
}

// ToDomain converts the model to a domain IdempotencyRecord
func (m *IdempotencyRecordModel) ToDomain() *shared.IdempotencyRecord {
	return &shared.IdempotencyRecord{
		Key:            m.Key,
		Fingerprint:    m.Fingerprint,
		Status:         shared.IdempotencyStatus(m.Status),
		ResultSnapshot: m.ResultSnapshot,
		CreatedAt:      m.CreatedAt,
		CompletedAt:    m.CompletedAt,
	}
}

// FromDomain populates the model from a domain IdempotencyRecord
func (m *IdempotencyRecordModel) FromDomain(r *shared.IdempotencyRecord) {
	m.Key = r.Key
	m.Fingerprint = r.Fingerprint
	m.Status = string(r.Status)
	m.ResultSnapshot = r.ResultSnapshot
	m.CreatedAt = r.CreatedAt
	m.CompletedAt = r.CompletedAt
}
