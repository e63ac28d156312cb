// Package events carries the notifications passport services emit when
// facts, permissions, exchanges or the passport itself change.
//
// Events are appended in the same transaction as the change they describe
// and later relayed to Kafka from the outbox.
package events

import (
	"time"

	"github.com/google/uuid"

	ledger "passport/internal/ledger/models"
	"passport/pkg/domain"
)

// Type names an event.
type Type string

const (
	TypePassportCreated           Type = "passport_created"
	TypePassportDestroyed         Type = "passport_destroyed"
	TypeOwnershipTransferProposed Type = "ownership_transfer_proposed"
	TypeOwnershipTransferred      Type = "ownership_transferred"
	TypePaused                    Type = "paused"
	TypeUnpaused                  Type = "unpaused"
	TypeDeposited                 Type = "deposited"

	TypeFactUpdated        Type = "fact_updated"
	TypeFactDeleted        Type = "fact_deleted"
	TypePrivateDataUpdated Type = "private_data_updated"
	TypePrivateDataDeleted Type = "private_data_deleted"

	TypePermissionModeChanged Type = "permission_mode_changed"
	TypeAllowListAdded        Type = "allowlist_added"
	TypeAllowListRemoved      Type = "allowlist_removed"

	TypeExchangeProposed Type = "private_data_exchange_proposed"
	TypeExchangeAccepted Type = "private_data_exchange_accepted"
	TypeExchangeClosed   Type = "private_data_exchange_closed"
	TypeExchangeDisputed Type = "private_data_exchange_disputed"
)

// Event is one notification. Optional fields are nil when the event type
// does not carry them.
type Event struct {
	ID          uuid.UUID         `json:"id"`
	PassportID  domain.PassportID `json:"passport_id"`
	Type        Type              `json:"type"`
	Actor       domain.Address    `json:"actor"`
	Attester    *domain.Address   `json:"attester,omitempty"`
	Key         *domain.FactKey   `json:"key,omitempty"`
	ExchangeIdx *uint64           `json:"exchange_idx,omitempty"`
	Requester   *domain.Address   `json:"requester,omitempty"`
	Owner       *domain.Address   `json:"owner,omitempty"`
	Successful  *bool             `json:"successful,omitempty"`
	Cheater     *domain.Address   `json:"cheater,omitempty"`
	Amount      *ledger.Amount    `json:"amount,omitempty"`
	Detail      string            `json:"detail,omitempty"`
	RequestID   string            `json:"request_id,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// OutboxEntry is an event waiting to be relayed.
type OutboxEntry struct {
	ID        uuid.UUID
	Event     Event
	CreatedAt time.Time
}

// Ptr returns a pointer to v for populating optional event fields.
func Ptr[T any](v T) *T {
	return &v
}
