package handler

import (
	"time"

	"passport/internal/commitment"
	"passport/internal/exchange/models"
	ledger "passport/internal/ledger/models"
	"passport/pkg/domain"
)

// ProposeRequest is the requester's side of a new exchange. The encrypted
// exchange key is opaque to the engine and relayed to the owner as is.
type ProposeRequest struct {
	Attester             domain.Address    `json:"attester"`
	Key                  domain.FactKey    `json:"key"`
	EncryptedExchangeKey domain.HexBytes   `json:"encrypted_exchange_key"`
	ExchangeKeyHash      commitment.Digest `json:"exchange_key_hash"`
	Stake                ledger.Amount     `json:"stake"`
}

func (r ProposeRequest) toProposal(requester domain.Address) models.Proposal {
	return models.Proposal{
		Requester:            requester,
		Attester:             r.Attester,
		Key:                  r.Key,
		EncryptedExchangeKey: r.EncryptedExchangeKey,
		ExchangeKeyHash:      r.ExchangeKeyHash,
		Stake:                r.Stake,
	}
}

type AcceptRequest struct {
	EncryptedDataKey commitment.Key `json:"encrypted_data_key"`
	Stake            ledger.Amount  `json:"stake"`
}

type DisputeRequest struct {
	ExchangeKey commitment.Key `json:"exchange_key"`
}

// Response is the HTTP view of an exchange record. EncryptedDataKey is all
// zeros until the owner accepts.
type Response struct {
	PassportID           domain.PassportID `json:"passport_id"`
	Index                uint64            `json:"index"`
	State                models.State      `json:"state"`
	StateExpiry          time.Time         `json:"state_expiry"`
	Requester            domain.Address    `json:"requester"`
	RequesterStake       ledger.Amount     `json:"requester_stake"`
	Owner                domain.Address    `json:"owner"`
	OwnerStake           ledger.Amount     `json:"owner_stake"`
	Attester             domain.Address    `json:"attester"`
	Key                  domain.FactKey    `json:"key"`
	ContentPointer       string            `json:"content_pointer"`
	DataKeyHash          commitment.Digest `json:"data_key_hash"`
	EncryptedExchangeKey domain.HexBytes   `json:"encrypted_exchange_key"`
	ExchangeKeyHash      commitment.Digest `json:"exchange_key_hash"`
	EncryptedDataKey     commitment.Key    `json:"encrypted_data_key"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

type ListResponse struct {
	Exchanges []*Response `json:"exchanges"`
}

type DisputeResponse struct {
	Exchange   *Response      `json:"exchange"`
	Successful bool           `json:"successful"`
	Cheater    domain.Address `json:"cheater"`
	Winner     domain.Address `json:"winner"`
}

func toResponse(e *models.Exchange) *Response {
	return &Response{
		PassportID:           e.PassportID,
		Index:                e.Index,
		State:                e.State,
		StateExpiry:          e.StateExpiry,
		Requester:            e.Requester,
		RequesterStake:       e.RequesterStake,
		Owner:                e.Owner,
		OwnerStake:           e.OwnerStake,
		Attester:             e.Attester,
		Key:                  e.Key,
		ContentPointer:       e.ContentPointer,
		DataKeyHash:          e.DataKeyHash,
		EncryptedExchangeKey: e.EncryptedExchangeKey,
		ExchangeKeyHash:      e.ExchangeKeyHash,
		EncryptedDataKey:     e.EncryptedDataKey,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}
