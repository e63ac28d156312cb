package handler

import (
	"passport/internal/commitment"
	"passport/internal/facts/models"
	"passport/pkg/domain"
)

type SetFactRequest struct {
	Value string `json:"value"`
}

type SetPrivateDataRequest struct {
	ContentPointer string            `json:"content_pointer"`
	DataKeyHash    commitment.Digest `json:"data_key_hash"`
}

type PermissionModeRequest struct {
	Mode string `json:"mode"`
}

type AllowListRequest struct {
	Attester domain.Address `json:"attester"`
}

type AllowListResponse struct {
	PassportID domain.PassportID     `json:"passport_id"`
	Mode       models.PermissionMode `json:"mode"`
	Attesters  []domain.Address      `json:"attesters"`
}
