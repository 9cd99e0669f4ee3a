package dto

import (
	"encoding/base64"

	"github.com/keepsakevault/keepsake/internal/vault/domain"
	"github.com/keepsakevault/keepsake/internal/vault/usecase"
)

// ToItemResponse converts a domain vault item to its API representation.
func ToItemResponse(item *domain.VaultItem) ItemResponse {
	return ItemResponse{
		ID:             item.ID,
		Title:          item.Title,
		ContentType:    item.ContentType,
		CurrentVersion: item.CurrentVersion,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
}

// ToItemContentResponse converts a decrypted version to its API
// representation, base64-encoding the plaintext.
func ToItemContentResponse(content *usecase.ItemContent) ItemContentResponse {
	return ItemContentResponse{
		ID:          content.Item.ID,
		Title:       content.Item.Title,
		ContentType: content.Item.ContentType,
		Version:     content.Version,
		Content:     base64.StdEncoding.EncodeToString(content.Content),
	}
}

// ToListItemsResponse converts domain items to the list API representation.
func ToListItemsResponse(items []*domain.VaultItem) ListItemsResponse {
	resp := ListItemsResponse{Items: make([]ItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, ToItemResponse(item))
	}
	return resp
}
