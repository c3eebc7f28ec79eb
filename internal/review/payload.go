package review

import (
	"encoding/json"
	"fmt"

	"github.com/mythictransfers/supportdesk/internal/crypto"
	"github.com/mythictransfers/supportdesk/internal/models"
)

// payload is the customer content of an item, stored as one sealed blob.
type payload struct {
	Email    *models.InboundMessage `json:"email"`
	Analysis *models.Analysis       `json:"analysis,omitempty"`
	Draft    *models.DraftResponse  `json:"draft"`
}

// codec serializes payloads, sealing them when a Sealer is configured.
type codec struct {
	sealer *crypto.Sealer
}

func (c codec) encode(item *models.ReviewItem) ([]byte, error) {
	data, err := json.Marshal(payload{Email: item.Email, Analysis: item.Analysis, Draft: item.Draft})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal review payload: %w", err)
	}
	if c.sealer == nil {
		return data, nil
	}
	return c.sealer.Seal(data, item.ID)
}

func (c codec) decode(item *models.ReviewItem, data []byte) error {
	if c.sealer != nil {
		opened, err := c.sealer.Open(data, item.ID)
		if err != nil {
			return fmt.Errorf("failed to open review payload %s: %w", item.ID, err)
		}
		data = opened
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to unmarshal review payload %s: %w", item.ID, err)
	}
	item.Email = p.Email
	item.Analysis = p.Analysis
	item.Draft = p.Draft
	return nil
}
