package pgstore

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vanshika/downline/internal/domain"
)

func toProfileModel(m domain.Member) *ProfileModel {
	model := &ProfileModel{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		IsAdmin:   m.IsAdmin,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	if m.ParentID != "" {
		parent := m.ParentID
		model.UplineID = &parent
	}
	return model
}

func toDomainMember(model *ProfileModel) domain.Member {
	m := domain.Member{
		ID:        model.ID,
		FirstName: model.FirstName,
		LastName:  model.LastName,
		Email:     model.Email,
		IsAdmin:   model.IsAdmin,
		CreatedAt: model.CreatedAt.UTC(),
		UpdatedAt: model.UpdatedAt.UTC(),
	}
	if model.UplineID != nil {
		m.ParentID = *model.UplineID
	}
	return m
}

func toDealModel(d domain.Deal) *DealModel {
	return &DealModel{
		ID:             d.ID,
		AgentID:        d.OwnerID,
		OccurredAt:     d.OccurredAt.UTC(),
		MonthlyPremium: premiumText(d.Premium),
		Carrier:        d.Carrier,
		Product:        d.Product,
		Status:         d.Status,
		ClientName:     d.ClientName,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

func toDomainDeal(model *DealModel) domain.Deal {
	d := domain.Deal{
		ID:         model.ID,
		OwnerID:    model.AgentID,
		OccurredAt: model.OccurredAt.UTC(),
		Carrier:    model.Carrier,
		Product:    model.Product,
		Status:     model.Status,
		ClientName: model.ClientName,
		CreatedAt:  model.CreatedAt.UTC(),
		UpdatedAt:  model.UpdatedAt.UTC(),
	}
	if model.MonthlyPremium != nil {
		d.Premium = *model.MonthlyPremium
	}
	return d
}

// premiumText renders a premium into the text column; nil stays NULL.
func premiumText(v any) *string {
	var s string
	switch p := v.(type) {
	case nil:
		return nil
	case string:
		s = p
	case float64:
		s = strconv.FormatFloat(p, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(p), 'f', -1, 32)
	case decimal.Decimal:
		s = p.String()
	case json.Number:
		s = p.String()
	case []byte:
		s = string(p)
	default:
		s = fmt.Sprint(p)
	}
	return &s
}
