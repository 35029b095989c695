package dto

import domainshares "homekrypto/internal/domain/shares"

type UserSharesDTO struct {
	PropertyID   string `json:"propertyId"`
	HasShares    bool   `json:"hasShares"`
	TotalShares  int    `json:"totalShares"`
	FreeWeekUsed bool   `json:"freeWeekUsed"`
}

func MapUserShares(o domainshares.Ownership) UserSharesDTO {
	return UserSharesDTO{
		PropertyID:   string(o.PropertyID),
		HasShares:    o.HasShares(),
		TotalShares:  o.SharesOwned,
		FreeWeekUsed: o.HasUsedFreeWeek,
	}
}
