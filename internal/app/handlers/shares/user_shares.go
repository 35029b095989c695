package shares

import (
	"context"
	"errors"
	"strings"

	"homekrypto/internal/app/dto"
	handlersupport "homekrypto/internal/app/handlers/support"
	"homekrypto/internal/app/queries"
	"homekrypto/internal/app/uow"
	domainproperty "homekrypto/internal/domain/property"
	domainuser "homekrypto/internal/domain/user"
)

const userSharesKey = "shares.user"

type UserSharesQuery struct {
	UserID     string
	PropertyID string
}

func (q UserSharesQuery) Key() string { return userSharesKey }

type UserSharesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UserSharesHandler) Handle(ctx context.Context, q UserSharesQuery) (dto.UserSharesDTO, error) {
	userID := strings.TrimSpace(q.UserID)
	if userID == "" {
		return dto.UserSharesDTO{}, errors.New("shares: user id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.UserSharesDTO{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Property must exist; a missing id is a 404, not an empty position.
	prop, err := unit.Properties().ByID(execCtx, domainproperty.ID(q.PropertyID))
	if err != nil {
		return dto.UserSharesDTO{}, err
	}

	ownership, err := unit.Shares().Ownership(execCtx, domainuser.ID(userID), prop.ID)
	if err != nil {
		return dto.UserSharesDTO{}, err
	}
	out := dto.MapUserShares(ownership)
	out.PropertyID = string(prop.ID)
	return out, nil
}

var _ queries.Handler[UserSharesQuery, dto.UserSharesDTO] = (*UserSharesHandler)(nil)
