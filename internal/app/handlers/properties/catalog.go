package properties

import (
	"context"
	"strings"

	"homekrypto/internal/app/dto"
	handlersupport "homekrypto/internal/app/handlers/support"
	"homekrypto/internal/app/queries"
	"homekrypto/internal/app/uow"
	domainproperty "homekrypto/internal/domain/property"
)

const (
	listPropertiesKey = "properties.list"
	getPropertyKey    = "properties.get"
)

type ListPropertiesQuery struct{}

func (q ListPropertiesQuery) Key() string { return listPropertiesKey }

type ListPropertiesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListPropertiesHandler) Handle(ctx context.Context, _ ListPropertiesQuery) (dto.PropertyCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PropertyCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	props, err := unit.Properties().ListActive(execCtx)
	if err != nil {
		return dto.PropertyCollection{}, err
	}
	items := make([]dto.PropertyDTO, 0, len(props))
	for _, p := range props {
		items = append(items, dto.MapProperty(p))
	}
	return dto.PropertyCollection{Items: items}, nil
}

type GetPropertyQuery struct {
	PropertyID string
}

func (q GetPropertyQuery) Key() string { return getPropertyKey }

type GetPropertyHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetPropertyHandler) Handle(ctx context.Context, q GetPropertyQuery) (dto.PropertyDTO, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PropertyDTO{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	id := strings.TrimSpace(q.PropertyID)
	if id == "" {
		return dto.PropertyDTO{}, domainproperty.ErrNotFound
	}
	prop, err := unit.Properties().ByID(execCtx, domainproperty.ID(id))
	if err != nil {
		return dto.PropertyDTO{}, err
	}
	return dto.MapProperty(prop), nil
}

var _ queries.Handler[ListPropertiesQuery, dto.PropertyCollection] = (*ListPropertiesHandler)(nil)
var _ queries.Handler[GetPropertyQuery, dto.PropertyDTO] = (*GetPropertyHandler)(nil)
