package groups

import (
	"context"
	"strings"

	"frontdesk/internal/app/dto"
	handlersupport "frontdesk/internal/app/handlers/support"
	"frontdesk/internal/app/queries"
	"frontdesk/internal/app/uow"
)

const getGroupKey = "groups.get"

type GetGroupQuery struct {
	Code string `json:"group_code" validate:"required"`
}

func (q GetGroupQuery) Key() string { return getGroupKey }

type GetGroupHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetGroupHandler) Handle(ctx context.Context, q GetGroupQuery) (dto.Group, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Group{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	code := strings.ToUpper(strings.TrimSpace(q.Code))
	g, err := unit.Groups().ByCode(execCtx, code)
	if err != nil {
		return dto.Group{}, err
	}
	stays, err := unit.Stays().ListByGroup(execCtx, g.Code)
	if err != nil {
		return dto.Group{}, err
	}
	return dto.MapGroup(g, stays), nil
}

var _ queries.Handler[GetGroupQuery, dto.Group] = (*GetGroupHandler)(nil)
