package stays

import (
	"context"
	"strings"

	"frontdesk/internal/app/dto"
	handlersupport "frontdesk/internal/app/handlers/support"
	"frontdesk/internal/app/queries"
	"frontdesk/internal/app/uow"
	domainstay "frontdesk/internal/domain/stay"
)

const getStayKey = "stays.get"

type GetStayQuery struct {
	StayID string `json:"stay_id" validate:"required"`
}

func (q GetStayQuery) Key() string { return getStayKey }

type GetStayHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetStayHandler) Handle(ctx context.Context, q GetStayQuery) (dto.StayRef, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.StayRef{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	s, err := unit.Stays().ByID(execCtx, domainstay.StayID(strings.TrimSpace(q.StayID)))
	if err != nil {
		return dto.StayRef{}, err
	}
	return dto.MapStay(s), nil
}

var _ queries.Handler[GetStayQuery, dto.StayRef] = (*GetStayHandler)(nil)
