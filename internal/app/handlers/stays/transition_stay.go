package stays

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"frontdesk/internal/app/commands"
	"frontdesk/internal/app/dto"
	handlersupport "frontdesk/internal/app/handlers/support"
	"frontdesk/internal/app/outbox"
	"frontdesk/internal/app/uow"
	domainstay "frontdesk/internal/domain/stay"
)

const transitionStayKey = "stays.transition"

const (
	ActionConfirm  = "confirm"
	ActionCheckIn  = "check_in"
	ActionCheckOut = "check_out"
	ActionCancel   = "cancel"
	ActionNoShow   = "no_show"
)

type TransitionStayCommand struct {
	StayID string `json:"stay_id" validate:"required"`
	Action string `json:"action" validate:"required,oneof=confirm check_in check_out cancel no_show"`
}

func (c TransitionStayCommand) Key() string { return transitionStayKey }

type TransitionStayHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *TransitionStayHandler) Handle(ctx context.Context, cmd TransitionStayCommand) (*dto.StayRef, error) {
	unit, execCtx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	res, err := h.transition(execCtx, unit, cmd)
	if finish != nil {
		err = finish(err)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (h *TransitionStayHandler) transition(ctx context.Context, unit uow.UnitOfWork, cmd TransitionStayCommand) (*dto.StayRef, error) {
	s, err := unit.Stays().ByID(ctx, domainstay.StayID(strings.TrimSpace(cmd.StayID)))
	if err != nil {
		return nil, err
	}
	now := nowFunc(h.Now)().UTC()
	from := s.Status

	switch strings.ToLower(strings.TrimSpace(cmd.Action)) {
	case ActionConfirm:
		err = s.Confirm(now)
	case ActionCheckIn:
		err = s.CheckIn(now)
	case ActionCheckOut:
		err = s.CheckOut(now)
	case ActionCancel:
		err = s.Cancel(now)
	case ActionNoShow:
		err = s.MarkNoShow(now)
	default:
		return nil, fmt.Errorf("%w: action %q", domainstay.ErrInvalidState, cmd.Action)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s from %s", err, cmd.Action, from)
	}
	if err := unit.Stays().Save(ctx, s); err != nil {
		return nil, err
	}
	if err := recordEvents(ctx, h.Outbox, h.Encoder, s); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("stay status changed", "stay_id", s.ID, "from", from, "to", s.Status)
	}
	ref := dto.MapStay(s)
	return &ref, nil
}

var _ commands.Handler[TransitionStayCommand, *dto.StayRef] = (*TransitionStayHandler)(nil)
