package dto

import (
	"time"

	"frontdesk/internal/domain/group"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

type Group struct {
	Code        string    `json:"group_code"`
	CheckIn     string    `json:"check_in"`
	CheckOut    string    `json:"check_out"`
	RoomIDs     []string  `json:"room_ids"`
	Notes       string    `json:"notes,omitempty"`
	PromoCode   string    `json:"promo_code,omitempty"`
	VoucherCode string    `json:"voucher_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Stays       []StayRef `json:"stays"`
}

func MapGroup(g *group.Group, stays []*stay.Stay) Group {
	out := Group{
		Code:        g.Code,
		CheckIn:     daterange.FormatDay(g.Range.CheckIn),
		CheckOut:    daterange.FormatDay(g.Range.CheckOut),
		RoomIDs:     make([]string, 0, len(g.RoomIDs)),
		Notes:       g.Notes,
		PromoCode:   g.PromoCode,
		VoucherCode: g.VoucherCode,
		CreatedAt:   g.CreatedAt,
		Stays:       make([]StayRef, 0, len(stays)),
	}
	for _, id := range g.RoomIDs {
		out.RoomIDs = append(out.RoomIDs, string(id))
	}
	for _, s := range stays {
		out.Stays = append(out.Stays, MapStay(s))
	}
	return out
}
