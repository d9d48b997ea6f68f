package mongo

import (
	"time"

	domaingroup "frontdesk/internal/domain/group"
	domainroom "frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	domainstay "frontdesk/internal/domain/stay"
)

type roomDocument struct {
	ID     string `bson:"_id"`
	Number string `bson:"number"`
	Label  string `bson:"label"`
	Floor  int    `bson:"floor"`
	Type   string `bson:"type"`
}

func newRoomDocument(r *domainroom.Room) roomDocument {
	return roomDocument{ID: string(r.ID), Number: r.Number, Label: r.Label, Floor: r.Floor, Type: r.Type}
}

func (d roomDocument) toDomain() *domainroom.Room {
	return &domainroom.Room{ID: domainroom.RoomID(d.ID), Number: d.Number, Label: d.Label, Floor: d.Floor, Type: d.Type}
}

type stayDocument struct {
	ID        string        `bson:"_id"`
	RoomID    string        `bson:"room_id"`
	Range     rangeDocument `bson:"range"`
	Status    string        `bson:"status"`
	GuestName string        `bson:"guest_name"`
	GroupCode string        `bson:"group_code,omitempty"`
	Guests    int           `bson:"guests"`
	Notes     string        `bson:"notes,omitempty"`
	CreatedAt int64         `bson:"created_at"`
	UpdatedAt int64         `bson:"updated_at"`
	Version   int64         `bson:"version"`
}

func newStayDocument(s *domainstay.Stay) stayDocument {
	return stayDocument{
		ID:        string(s.ID),
		RoomID:    string(s.RoomID),
		Range:     newRangeDocument(s.Range),
		Status:    string(s.Status),
		GuestName: s.GuestName,
		GroupCode: s.GroupCode,
		Guests:    s.Guests,
		Notes:     s.Notes,
		CreatedAt: s.CreatedAt.UnixMilli(),
		UpdatedAt: s.UpdatedAt.UnixMilli(),
		Version:   s.Version,
	}
}

func (d stayDocument) toDomain() *domainstay.Stay {
	return &domainstay.Stay{
		ID:        domainstay.StayID(d.ID),
		RoomID:    domainroom.RoomID(d.RoomID),
		Range:     d.Range.toDomain(),
		Status:    domainstay.Status(d.Status),
		GuestName: d.GuestName,
		GroupCode: d.GroupCode,
		Guests:    d.Guests,
		Notes:     d.Notes,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

type groupDocument struct {
	Code        string        `bson:"_id"`
	Range       rangeDocument `bson:"range"`
	RoomIDs     []string      `bson:"room_ids"`
	Notes       string        `bson:"notes,omitempty"`
	PromoCode   string        `bson:"promo_code,omitempty"`
	VoucherCode string        `bson:"voucher_code,omitempty"`
	CreatedAt   int64         `bson:"created_at"`
}

func newGroupDocument(g *domaingroup.Group) groupDocument {
	ids := make([]string, len(g.RoomIDs))
	for i, id := range g.RoomIDs {
		ids[i] = string(id)
	}
	return groupDocument{
		Code:        g.Code,
		Range:       newRangeDocument(g.Range),
		RoomIDs:     ids,
		Notes:       g.Notes,
		PromoCode:   g.PromoCode,
		VoucherCode: g.VoucherCode,
		CreatedAt:   g.CreatedAt.UnixMilli(),
	}
}

func (d groupDocument) toDomain() *domaingroup.Group {
	ids := make([]domainroom.RoomID, len(d.RoomIDs))
	for i, id := range d.RoomIDs {
		ids[i] = domainroom.RoomID(id)
	}
	return &domaingroup.Group{
		Code:        d.Code,
		Range:       d.Range.toDomain(),
		RoomIDs:     ids,
		Notes:       d.Notes,
		PromoCode:   d.PromoCode,
		VoucherCode: d.VoucherCode,
		CreatedAt:   timestampToTime(d.CreatedAt),
	}
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func newRangeDocument(dr daterange.DateRange) rangeDocument {
	return rangeDocument{CheckIn: dr.CheckIn.UnixMilli(), CheckOut: dr.CheckOut.UnixMilli()}
}

func (d rangeDocument) toDomain() daterange.DateRange {
	return daterange.DateRange{CheckIn: timestampToTime(d.CheckIn), CheckOut: timestampToTime(d.CheckOut)}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
