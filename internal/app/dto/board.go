package dto

import (
	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/shared/daterange"
)

// BoardEvent is one bar on the reservation calendar.
type BoardEvent struct {
	StayID    string `json:"stay_id"`
	RoomID    string `json:"room_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Status    string `json:"status"`
	GuestName string `json:"guest_name,omitempty"`
}

type BoardRow struct {
	RoomID      string       `json:"room_id"`
	Label       string       `json:"label"`
	Events      []BoardEvent `json:"events"`
	ArrivalDays []string     `json:"arrival_days"`
}

type Board struct {
	From string     `json:"from"`
	To   string     `json:"to"`
	Rows []BoardRow `json:"rows"`
}

// MapBoardRow projects an index onto the window, keeping the ranges that overlap it.
func MapBoardRow(idx *availability.Index, window daterange.DateRange) BoardRow {
	row := BoardRow{RoomID: string(idx.RoomID), Label: idx.DisplayLabel(), Events: []BoardEvent{}, ArrivalDays: []string{}}
	for _, br := range idx.BlockingRanges {
		if !window.IsZero() && !br.Range.Overlaps(window) {
			continue
		}
		row.Events = append(row.Events, BoardEvent{
			StayID:    string(br.StayID),
			RoomID:    string(idx.RoomID),
			Start:     daterange.FormatDay(br.Range.CheckIn),
			End:       daterange.FormatDay(br.Range.CheckOut),
			Status:    string(br.Status),
			GuestName: br.GuestName,
		})
	}
	for _, d := range idx.ArrivalDays.Sorted() {
		if !window.IsZero() && !window.ContainsDate(d) {
			continue
		}
		row.ArrivalDays = append(row.ArrivalDays, daterange.FormatDay(d))
	}
	return row
}
