package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"frontdesk/internal/app/dto"
	"frontdesk/internal/app/groupbooking"
	"frontdesk/internal/app/mutation"
	"frontdesk/internal/domain/availability"
	"frontdesk/internal/domain/room"
	"frontdesk/internal/domain/shared/daterange"
	"frontdesk/internal/domain/stay"
)

const apiPrefix = "/api/v1"

// Client talks to the reservation API over HTTP. It serves the same ports as
// the in-process gateway, so the scheduling core can run on a separate host.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *slog.Logger
	// NewKey generates Idempotency-Key values for create requests.
	NewKey func() string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		NewKey:  uuid.NewString,
	}
}

func (c *Client) RoomSnapshot(ctx context.Context, roomID room.RoomID, today time.Time) (availability.RoomSnapshot, error) {
	path := fmt.Sprintf("%s/rooms/%s/snapshot?today=%s", apiPrefix, url.PathEscape(string(roomID)), daterange.FormatDay(today))
	var snap dto.RoomSnapshot
	if err := c.do(ctx, http.MethodGet, path, nil, "", &snap); err != nil {
		return availability.RoomSnapshot{}, err
	}
	return snap.ToDomain()
}

// StayByID reads one stay. A 404 is reported as stay.ErrStayNotFound.
func (c *Client) StayByID(ctx context.Context, id stay.StayID) (dto.StayRef, error) {
	var out dto.StayRef
	err := c.do(ctx, http.MethodGet, apiPrefix+"/stays/"+url.PathEscape(string(id)), nil, "", &out)
	if errors.Is(err, ErrNotFound) {
		return dto.StayRef{}, fmt.Errorf("%w: %v", stay.ErrStayNotFound, err)
	}
	return out, err
}

type updateStayBody struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	RoomID   string `json:"room_id,omitempty"`
}

func (c *Client) UpdateStay(ctx context.Context, stayID stay.StayID, req mutation.UpdateStayRequest) (dto.StayRef, error) {
	body := updateStayBody{
		CheckIn:  daterange.FormatDay(req.CheckIn),
		CheckOut: daterange.FormatDay(req.CheckOut),
		RoomID:   string(req.RoomID),
	}
	var out dto.StayRef
	err := c.do(ctx, http.MethodPatch, apiPrefix+"/stays/"+url.PathEscape(string(stayID)), body, "", &out)
	return out, err
}

type createStayBody struct {
	RoomID    string `json:"room_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	GuestName string `json:"guest_name"`
	Guests    int    `json:"guests,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (c *Client) CreateStay(ctx context.Context, req mutation.CreateStayRequest) (dto.StayRef, error) {
	body := createStayBody{
		RoomID:    string(req.RoomID),
		CheckIn:   daterange.FormatDay(req.CheckIn),
		CheckOut:  daterange.FormatDay(req.CheckOut),
		GuestName: req.GuestName,
		Guests:    req.Guests,
		Notes:     req.Notes,
	}
	var out dto.StayRef
	err := c.do(ctx, http.MethodPost, apiPrefix+"/stays", body, c.key(), &out)
	return out, err
}

type groupRoomBody struct {
	RoomID    string `json:"room_id"`
	GuestName string `json:"guest_name"`
	Guests    int    `json:"guests,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type createGroupBody struct {
	CheckIn     string          `json:"check_in"`
	CheckOut    string          `json:"check_out"`
	Rooms       []groupRoomBody `json:"rooms"`
	Notes       string          `json:"notes,omitempty"`
	PromoCode   string          `json:"promo_code,omitempty"`
	VoucherCode string          `json:"voucher_code,omitempty"`
}

type groupResult struct {
	GroupCode string        `json:"group_code"`
	Stays     []dto.StayRef `json:"stays"`
}

func (c *Client) CreateGroup(ctx context.Context, req groupbooking.GroupBookingRequest) (dto.Group, error) {
	body := createGroupBody{
		CheckIn:     daterange.FormatDay(req.CheckIn),
		CheckOut:    daterange.FormatDay(req.CheckOut),
		Notes:       req.Notes,
		PromoCode:   req.PromoCode,
		VoucherCode: req.VoucherCode,
		Rooms:       make([]groupRoomBody, 0, len(req.Rooms)),
	}
	for _, r := range req.Rooms {
		body.Rooms = append(body.Rooms, groupRoomBody{RoomID: string(r.RoomID), GuestName: r.GuestName, Guests: r.Guests, Notes: r.Notes})
	}
	key := req.IdempotencyKey
	if key == "" {
		key = c.key()
	}
	var res groupResult
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/groups", body, key, &res); err != nil {
		return dto.Group{}, err
	}
	out := dto.Group{Code: res.GroupCode, CheckIn: body.CheckIn, CheckOut: body.CheckOut, Stays: res.Stays}
	for _, s := range res.Stays {
		out.RoomIDs = append(out.RoomIDs, s.RoomID)
	}
	return out, nil
}

func (c *Client) key() string {
	if c.NewKey == nil {
		return uuid.NewString()
	}
	return c.NewKey()
}

func (c *Client) do(ctx context.Context, method, path string, in any, idempotencyKey string, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if c.Logger != nil {
		c.Logger.DebugContext(ctx, "reservation api call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("apiclient: decode %s %s: %w", method, path, err)
	}
	return nil
}
