package venues

import (
	"context"
	"errors"
	"math"
	"time"

	"courtside/internal/shared/constants"
	"courtside/pkg/cache"

	"github.com/google/uuid"
)

var ErrInvalidSlotGrid = errors.New("close hour must leave room for at least one slot")

type Service interface {
	SetCacheService(cacheService cache.Service)
	SetHeldSlotSource(source HeldSlotSource)

	CreateVenue(ctx context.Context, userID uuid.UUID, req CreateVenueRequest) (*VenueResponse, error)
	GetVenueByID(ctx context.Context, id uuid.UUID) (*VenueResponse, error)
	UpdateVenue(ctx context.Context, id uuid.UUID, userID uuid.UUID, req UpdateVenueRequest) (*VenueResponse, error)
	ListVenues(ctx context.Context, query VenueListQuery) (*PaginatedVenues, error)

	CreateCourt(ctx context.Context, venueID uuid.UUID, req CreateCourtRequest) (*CourtResponse, error)
	GetCourtSlots(ctx context.Context, courtID uuid.UUID, date string) ([]SlotResponse, error)
}

// HeldSlotSource reports which slot keys currently carry an active hold.
// Implemented by the holds service and injected at wire-up to keep the
// package graph acyclic.
type HeldSlotSource interface {
	HeldSlotKeys(ctx context.Context, slotKeys []string) (map[string]bool, error)
}

type service struct {
	repo         Repository
	cacheService cache.Service
	heldSlots    HeldSlotSource
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) SetHeldSlotSource(source HeldSlotSource) {
	s.heldSlots = source
}

func (s *service) CreateVenue(ctx context.Context, userID uuid.UUID, req CreateVenueRequest) (*VenueResponse, error) {
	venue := &Venue{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		Phone:       req.Phone,
		ImageURL:    req.ImageURL,
		Status:      StatusDraft,
		CreatedBy:   userID,
	}

	if err := s.repo.CreateVenue(ctx, venue); err != nil {
		return nil, err
	}

	return s.toVenueResponse(venue), nil
}

func (s *service) GetVenueByID(ctx context.Context, id uuid.UUID) (*VenueResponse, error) {
	cacheKey := constants.BuildVenueCacheKey(id.String())

	if s.cacheService != nil {
		var cached VenueResponse
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	venue, err := s.repo.GetVenueByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := s.toVenueResponse(venue)

	if s.cacheService != nil {
		_ = s.cacheService.Set(ctx, cacheKey, resp, constants.DefaultCacheTTL)
	}

	return resp, nil
}

func (s *service) UpdateVenue(ctx context.Context, id uuid.UUID, userID uuid.UUID, req UpdateVenueRequest) (*VenueResponse, error) {
	venue, err := s.repo.GetVenueByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		venue.Name = *req.Name
	}
	if req.Description != nil {
		venue.Description = *req.Description
	}
	if req.Address != nil {
		venue.Address = *req.Address
	}
	if req.City != nil {
		venue.City = *req.City
	}
	if req.Phone != nil {
		venue.Phone = *req.Phone
	}
	if req.ImageURL != nil {
		venue.ImageURL = *req.ImageURL
	}
	if req.Status != nil {
		venue.Status = VenueStatus(*req.Status)
	}
	venue.UpdatedBy = &userID

	if err := s.repo.UpdateVenue(ctx, venue); err != nil {
		return nil, err
	}

	if s.cacheService != nil {
		_ = s.cacheService.Delete(ctx, constants.BuildVenueCacheKey(id.String()))
	}

	return s.toVenueResponse(venue), nil
}

func (s *service) ListVenues(ctx context.Context, query VenueListQuery) (*PaginatedVenues, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = 20
	}

	venues, total, err := s.repo.ListVenues(ctx, query)
	if err != nil {
		return nil, err
	}

	responses := make([]VenueResponse, 0, len(venues))
	for i := range venues {
		responses = append(responses, *s.toVenueResponse(&venues[i]))
	}

	return &PaginatedVenues{
		Venues:     responses,
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
	}, nil
}

func (s *service) CreateCourt(ctx context.Context, venueID uuid.UUID, req CreateCourtRequest) (*CourtResponse, error) {
	// The venue must exist before a court can be attached to it
	if _, err := s.repo.GetVenueByID(ctx, venueID); err != nil {
		return nil, err
	}

	if req.OpenHour*60+req.SlotMinutes > req.CloseHour*60 {
		return nil, ErrInvalidSlotGrid
	}

	court := &Court{
		VenueID:      venueID,
		Name:         req.Name,
		Sport:        req.Sport,
		Surface:      req.Surface,
		Indoor:       req.Indoor,
		OpenHour:     req.OpenHour,
		CloseHour:    req.CloseHour,
		SlotMinutes:  req.SlotMinutes,
		PricePerSlot: req.PricePerSlot,
		Active:       true,
	}

	if err := s.repo.CreateCourt(ctx, court); err != nil {
		return nil, err
	}

	if s.cacheService != nil {
		_ = s.cacheService.Delete(ctx, constants.BuildVenueCacheKey(venueID.String()))
	}

	return toCourtResponse(court), nil
}

// GetCourtSlots returns the daily slot grid for a court with live
// availability. Booked state comes from confirmed bookings, held state from
// active reservation holds. Held state is never cached.
func (s *service) GetCourtSlots(ctx context.Context, courtID uuid.UUID, date string) ([]SlotResponse, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, err
	}

	court, err := s.repo.GetCourtByID(ctx, courtID)
	if err != nil {
		return nil, err
	}

	times := SlotTimes(court)
	slotKeys := make([]string, 0, len(times))
	for _, t := range times {
		slotKeys = append(slotKeys, SlotKey(court.ID.String(), date, t[0]))
	}

	booked, err := s.repo.BookedSlotKeys(ctx, slotKeys)
	if err != nil {
		return nil, err
	}

	held := map[string]bool{}
	if s.heldSlots != nil {
		held, err = s.heldSlots.HeldSlotKeys(ctx, slotKeys)
		if err != nil {
			return nil, err
		}
	}

	slots := make([]SlotResponse, 0, len(times))
	for i, t := range times {
		state := SlotAvailable
		if booked[slotKeys[i]] {
			state = SlotBooked
		} else if held[slotKeys[i]] {
			state = SlotHeld
		}
		slots = append(slots, SlotResponse{
			SlotKey:   slotKeys[i],
			CourtID:   court.ID.String(),
			Date:      date,
			StartTime: t[0],
			EndTime:   t[1],
			Price:     court.PricePerSlot,
			Status:    state,
		})
	}

	return slots, nil
}

func (s *service) toVenueResponse(venue *Venue) *VenueResponse {
	courts := make([]CourtResponse, 0, len(venue.Courts))
	for i := range venue.Courts {
		courts = append(courts, *toCourtResponse(&venue.Courts[i]))
	}

	return &VenueResponse{
		ID:          venue.ID.String(),
		Name:        venue.Name,
		Description: venue.Description,
		Address:     venue.Address,
		City:        venue.City,
		Phone:       venue.Phone,
		ImageURL:    venue.ImageURL,
		Status:      venue.Status,
		Courts:      courts,
		CreatedAt:   venue.CreatedAt,
		UpdatedAt:   venue.UpdatedAt,
	}
}

func toCourtResponse(court *Court) *CourtResponse {
	return &CourtResponse{
		ID:           court.ID.String(),
		VenueID:      court.VenueID.String(),
		Name:         court.Name,
		Sport:        court.Sport,
		Surface:      court.Surface,
		Indoor:       court.Indoor,
		OpenHour:     court.OpenHour,
		CloseHour:    court.CloseHour,
		SlotMinutes:  court.SlotMinutes,
		PricePerSlot: court.PricePerSlot,
		Active:       court.Active,
	}
}
