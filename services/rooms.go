package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hostel-pg/models"
)

type RoomService struct {
	db          *gorm.DB
	log         zerolog.Logger
	maxCapacity int
}

func NewRoomService(db *gorm.DB, log zerolog.Logger, maxCapacity int) *RoomService {
	return &RoomService{db: db, log: log.With().Str("service", "rooms").Logger(), maxCapacity: maxCapacity}
}

type Occupant struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

type RoomView struct {
	models.Room
	Vacancies int        `json:"vacancies"`
	Occupants []Occupant `json:"occupants"`
}

// List returns rooms by id with the Active tenants living in each.
func (s *RoomService) List(ctx context.Context) ([]RoomView, error) {
	db := s.db.WithContext(ctx)

	var rooms []models.Room
	if err := db.Order("id ASC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	var tenants []models.Tenant
	if err := db.Select("uid", "name", "room_number").
		Where("status = ? AND room_number IS NOT NULL", models.StatusActive).
		Order("name ASC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("list occupants: %w", err)
	}

	byRoom := make(map[uint][]Occupant)
	for _, t := range tenants {
		byRoom[*t.RoomNumber] = append(byRoom[*t.RoomNumber], Occupant{UID: t.UID, Name: t.Name})
	}
	views := make([]RoomView, 0, len(rooms))
	for _, r := range rooms {
		occupants := byRoom[r.ID]
		if occupants == nil {
			occupants = []Occupant{}
		}
		views = append(views, RoomView{Room: r, Vacancies: r.Vacancies(), Occupants: occupants})
	}
	return views, nil
}

func (s *RoomService) Get(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := s.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("room %d", id))
	}
	return &room, nil
}

func (s *RoomService) Create(ctx context.Context, actor Actor, req models.CreateRoomRequest) (*models.Room, error) {
	if err := s.checkCapacity(req.MaxTenants); err != nil {
		return nil, err
	}
	room := models.Room{ID: req.ID, Type: req.Type, MaxTenants: req.MaxTenants}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Room{}).Where("id = ?", req.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return conflictf("room %d already exists", req.ID)
		}
		if err := tx.Create(&room).Error; err != nil {
			return fmt.Errorf("create room: %w", err)
		}
		return recordAudit(tx, actor, "CREATE", "room", fmt.Sprint(room.ID), "room created",
			map[string]interface{}{"max_tennant": room.MaxTenants, "type": room.Type})
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *RoomService) checkCapacity(max int) error {
	if max < 1 || max > s.maxCapacity {
		return invalid("max_tennant", fmt.Sprintf("capacity must be between 1 and %d", s.maxCapacity))
	}
	return nil
}

// SetCapacity changes a room's max. The update only applies while the
// current occupancy still fits, so a concurrent check-in cannot slip under it.
func (s *RoomService) SetCapacity(ctx context.Context, actor Actor, id uint, newMax int) (*models.Room, error) {
	if err := s.checkCapacity(newMax); err != nil {
		return nil, err
	}

	var room models.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Room{}).
			Where("id = ? AND occupancy <= ?", id, newMax).
			Update("max_tennant", newMax)
		if res.Error != nil {
			return fmt.Errorf("set capacity of room %d: %w", id, res.Error)
		}
		if err := tx.First(&room, id).Error; err != nil {
			return notFoundOr(err, fmt.Sprintf("room %d", id))
		}
		if res.RowsAffected == 0 {
			return invalid("max_tennant", fmt.Sprintf("room %d has %d occupants; capacity cannot go below that", id, room.Occupancy))
		}
		return recordAudit(tx, actor, "UPDATE", "room", fmt.Sprint(id), "capacity changed",
			map[string]interface{}{"max_tennant": newMax})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("room", id).Int("max_tennant", newMax).Msg("room capacity changed")
	return &room, nil
}

// AdjustOccupancy moves a room's occupancy by +1 or -1 in its own transaction.
func (s *RoomService) AdjustOccupancy(ctx context.Context, id uint, delta int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return adjustOccupancy(tx, id, delta)
	})
}

// adjustOccupancy is a single conditional UPDATE: it only applies when the
// result stays within [0, max_tennant]. A full room is ErrConflict, a release
// from an empty room is ErrValidation.
func adjustOccupancy(tx *gorm.DB, id uint, delta int) error {
	if delta != 1 && delta != -1 {
		return invalid("delta", "occupancy moves by exactly one")
	}

	q := tx.Model(&models.Room{}).Where("id = ?", id)
	if delta > 0 {
		q = q.Where("occupancy < max_tennant")
	} else {
		q = q.Where("occupancy > 0")
	}
	res := q.Update("occupancy", gorm.Expr("occupancy + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("adjust occupancy of room %d: %w", id, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var room models.Room
	if err := tx.First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(fmt.Sprintf("room %d", id))
		}
		return err
	}
	if delta > 0 {
		return conflictf("room %d is full (%d/%d)", id, room.Occupancy, room.MaxTenants)
	}
	return invalid("room_number", fmt.Sprintf("room %d has no occupants to release", id))
}

type OccupancySummary struct {
	ActiveTenants int64 `json:"active_tenants"`
	Rooms         int   `json:"rooms"`
	Capacity      int   `json:"capacity"`
	Occupied      int   `json:"occupied"`
	Vacancies     int   `json:"vacancies"`
	FullRooms     int   `json:"full_rooms"`
}

func (s *RoomService) Summary(ctx context.Context) (*OccupancySummary, error) {
	db := s.db.WithContext(ctx)

	var out OccupancySummary
	if err := db.Model(&models.Tenant{}).Where("status = ?", models.StatusActive).Count(&out.ActiveTenants).Error; err != nil {
		return nil, fmt.Errorf("count active tenants: %w", err)
	}
	var rooms []models.Room
	if err := db.Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	out.Rooms = len(rooms)
	for _, r := range rooms {
		out.Capacity += r.MaxTenants
		out.Occupied += r.Occupancy
		out.Vacancies += r.Vacancies()
		if r.Full() {
			out.FullRooms++
		}
	}
	return &out, nil
}
