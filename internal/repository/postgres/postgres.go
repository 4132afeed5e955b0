package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/medconnect/booking-api/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

type appointmentRepository struct {
	db *sqlx.DB
}

type scheduleRepository struct {
	db *sqlx.DB
}

type vitalRepository struct {
	db *sqlx.DB
}

type chatRepository struct {
	db *sqlx.DB
}

type familyRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewScheduleRepository(db *sqlx.DB) repository.ScheduleRepository {
	return &scheduleRepository{db: db}
}

func NewVitalRepository(db *sqlx.DB) repository.VitalRepository {
	return &vitalRepository{db: db}
}

func NewChatRepository(db *sqlx.DB) repository.ChatRepository {
	return &chatRepository{db: db}
}

func NewFamilyRepository(db *sqlx.DB) repository.FamilyRepository {
	return &familyRepository{db: db}
}
