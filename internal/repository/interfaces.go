package repository

import (
	"context"
	"time"

	"github.com/medconnect/booking-api/internal/model"
)

// ErrNotFound is returned by repositories when a row does not exist.
// Services translate it into their own error taxonomy.
type notFoundError struct{ resource string }

func (e *notFoundError) Error() string { return e.resource + " not found" }

func NewNotFound(resource string) error { return &notFoundError{resource: resource} }

func IsNotFound(err error) bool {
	_, ok := err.(*notFoundError)
	return ok
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListByRole(ctx context.Context, role model.Role) ([]*model.User, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	Get(ctx context.Context, id int64) (*model.Appointment, error)
	Update(ctx context.Context, appointment *model.Appointment) error
	ListForPatient(ctx context.Context, patientID int64) ([]*model.Appointment, error)
	ListDetailedForPatient(ctx context.Context, patientID int64) ([]*model.AppointmentDetail, error)
	ListForDoctor(ctx context.Context, doctorID int64) ([]*model.Appointment, error)
	// BookedTimes returns the times of day ("15:04:05") of appointments for
	// the doctor on the given calendar date whose status is in statuses.
	BookedTimes(ctx context.Context, doctorID int64, date time.Time, statuses []model.AppointmentStatus) ([]string, error)
}

type ScheduleRepository interface {
	GetWindow(ctx context.Context, doctorID int64, dayOfWeek int) (*model.ScheduleWindow, error)
	ListForDoctor(ctx context.Context, doctorID int64) ([]*model.ScheduleWindow, error)
	// Replace overwrites the doctor's whole weekly schedule in one
	// transaction (delete-then-insert, never a merge).
	Replace(ctx context.Context, doctorID int64, windows []*model.ScheduleWindow) error
}

type VitalRepository interface {
	Create(ctx context.Context, vital *model.Vital) error
	ListForPatient(ctx context.Context, patientID int64) ([]*model.Vital, error)
}

type ChatRepository interface {
	CreateRoom(ctx context.Context, room *model.ChatRoom, participantIDs []int64) error
	ListRoomsForUser(ctx context.Context, userID int64) ([]*model.ChatRoom, error)
	IsParticipant(ctx context.Context, chatID, userID int64) (bool, error)
	CreateMessage(ctx context.Context, msg *model.ChatMessage) error
	ListMessages(ctx context.Context, chatID int64) ([]*model.ChatMessage, error)
}

type FamilyRepository interface {
	CreateInvitation(ctx context.Context, inv *model.FamilyInvitation) error
	GetInvitationByToken(ctx context.Context, token string) (*model.FamilyInvitation, error)
	UpdateInvitationStatus(ctx context.Context, id int64, status model.InvitationStatus) error
	CreateConnection(ctx context.Context, conn *model.FamilyConnection) error
	ListConnectionsForPatient(ctx context.Context, patientID int64) ([]*model.FamilyConnection, error)
	ConnectionExists(ctx context.Context, patientID, familyMemberID int64) (bool, error)
	SetPermissions(ctx context.Context, perm *model.FamilyPermission) error
	GetPermissions(ctx context.Context, familyMemberID, patientID int64) (*model.FamilyPermission, error)
}
