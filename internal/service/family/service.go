package family

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/repository"
	"github.com/medconnect/booking-api/internal/service/booking"
	"github.com/medconnect/booking-api/internal/service/notification"
	apperrors "github.com/medconnect/booking-api/pkg/errors"
)

// Service manages care-circle invitations, connections, permissions, and the
// privileged book-on-behalf flow.
type Service struct {
	repo     repository.FamilyRepository
	users    repository.UserRepository
	booking  *booking.Service
	notifier notification.Service
	logger   zerolog.Logger
}

func NewService(
	repo repository.FamilyRepository,
	users repository.UserRepository,
	bookingSvc *booking.Service,
	notifier notification.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		booking:  bookingSvc,
		notifier: notifier,
		logger:   logger.With().Str("component", "family").Logger(),
	}
}

// Invite creates a pending invitation from a patient to a family member.
func (s *Service) Invite(ctx context.Context, inviterID int64, req *model.InviteFamilyRequest) (*model.FamilyInvitation, error) {
	invitee, err := s.users.GetByEmail(ctx, req.InviteeEmail)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("invitee", err)
		}
		return nil, fmt.Errorf("failed to look up invitee: %w", err)
	}
	if invitee.ID == inviterID {
		return nil, apperrors.BadRequest("cannot invite yourself", nil)
	}

	exists, err := s.repo.ConnectionExists(ctx, inviterID, invitee.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check connection: %w", err)
	}
	if exists {
		return nil, apperrors.Conflict("family connection already exists")
	}

	inv := &model.FamilyInvitation{
		InviterID:    inviterID,
		InviteeID:    invitee.ID,
		Relationship: req.Relationship,
		Token:        uuid.NewString(),
		Status:       model.InvitationPending,
	}
	if err := s.repo.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	inviter, err := s.users.Get(ctx, inviterID)
	if err == nil {
		if err := s.notifier.SendFamilyInvitation(ctx, invitee.Email, inviter.Name, inv.Token); err != nil {
			s.logger.Warn().Err(err).Str("email", invitee.Email).Msg("failed to send invitation email")
		}
	}
	return inv, nil
}

// Respond accepts or rejects an invitation by token; accepting creates the connection.
func (s *Service) Respond(ctx context.Context, userID int64, token string, accept bool) (*model.FamilyInvitation, error) {
	inv, err := s.repo.GetInvitationByToken(ctx, token)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("invitation", err)
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	if inv.InviteeID != userID {
		return nil, apperrors.Forbidden("invitation addressed to another user")
	}
	if inv.Status != model.InvitationPending {
		return nil, apperrors.Conflict("invitation already answered")
	}

	status := model.InvitationRejected
	if accept {
		status = model.InvitationAccepted
	}
	if err := s.repo.UpdateInvitationStatus(ctx, inv.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}
	inv.Status = status

	if accept {
		conn := &model.FamilyConnection{
			PatientID:      inv.InviterID,
			FamilyMemberID: inv.InviteeID,
			Relationship:   inv.Relationship,
		}
		if err := s.repo.CreateConnection(ctx, conn); err != nil {
			return nil, fmt.Errorf("failed to create connection: %w", err)
		}
	}
	return inv, nil
}

func (s *Service) ListConnections(ctx context.Context, patientID int64) ([]*model.FamilyConnection, error) {
	conns, err := s.repo.ListConnectionsForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return conns, nil
}

// SetPermissions lets the patient grant permissions to a connected family member.
func (s *Service) SetPermissions(ctx context.Context, patientID int64, req *model.SetFamilyPermissionsRequest) (*model.FamilyPermission, error) {
	connected, err := s.repo.ConnectionExists(ctx, patientID, req.FamilyMemberID)
	if err != nil {
		return nil, fmt.Errorf("failed to check connection: %w", err)
	}
	if !connected {
		return nil, apperrors.NotFound("family connection", nil)
	}

	perm := &model.FamilyPermission{
		FamilyMemberID: req.FamilyMemberID,
		PatientID:      patientID,
		Permissions:    req.Permissions,
	}
	if err := s.repo.SetPermissions(ctx, perm); err != nil {
		return nil, fmt.Errorf("failed to set permissions: %w", err)
	}
	return perm, nil
}

// BookForPatient books a slot on a patient's behalf. It requires an accepted
// connection and the book_appointments permission, then runs the same
// hold-protected finalizer path as a direct booking.
func (s *Service) BookForPatient(ctx context.Context, familyMemberID int64, req *model.FamilyBookRequest) (*model.Appointment, error) {
	connected, err := s.repo.ConnectionExists(ctx, req.PatientID, familyMemberID)
	if err != nil {
		return nil, fmt.Errorf("failed to check connection: %w", err)
	}
	if !connected {
		return nil, apperrors.Forbidden("no family connection with this patient")
	}

	perm, err := s.repo.GetPermissions(ctx, familyMemberID, req.PatientID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.Forbidden("booking permission not granted")
		}
		return nil, fmt.Errorf("failed to get permissions: %w", err)
	}
	if !hasPermission(perm.Permissions, model.PermissionBookAppointments) {
		return nil, apperrors.Forbidden("booking permission not granted")
	}

	slotTime, err := model.ParseSlotTime(req.SlotTime)
	if err != nil {
		return nil, apperrors.BadRequest("slot_time must be YYYY-MM-DDTHH:MM:SS", err)
	}

	return s.booking.BookOnBehalf(ctx, familyMemberID, req.PatientID, req.DoctorID, slotTime)
}

func hasPermission(perms []string, want string) bool {
	for _, p := range perms {
		if p == want {
			return true
		}
	}
	return false
}
