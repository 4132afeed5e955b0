package vital

import (
	"context"
	"fmt"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/repository"
	apperrors "github.com/medconnect/booking-api/pkg/errors"
)

type Service struct {
	repo  repository.VitalRepository
	users repository.UserRepository
}

func NewService(repo repository.VitalRepository, users repository.UserRepository) *Service {
	return &Service{repo: repo, users: users}
}

// Record stores a vital reading taken by a doctor for a patient looked up by email.
func (s *Service) Record(ctx context.Context, doctorID int64, req *model.CreateVitalRequest) (*model.Vital, error) {
	patient, err := s.users.GetByEmail(ctx, req.PatientEmail)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to look up patient: %w", err)
	}
	if patient.Role != model.RolePatient {
		return nil, apperrors.NotFound("patient", nil)
	}

	vital := &model.Vital{
		PatientID:   patient.ID,
		DoctorID:    doctorID,
		BP:          req.BP,
		HeartRate:   req.HeartRate,
		Temperature: req.Temperature,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, vital); err != nil {
		return nil, fmt.Errorf("failed to record vital: %w", err)
	}
	return vital, nil
}

// ListOwn returns the patient's vitals, newest first.
func (s *Service) ListOwn(ctx context.Context, patientID int64) ([]*model.Vital, error) {
	vitals, err := s.repo.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vitals: %w", err)
	}
	return vitals, nil
}
