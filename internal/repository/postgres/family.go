package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/repository"
)

func (r *familyRepository) CreateInvitation(ctx context.Context, inv *model.FamilyInvitation) error {
	query := `
		INSERT INTO family_invitations (inviter_id, invitee_id, relationship_type, token, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	inv.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		inv.InviterID,
		inv.InviteeID,
		inv.Relationship,
		inv.Token,
		inv.Status,
		inv.CreatedAt,
	).Scan(&inv.ID)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (r *familyRepository) GetInvitationByToken(ctx context.Context, token string) (*model.FamilyInvitation, error) {
	query := `
		SELECT id, inviter_id, invitee_id, relationship_type, token, status, created_at
		FROM family_invitations
		WHERE token = $1
	`
	var inv model.FamilyInvitation
	err := r.db.GetContext(ctx, &inv, query, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.NewNotFound("invitation")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &inv, nil
}

func (r *familyRepository) UpdateInvitationStatus(ctx context.Context, id int64, status model.InvitationStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE family_invitations SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.NewNotFound("invitation")
	}
	return nil
}

func (r *familyRepository) CreateConnection(ctx context.Context, conn *model.FamilyConnection) error {
	query := `
		INSERT INTO family_connections (patient_id, family_member_id, relationship_type)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		conn.PatientID,
		conn.FamilyMemberID,
		conn.Relationship,
	).Scan(&conn.ID)
	if err != nil {
		return fmt.Errorf("failed to create connection: %w", err)
	}
	return nil
}

func (r *familyRepository) ListConnectionsForPatient(ctx context.Context, patientID int64) ([]*model.FamilyConnection, error) {
	query := `
		SELECT id, patient_id, family_member_id, relationship_type
		FROM family_connections
		WHERE patient_id = $1
	`
	var conns []*model.FamilyConnection
	if err := r.db.SelectContext(ctx, &conns, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return conns, nil
}

func (r *familyRepository) ConnectionExists(ctx context.Context, patientID, familyMemberID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM family_connections WHERE patient_id = $1 AND family_member_id = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, patientID, familyMemberID); err != nil {
		return false, fmt.Errorf("failed to check connection: %w", err)
	}
	return exists, nil
}

func (r *familyRepository) SetPermissions(ctx context.Context, perm *model.FamilyPermission) error {
	query := `
		INSERT INTO family_permissions (family_member_id, patient_id, permissions)
		VALUES ($1, $2, $3)
		ON CONFLICT (family_member_id, patient_id)
		DO UPDATE SET permissions = EXCLUDED.permissions
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		perm.FamilyMemberID,
		perm.PatientID,
		perm.Permissions,
	).Scan(&perm.ID)
	if err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	return nil
}

func (r *familyRepository) GetPermissions(ctx context.Context, familyMemberID, patientID int64) (*model.FamilyPermission, error) {
	query := `
		SELECT id, family_member_id, patient_id, permissions
		FROM family_permissions
		WHERE family_member_id = $1 AND patient_id = $2
	`
	var perm model.FamilyPermission
	err := r.db.GetContext(ctx, &perm, query, familyMemberID, patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.NewNotFound("permissions")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions: %w", err)
	}
	return &perm, nil
}
