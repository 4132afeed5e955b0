package model

import (
	"time"

	"github.com/lib/pq"
)

type RelationshipType string

const (
	RelationshipSpouse  RelationshipType = "spouse"
	RelationshipSibling RelationshipType = "sibling"
	RelationshipParent  RelationshipType = "parent"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// PermissionBookAppointments allows a family member to book on a patient's behalf.
const PermissionBookAppointments = "book_appointments"

type FamilyConnection struct {
	ID             int64            `db:"id" json:"id"`
	PatientID      int64            `db:"patient_id" json:"patient_id"`
	FamilyMemberID int64            `db:"family_member_id" json:"family_member_id"`
	Relationship   RelationshipType `db:"relationship_type" json:"relationship_type"`
}

type FamilyInvitation struct {
	ID           int64            `db:"id" json:"id"`
	InviterID    int64            `db:"inviter_id" json:"inviter_id"`
	InviteeID    int64            `db:"invitee_id" json:"invitee_id"`
	Relationship RelationshipType `db:"relationship_type" json:"relationship_type"`
	Token        string           `db:"token" json:"token"`
	Status       InvitationStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}

type FamilyPermission struct {
	ID             int64          `db:"id" json:"id"`
	FamilyMemberID int64          `db:"family_member_id" json:"family_member_id"`
	PatientID      int64          `db:"patient_id" json:"patient_id"`
	Permissions    pq.StringArray `db:"permissions" json:"permissions"`
}

type InviteFamilyRequest struct {
	InviteeEmail string           `json:"invitee_email" binding:"required,email"`
	Relationship RelationshipType `json:"relationship_type" binding:"required,oneof=spouse sibling parent"`
}

type RespondInvitationRequest struct {
	Accept bool `json:"accept"`
}

type SetFamilyPermissionsRequest struct {
	FamilyMemberID int64    `json:"family_member_id" binding:"required"`
	Permissions    []string `json:"permissions" binding:"required"`
}

type FamilyBookRequest struct {
	PatientID int64  `json:"patient_id" binding:"required"`
	DoctorID  int64  `json:"doctor_id" binding:"required"`
	SlotTime  string `json:"slot_time" binding:"required"`
}
