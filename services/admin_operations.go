package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anjiri1684/coursehub/models"
)

const (
	OpPublishCourses  = "publish_courses"
	OpRefundPayments  = "refund_payments"
	OpDeactivateUsers = "deactivate_users"

	maxBatchSize = 100
)

// Operation is one admin bulk operation. Each kind has its own payload type and schema.
type Operation interface {
	Kind() string
	Validate() error
	apply(tx *gorm.DB) (int64, error)
}

type PublishCourses struct {
	CourseIDs []uuid.UUID `json:"course_ids"`
	Published bool        `json:"published"`
}

type RefundPayments struct {
	PaymentIDs []uuid.UUID `json:"payment_ids"`
	Reason     string      `json:"reason"`
}

type DeactivateUsers struct {
	UserIDs []uuid.UUID `json:"user_ids"`
}

func (PublishCourses) Kind() string  { return OpPublishCourses }
func (RefundPayments) Kind() string  { return OpRefundPayments }
func (DeactivateUsers) Kind() string { return OpDeactivateUsers }

func idRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, maxBatchSize),
		validation.Each(validation.By(notNilUUID)),
	}
}

func notNilUUID(value interface{}) error {
	if id, ok := value.(uuid.UUID); ok && id == uuid.Nil {
		return errors.New("must not be the nil uuid")
	}
	return nil
}

func (op *PublishCourses) Validate() error {
	return validation.ValidateStruct(op,
		validation.Field(&op.CourseIDs, idRules()...),
	)
}

func (op *RefundPayments) Validate() error {
	return validation.ValidateStruct(op,
		validation.Field(&op.PaymentIDs, idRules()...),
		validation.Field(&op.Reason, validation.Required, validation.Length(1, 500)),
	)
}

func (op *DeactivateUsers) Validate() error {
	return validation.ValidateStruct(op,
		validation.Field(&op.UserIDs, idRules()...),
	)
}

type operationEnvelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeOperation turns {"kind": ..., "payload": {...}} into a validated Operation.
func DecodeOperation(raw []byte) (Operation, error) {
	var env operationEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, invalid("malformed operation: %v", err)
	}

	var op Operation
	switch env.Kind {
	case OpPublishCourses:
		op = &PublishCourses{}
	case OpRefundPayments:
		op = &RefundPayments{}
	case OpDeactivateUsers:
		op = &DeactivateUsers{}
	case "":
		return nil, invalid("kind is required")
	default:
		return nil, invalid("unknown operation kind %q", env.Kind)
	}

	if len(env.Payload) == 0 {
		return nil, invalid("payload is required")
	}
	dec := json.NewDecoder(bytes.NewReader(env.Payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(op); err != nil {
		return nil, invalid("malformed %s payload: %v", env.Kind, err)
	}
	if err := op.Validate(); err != nil {
		return nil, invalid("%s: %v", env.Kind, err)
	}
	return op, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func requireAll(tx *gorm.DB, model interface{}, ids []uuid.UUID, what string) error {
	var count int64
	if err := tx.Model(model).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return fmt.Errorf("%d of %d %s: %w", int64(len(ids))-count, len(ids), what, ErrNotFound)
	}
	return nil
}

func (op *PublishCourses) apply(tx *gorm.DB) (int64, error) {
	ids := uniqueIDs(op.CourseIDs)
	if err := requireAll(tx, &models.Course{}, ids, "courses"); err != nil {
		return 0, err
	}
	res := tx.Model(&models.Course{}).Where("id IN ?", ids).Update("is_published", op.Published)
	return res.RowsAffected, res.Error
}

func (op *RefundPayments) apply(tx *gorm.DB) (int64, error) {
	var affected int64
	for _, id := range uniqueIDs(op.PaymentIDs) {
		if _, err := refundPayment(tx, id, op.Reason); err != nil {
			return 0, err
		}
		affected++
	}
	return affected, nil
}

func (op *DeactivateUsers) apply(tx *gorm.DB) (int64, error) {
	ids := uniqueIDs(op.UserIDs)
	if err := requireAll(tx, &models.User{}, ids, "users"); err != nil {
		return 0, err
	}
	var admins int64
	if err := tx.Model(&models.User{}).Where("id IN ? AND role = ?", ids, models.RoleAdmin).Count(&admins).Error; err != nil {
		return 0, err
	}
	if admins > 0 {
		return 0, invalid("admins cannot be deactivated")
	}
	res := tx.Model(&models.User{}).Where("id IN ?", ids).Update("is_active", false)
	return res.RowsAffected, res.Error
}
