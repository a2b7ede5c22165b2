package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/hospital-scheduler/internal/httperr"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
)

var (
	ErrUserNotFound    = httperr.ErrBusiness("user_not_found")
	ErrProfileNotFound = httperr.ErrBusiness("profile_not_found")
)

// ProfileGormRepository covers users and their patient or doctor profile.
type ProfileGormRepository struct {
	db *gorm.DB
}

func NewProfileGormRepository(db *gorm.DB) *ProfileGormRepository {
	return &ProfileGormRepository{db: db}
}

// --------------------------------------------------
// User
// --------------------------------------------------

func (r *ProfileGormRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *ProfileGormRepository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *ProfileGormRepository) FindUserByName(ctx context.Context, userName string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("user_name = ?", userName).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *ProfileGormRepository) UpdatePassword(ctx context.Context, userID uint, hash string) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", hash)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// --------------------------------------------------
// Patient
// --------------------------------------------------

func (r *ProfileGormRepository) GetPatient(ctx context.Context, userID uint) (*models.Patient, error) {
	var p models.Patient
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProfileGormRepository) SavePatient(ctx context.Context, p *models.Patient) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "dob", "gender", "phone", "email", "address", "updated_at"}),
		}).
		Create(p).Error
}

// ListPatientPhones returns every patient that has a phone on file.
func (r *ProfileGormRepository) ListPatientPhones(ctx context.Context) ([]models.Patient, error) {
	var list []models.Patient
	err := r.db.WithContext(ctx).
		Select("id", "user_id", "phone").
		Where("phone <> ''").
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *ProfileGormRepository) UpdatePatientPhone(ctx context.Context, patientID uint, phone string) error {
	return r.db.WithContext(ctx).
		Model(&models.Patient{}).
		Where("id = ?", patientID).
		Update("phone", phone).Error
}

// --------------------------------------------------
// Doctor
// --------------------------------------------------

func (r *ProfileGormRepository) GetDoctor(ctx context.Context, userID uint) (*models.Doctor, error) {
	var d models.Doctor
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *ProfileGormRepository) SaveDoctor(ctx context.Context, d *models.Doctor) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "dob", "gender", "phone", "email",
				"license_number", "specialization", "experience", "updated_at",
			}),
		}).
		Create(d).Error
}

// ContactEmail is the profile email of the user, "" when none is on file.
func (r *ProfileGormRepository) ContactEmail(ctx context.Context, user *models.User) (string, error) {
	var email string
	var q *gorm.DB

	switch user.Role {
	case models.RolePatient:
		q = r.db.WithContext(ctx).Model(&models.Patient{})
	case models.RoleDoctor:
		q = r.db.WithContext(ctx).Model(&models.Doctor{})
	default:
		return "", nil
	}

	err := q.Select("email").Where("user_id = ?", user.ID).Limit(1).Scan(&email).Error
	return email, err
}
