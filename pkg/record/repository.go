package record

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type recordModel struct {
	ID               int64      `gorm:"primaryKey;column:id"`
	Number           string     `gorm:"column:record_number;uniqueIndex"`
	PatientName      string     `gorm:"column:patient_name"`
	Age              int        `gorm:"column:age"`
	Sex              string     `gorm:"column:sex"`
	BirthDate        string     `gorm:"column:birth_date"`
	Status           string     `gorm:"column:status"`
	CurrentLocation  string     `gorm:"column:current_location"`
	PreviousLocation string     `gorm:"column:previous_location"`
	LastMovement     *time.Time `gorm:"column:last_movement"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (recordModel) TableName() string { return "records" }

type movementModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;column:id"`
	RecordNumber string    `gorm:"column:record_number;index"`
	PatientName  string    `gorm:"column:patient_name"`
	Age          int       `gorm:"column:age"`
	Origin       string    `gorm:"column:origin"`
	Destination  string    `gorm:"column:destination"`
	User         string    `gorm:"column:responsible_user"`
	Note         string    `gorm:"column:note"`
	Timestamp    time.Time `gorm:"column:moved_at;index"`
}

func (movementModel) TableName() string { return "movements" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&recordModel{}, &movementModel{})
}

func (r *Repository) List(ctx context.Context) ([]Record, error) {
	var models []recordModel
	if err := r.db.WithContext(ctx).Order("record_number").Find(&models).Error; err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(models))
	for _, m := range models {
		records = append(records, toRecord(m))
	}
	return records, nil
}

func (r *Repository) GetByNumber(ctx context.Context, number string) (*Record, error) {
	m, err := r.findModel(ctx, number)
	if err != nil {
		return nil, err
	}
	rec := toRecord(*m)
	return &rec, nil
}

func (r *Repository) Insert(ctx context.Context, rec *Record) error {
	m := toModel(*rec)
	m.Number = NormalizeNumber(m.Number)
	err := r.db.WithContext(ctx).Create(&m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateNumber
	}
	return err
}

func (r *Repository) Replace(ctx context.Context, number string, rec *Record) error {
	existing, err := r.findModel(ctx, number)
	if err != nil {
		return err
	}

	newNumber := NormalizeNumber(rec.Number)
	if newNumber != existing.Number {
		var count int64
		if err := r.db.WithContext(ctx).Model(&recordModel{}).
			Where("record_number = ?", newNumber).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateNumber
		}
	}

	m := toModel(*rec)
	m.ID = existing.ID
	m.Number = newNumber
	m.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(&m).Error
}

func (r *Repository) Delete(ctx context.Context, number string) error {
	m, err := r.findModel(ctx, number)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&recordModel{}, m.ID).Error
}

func (r *Repository) AppendMovement(ctx context.Context, mov *Movement) error {
	m := movementModel{
		RecordNumber: NormalizeNumber(mov.RecordNumber),
		PatientName:  mov.PatientName,
		Age:          mov.Age,
		Origin:       mov.Origin,
		Destination:  mov.Destination,
		User:         mov.User,
		Note:         mov.Note,
		Timestamp:    mov.Timestamp,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	mov.ID = m.ID
	return nil
}

func (r *Repository) Movements(ctx context.Context, recordNumber string, limit int) ([]Movement, error) {
	query := r.db.WithContext(ctx).Model(&movementModel{}).Order("moved_at DESC, id DESC")
	if recordNumber != "" {
		query = query.Where("record_number = ?", NormalizeNumber(recordNumber))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []movementModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	movements := make([]Movement, 0, len(models))
	for _, m := range models {
		movements = append(movements, Movement{
			ID:           m.ID,
			RecordNumber: m.RecordNumber,
			PatientName:  m.PatientName,
			Age:          m.Age,
			Origin:       m.Origin,
			Destination:  m.Destination,
			User:         m.User,
			Note:         m.Note,
			Timestamp:    m.Timestamp,
		})
	}
	return movements, nil
}

func (r *Repository) findModel(ctx context.Context, number string) (*recordModel, error) {
	var m recordModel
	result := r.db.WithContext(ctx).First(&m, "record_number = ?", NormalizeNumber(number))
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &m, nil
}

func toRecord(m recordModel) Record {
	return Record{
		Number:           m.Number,
		PatientName:      m.PatientName,
		Age:              m.Age,
		Sex:              m.Sex,
		BirthDate:        m.BirthDate,
		Status:           m.Status,
		CurrentLocation:  m.CurrentLocation,
		PreviousLocation: m.PreviousLocation,
		LastMovement:     m.LastMovement,
	}
}

func toModel(rec Record) recordModel {
	return recordModel{
		Number:           rec.Number,
		PatientName:      rec.PatientName,
		Age:              rec.Age,
		Sex:              rec.Sex,
		BirthDate:        rec.BirthDate,
		Status:           rec.Status,
		CurrentLocation:  rec.CurrentLocation,
		PreviousLocation: rec.PreviousLocation,
		LastMovement:     rec.LastMovement,
	}
}
