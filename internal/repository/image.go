package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/domain"
)

const imageColumns = `id, patient_id, image_type, image_url, thumbnail_url, acquisition_date,
	body_part, findings, ai_classification, confidence_score, created_at, updated_at`

// ImageRepository handles imaging metadata persistence
type ImageRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewImageRepository creates a new image repository
func NewImageRepository(db *pgxpool.Pool, logger *logrus.Logger) *ImageRepository {
	return &ImageRepository{
		db:  db,
		log: logger,
	}
}

// ListByPatient returns a patient's imaging studies, latest acquisition first
func (r *ImageRepository) ListByPatient(ctx context.Context, patientID int64) ([]*domain.MedicalImage, error) {
	query := `
		SELECT ` + imageColumns + `
		FROM medical_images
		WHERE patient_id = $1
		ORDER BY acquisition_date DESC NULLS LAST, id DESC`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": patientID,
			"error":      err,
		}).Error("Failed to list images")
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	result := []*domain.MedicalImage{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		result = append(result, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating images: %w", err)
	}

	return result, nil
}

// Create inserts imaging metadata and returns the stored row
func (r *ImageRepository) Create(ctx context.Context, img *domain.MedicalImage) (*domain.MedicalImage, error) {
	if !img.ImageType.IsValid() {
		return nil, domain.NewValidationError("imageType", "unknown image type", string(img.ImageType))
	}

	query := `
		INSERT INTO medical_images (
			patient_id, image_type, image_url, thumbnail_url, acquisition_date,
			body_part, findings, ai_classification, confidence_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + imageColumns

	created, err := scanImage(r.db.QueryRow(ctx, query,
		img.PatientID,
		string(img.ImageType),
		img.ImageURL,
		img.ThumbnailURL,
		img.AcquisitionDate,
		img.BodyPart,
		img.Findings,
		img.AIClassification,
		img.ConfidenceScore,
	))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": img.PatientID,
			"image_type": img.ImageType,
			"error":      err,
		}).Error("Failed to create image")
		return nil, fmt.Errorf("creating image: %w", err)
	}

	return created, nil
}

func scanImage(row pgx.Row) (*domain.MedicalImage, error) {
	var img domain.MedicalImage
	var imageType string
	err := row.Scan(
		&img.ID,
		&img.PatientID,
		&imageType,
		&img.ImageURL,
		&img.ThumbnailURL,
		&img.AcquisitionDate,
		&img.BodyPart,
		&img.Findings,
		&img.AIClassification,
		&img.ConfidenceScore,
		&img.CreatedAt,
		&img.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	img.ImageType = domain.ImageType(imageType)
	return &img, nil
}
