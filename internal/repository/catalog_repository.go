package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-editor/internal/models"
)

// CatalogRepository reads the picker options offered by the editor.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListRooms returns every bookable room.
func (r *CatalogRepository) ListRooms(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, name FROM rooms ORDER BY name`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// ListClassSubjects returns the subjects taught to a class with their assigned teacher.
func (r *CatalogRepository) ListClassSubjects(ctx context.Context, classID int64) ([]models.ClassSubject, error) {
	const query = `SELECT cs.subject_id, s.name, cs.teacher_id FROM class_subjects cs JOIN subjects s ON s.id = cs.subject_id WHERE cs.class_id = $1 ORDER BY s.name`
	var subjects []models.ClassSubject
	if err := r.db.SelectContext(ctx, &subjects, query, classID); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return subjects, nil
}

// ListTopics returns the invigilation topics.
func (r *CatalogRepository) ListTopics(ctx context.Context) ([]models.InvigilateTopic, error) {
	const query = `SELECT id, name FROM invigilate_topics ORDER BY id`
	var topics []models.InvigilateTopic
	if err := r.db.SelectContext(ctx, &topics, query); err != nil {
		return nil, fmt.Errorf("list invigilate topics: %w", err)
	}
	return topics, nil
}
