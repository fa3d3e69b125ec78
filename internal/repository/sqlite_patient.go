package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/edboard/internal/board"
	"github.com/alexanderramin/edboard/internal/db"
	"github.com/alexanderramin/edboard/internal/domain"
)

// SQLitePatientRepo implements PatientRepo using a SQLite database.
type SQLitePatientRepo struct {
	db db.DBTX
}

// NewSQLitePatientRepo creates a new SQLitePatientRepo.
func NewSQLitePatientRepo(conn db.DBTX) *SQLitePatientRepo {
	return &SQLitePatientRepo{db: conn}
}

const patientColumns = `id, name, document, location, admitted_at, tier, pending_notes,
	disposition, observation_at, discharged_at`

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLitePatientRepo) Create(ctx context.Context, p *domain.PatientSnapshot) error {
	now := nowUTC()
	query := `INSERT INTO patients (` + patientColumns + `, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Document,
		p.Location,
		formatTime(p.AdmittedAt),
		tierToValue(p.Tier),
		p.PendingNotes,
		string(p.Disposition),
		nullableTimeToString(p.ObservationAt),
		nullableTimeToString(p.DischargedAt),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("inserting patient: %w", err)
	}
	return r.saveStages(ctx, p)
}

func (r *SQLitePatientRepo) GetByID(ctx context.Context, id string) (*domain.PatientSnapshot, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = ?`
	p, err := scanPatient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("patient %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	stages, err := r.loadStages(ctx, `patient_id = ?`, id)
	if err != nil {
		return nil, err
	}
	for _, s := range stages[p.ID] {
		p.SetStage(s.kind, s.state)
	}
	return p, nil
}

func (r *SQLitePatientRepo) Update(ctx context.Context, p *domain.PatientSnapshot) error {
	query := `UPDATE patients SET name = ?, document = ?, location = ?, admitted_at = ?, tier = ?,
		pending_notes = ?, disposition = ?, observation_at = ?, discharged_at = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.Name,
		p.Document,
		p.Location,
		formatTime(p.AdmittedAt),
		tierToValue(p.Tier),
		p.PendingNotes,
		string(p.Disposition),
		nullableTimeToString(p.ObservationAt),
		nullableTimeToString(p.DischargedAt),
		nowUTC(),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating patient: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("patient %s: %w", p.ID, ErrNotFound)
	}
	return r.saveStages(ctx, p)
}

func (r *SQLitePatientRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting patient: %w", err)
	}
	return nil
}

// FetchPatientSnapshots returns the patients matching q, most recent
// admission first. Areas match as location prefixes.
func (r *SQLitePatientRepo) FetchPatientSnapshots(ctx context.Context, q board.Query) ([]domain.PatientSnapshot, error) {
	where, args := snapshotWhere(q)
	query := `SELECT ` + patientColumns + ` FROM patients WHERE ` + where + ` ORDER BY admitted_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	defer rows.Close()

	var snaps []domain.PatientSnapshot
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating patients: %w", err)
	}
	if len(snaps) == 0 {
		return snaps, nil
	}

	stages, err := r.loadStages(ctx, `patient_id IN (SELECT id FROM patients WHERE `+where+`)`, args...)
	if err != nil {
		return nil, err
	}
	for i := range snaps {
		for _, s := range stages[snaps[i].ID] {
			snaps[i].SetStage(s.kind, s.state)
		}
	}
	return snaps, nil
}

// ListAreas returns the distinct areas of the stored locations, sorted.
func (r *SQLitePatientRepo) ListAreas(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT location FROM patients`)
	if err != nil {
		return nil, fmt.Errorf("listing areas: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var areas []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		area := domain.PatientSnapshot{Location: loc}.Area()
		if area == "" || seen[area] {
			continue
		}
		seen[area] = true
		areas = append(areas, area)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating locations: %w", err)
	}
	sort.Strings(areas)
	return areas, nil
}

func snapshotWhere(q board.Query) (string, []any) {
	clauses := []string{"1 = 1"}
	var args []any
	if len(q.Areas) > 0 {
		likes := make([]string, len(q.Areas))
		for i, a := range q.Areas {
			likes[i] = "location LIKE ?"
			args = append(args, a+"%")
		}
		clauses = append(clauses, "("+strings.Join(likes, " OR ")+")")
	}
	if q.From != nil {
		clauses = append(clauses, "admitted_at >= ?")
		args = append(args, formatTime(*q.From))
	}
	if q.To != nil {
		clauses = append(clauses, "admitted_at <= ?")
		args = append(args, formatTime(*q.To))
	}
	return strings.Join(clauses, " AND "), args
}

func scanPatient(row scanner) (*domain.PatientSnapshot, error) {
	var (
		p            domain.PatientSnapshot
		admittedAt   string
		tier         sql.NullInt64
		disposition  string
		observedAt   sql.NullString
		dischargedAt sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Document, &p.Location, &admittedAt, &tier, &p.PendingNotes,
		&disposition, &observedAt, &dischargedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning patient: %w", err)
	}

	t, err := time.Parse(timeLayout, admittedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing admitted_at for patient %s: %w", p.ID, err)
	}
	p.AdmittedAt = t
	p.Tier = tierFromNull(tier)
	p.Disposition = domain.Disposition(disposition)
	p.ObservationAt = parseNullableTime(observedAt)
	p.DischargedAt = parseNullableTime(dischargedAt)
	return &p, nil
}

type stageRow struct {
	kind  domain.StageKind
	state domain.StageState
}

func (r *SQLitePatientRepo) loadStages(ctx context.Context, where string, args ...any) (map[string][]stageRow, error) {
	query := `SELECT patient_id, stage, status, started_at, requested_at, completed_at
		FROM patient_stages WHERE ` + where
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing patient stages: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]stageRow)
	for rows.Next() {
		var (
			patientID, stageName, statusName string
			started, requested, completed    sql.NullString
		)
		if err := rows.Scan(&patientID, &stageName, &statusName, &started, &requested, &completed); err != nil {
			return nil, fmt.Errorf("scanning patient stage: %w", err)
		}
		kind, err := domain.ParseStage(stageName)
		if err != nil {
			return nil, fmt.Errorf("patient %s: %w", patientID, err)
		}
		status, err := domain.ParseStageStatus(kind, statusName)
		if err != nil {
			return nil, fmt.Errorf("patient %s: %w", patientID, err)
		}
		out[patientID] = append(out[patientID], stageRow{
			kind: kind,
			state: domain.StageState{
				Status:      status,
				StartedAt:   parseNullableTime(started),
				RequestedAt: parseNullableTime(requested),
				CompletedAt: parseNullableTime(completed),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating patient stages: %w", err)
	}
	return out, nil
}

func (r *SQLitePatientRepo) saveStages(ctx context.Context, p *domain.PatientSnapshot) error {
	query := `INSERT INTO patient_stages (patient_id, stage, status, started_at, requested_at, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(patient_id, stage) DO UPDATE SET
			status = excluded.status,
			started_at = excluded.started_at,
			requested_at = excluded.requested_at,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`
	now := nowUTC()
	for _, kind := range domain.AllStages() {
		st, ok := p.Stages[kind]
		if !ok || st.Status == nil {
			continue
		}
		_, err := r.db.ExecContext(ctx, query,
			p.ID,
			kind.String(),
			st.Status.String(),
			nullableTimeToString(st.StartedAt),
			nullableTimeToString(st.RequestedAt),
			nullableTimeToString(st.CompletedAt),
			now,
		)
		if err != nil {
			return fmt.Errorf("saving %s stage: %w", kind, err)
		}
	}
	return nil
}
