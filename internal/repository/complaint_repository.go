package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/grievance-service/internal/domain"
)

// SortField names a sortable complaint attribute.
type SortField string

const (
	SortSubmitted   SortField = "submittedAt"
	SortLastUpdated SortField = "lastUpdated"
	SortTicketID    SortField = "ticketId"
	SortStatus      SortField = "status"
	SortPriority    SortField = "priority"
	SortDepartment  SortField = "department"
	SortWard        SortField = "ward"
	SortName        SortField = "name"
)

var sortAliases = map[string]SortField{
	"submittedat":                 SortSubmitted,
	"timestamps.submitted":        SortSubmitted,
	"lastupdated":                 SortLastUpdated,
	"timestamps.lastupdated":      SortLastUpdated,
	"ticketid":                    SortTicketID,
	"status":                      SortStatus,
	"priority":                    SortPriority,
	"complaintdetails.priority":   SortPriority,
	"department":                  SortDepartment,
	"complaintdetails.department": SortDepartment,
	"ward":                        SortWard,
	"complaintdetails.ward":       SortWard,
	"name":                        SortName,
	"citizeninfo.name":            SortName,
}

// ParseSortField resolves a caller supplied sort key, defaulting to submission time.
func ParseSortField(raw string) (SortField, bool) {
	if strings.TrimSpace(raw) == "" {
		return SortSubmitted, true
	}
	field, ok := sortAliases[strings.ToLower(strings.TrimSpace(raw))]
	return field, ok
}

var sortColumns = map[SortField]string{
	SortSubmitted:   "submitted_at",
	SortLastUpdated: "last_updated_at",
	SortTicketID:    "ticket_id",
	SortStatus:      "status",
	SortPriority:    "priority",
	SortDepartment:  "department",
	SortWard:        "ward",
	SortName:        "citizen_name",
}

// ComplaintFilter captures listing parameters. Nil pointers mean unfiltered; the
// Departments/Wards slices restrict results to an admin's assigned scope.
type ComplaintFilter struct {
	Status         *domain.ComplaintStatus
	Department     *domain.Department
	Ward           *domain.Ward
	Priority       *domain.Priority
	Departments    []domain.Department
	Wards          []domain.Ward
	SubmittedAfter *time.Time
	SortBy         SortField
	SortAsc        bool
	Limit          int
	Offset         int
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Complaint, error)
	AppendStatus(ctx context.Context, complaintID string, entry domain.StatusHistoryEntry) error
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, int, error)
	GetPhoto(ctx context.Context, ticketID string) (*domain.Photo, error)
	ComplaintStats
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates the pgx-backed repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintColumns = `id, ticket_id, citizen_name, citizen_phone, citizen_email,
        department, ward, complaint_type, description, address, priority,
        photo_content_type, photo_filename, photo_object_key, photo_size, photo_uploaded_at,
        status, assigned_officer, estimated_resolution, submitted_at, last_updated_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const insertComplaint = `
        INSERT INTO complaints (ticket_id, citizen_name, citizen_phone, citizen_email,
            department, ward, complaint_type, description, address, priority,
            photo_data, photo_content_type, photo_filename, photo_object_key, photo_size, photo_uploaded_at,
            status, assigned_officer, estimated_resolution, submitted_at, last_updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
        RETURNING id`

	var (
		photoData       []byte
		photoType       *string
		photoName       *string
		photoKey        *string
		photoSize       *int64
		photoUploadedAt *time.Time
	)
	if p := complaint.Details.Photo; p.Present() {
		photoData = p.Data
		photoType = &p.ContentType
		photoName = &p.Filename
		if p.ObjectKey != "" {
			photoKey = &p.ObjectKey
		}
		photoSize = &p.Size
		photoUploadedAt = &p.UploadedAt
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, insertComplaint,
			complaint.TicketID,
			complaint.Citizen.Name,
			complaint.Citizen.Phone,
			complaint.Citizen.Email,
			complaint.Details.Department,
			complaint.Details.Ward,
			complaint.Details.Type,
			complaint.Details.Description,
			complaint.Details.Address,
			complaint.Details.Priority,
			photoData,
			photoType,
			photoName,
			photoKey,
			photoSize,
			photoUploadedAt,
			complaint.Status,
			complaint.AssignedOfficer,
			complaint.EstimatedResolution,
			complaint.Timestamps.Submitted,
			complaint.Timestamps.LastUpdated,
		).Scan(&complaint.ID); err != nil {
			return err
		}
		for _, entry := range complaint.History {
			if err := insertHistory(ctx, tx, complaint.ID, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err, "complaints_ticket_id_key") {
		return ErrDuplicateTicketID
	}
	return err
}

func insertHistory(ctx context.Context, tx pgx.Tx, complaintID string, entry domain.StatusHistoryEntry) error {
	const query = `
        INSERT INTO complaint_status_history (complaint_id, status, updated_by, message, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := tx.Exec(ctx, query, complaintID, entry.Status, entry.UpdatedBy, entry.Message, entry.Timestamp)
	return err
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id=$1`
	return r.fetchSingle(ctx, query, key)
}

func (r *complaintRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE ticket_id=$1`
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *complaintRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Complaint, error) {
	complaint, err := scanComplaint(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, translateNoRows(err)
	}
	history, err := r.listHistory(ctx, complaint.ID)
	if err != nil {
		return nil, err
	}
	complaint.History = history
	return complaint, nil
}

func (r *complaintRepository) listHistory(ctx context.Context, complaintID string) ([]domain.StatusHistoryEntry, error) {
	const query = `
        SELECT status, updated_by, message, created_at
        FROM complaint_status_history WHERE complaint_id=$1 ORDER BY id ASC`
	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusHistoryEntry
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		if err := rows.Scan(&entry.Status, &entry.UpdatedBy, &entry.Message, &entry.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// AppendStatus updates status and lastUpdated and appends the history entry in one transaction.
// The row lock taken by the UPDATE orders concurrent appends to the same complaint.
func (r *complaintRepository) AppendStatus(ctx context.Context, complaintID string, entry domain.StatusHistoryEntry) error {
	const update = `
        UPDATE complaints SET status=$1, last_updated_at=GREATEST(last_updated_at, $2)
        WHERE id=$3`
	key, err := parseID(complaintID)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, update, entry.Status, entry.Timestamp, key)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrNotFound
		}
		return insertHistory(ctx, tx, key, entry)
	})
}

func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, int, error) {
	where, args := buildComplaintWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM complaints WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = sortColumns[SortSubmitted]
	}
	direction := "DESC"
	if filter.SortAsc {
		direction = "ASC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d`,
		complaintColumns, where, column, direction, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Complaint
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *complaint)
	}
	return result, total, rows.Err()
}

func buildComplaintWhere(filter ComplaintFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.Ward != nil {
		args = append(args, *filter.Ward)
		clauses = append(clauses, fmt.Sprintf("ward=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if len(filter.Departments) > 0 {
		args = append(args, departmentStrings(filter.Departments))
		clauses = append(clauses, fmt.Sprintf("department = ANY($%d)", len(args)))
	}
	if len(filter.Wards) > 0 {
		args = append(args, wardStrings(filter.Wards))
		clauses = append(clauses, fmt.Sprintf("ward = ANY($%d)", len(args)))
	}
	if filter.SubmittedAfter != nil {
		args = append(args, *filter.SubmittedAfter)
		clauses = append(clauses, fmt.Sprintf("submitted_at >= $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func (r *complaintRepository) GetPhoto(ctx context.Context, ticketID string) (*domain.Photo, error) {
	const query = `
        SELECT photo_data, photo_content_type, photo_filename, photo_object_key, photo_size, photo_uploaded_at
        FROM complaints WHERE ticket_id=$1`
	var (
		photo      domain.Photo
		photoType  *string
		photoName  *string
		photoKey   *string
		photoSize  *int64
		uploadedAt *time.Time
	)
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&photo.Data, &photoType, &photoName, &photoKey, &photoSize, &uploadedAt,
	); err != nil {
		return nil, translateNoRows(err)
	}
	photo.ContentType = deref(photoType)
	photo.Filename = deref(photoName)
	photo.ObjectKey = deref(photoKey)
	if photoSize != nil {
		photo.Size = *photoSize
	}
	if uploadedAt != nil {
		photo.UploadedAt = *uploadedAt
	}
	if !photo.Present() {
		return nil, ErrNotFound
	}
	return &photo, nil
}

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	var (
		c          domain.Complaint
		photoType  *string
		photoName  *string
		photoKey   *string
		photoSize  *int64
		uploadedAt *time.Time
	)
	if err := row.Scan(
		&c.ID,
		&c.TicketID,
		&c.Citizen.Name,
		&c.Citizen.Phone,
		&c.Citizen.Email,
		&c.Details.Department,
		&c.Details.Ward,
		&c.Details.Type,
		&c.Details.Description,
		&c.Details.Address,
		&c.Details.Priority,
		&photoType,
		&photoName,
		&photoKey,
		&photoSize,
		&uploadedAt,
		&c.Status,
		&c.AssignedOfficer,
		&c.EstimatedResolution,
		&c.Timestamps.Submitted,
		&c.Timestamps.LastUpdated,
	); err != nil {
		return nil, err
	}
	if photoSize != nil && *photoSize > 0 {
		c.Details.Photo = &domain.Photo{
			ContentType: deref(photoType),
			Filename:    deref(photoName),
			ObjectKey:   deref(photoKey),
			Size:        *photoSize,
		}
		if uploadedAt != nil {
			c.Details.Photo.UploadedAt = *uploadedAt
		}
	}
	return &c, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func departmentStrings(in []domain.Department) []string {
	out := make([]string, len(in))
	for i, d := range in {
		out[i] = string(d)
	}
	return out
}

func wardStrings(in []domain.Ward) []string {
	out := make([]string, len(in))
	for i, w := range in {
		out[i] = string(w)
	}
	return out
}
