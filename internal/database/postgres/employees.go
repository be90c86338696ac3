package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/ankulpolara/face-attend/internal/database"
)

// EmployeeRepository provides PostgreSQL-backed employee and gallery storage.
// Embeddings live in a pgvector column so the gallery can be shortlisted
// with the SQL `<->` operator when it grows large.
type EmployeeRepository struct {
	pool *Pool
}

// NewEmployeeRepository creates a new PostgreSQL employee repository.
func NewEmployeeRepository(pool *Pool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// List returns all employees ordered by id. Embeddings are not loaded.
func (r *EmployeeRepository) List(ctx context.Context) ([]database.Employee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, department, embedding IS NOT NULL, created_at
		FROM employees
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []database.Employee
	for rows.Next() {
		var e database.Employee
		var enrolled bool
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Department, &enrolled, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		if enrolled {
			// Presence marker only; callers needing the vector use
			// GetEmbedding or ListEnrolled.
			e.Embedding = []float32{}
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return employees, nil
}

// ListEnrolled returns the gallery snapshot: all employees with embeddings,
// ordered by id for stable resolution tie-breaks.
func (r *EmployeeRepository) ListEnrolled(ctx context.Context) ([]database.Employee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, department, embedding, created_at
		FROM employees
		WHERE embedding IS NOT NULL
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list enrolled employees: %w", err)
	}
	defer rows.Close()

	var employees []database.Employee
	for rows.Next() {
		var e database.Employee
		var vec pgvector.Vector
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Department, &vec, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan enrolled employee: %w", err)
		}
		e.Embedding = vec.Slice()
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrolled employees: %w", err)
	}
	return employees, nil
}

// GetEmbedding returns the embedding for an employee, nil if not enrolled.
func (r *EmployeeRepository) GetEmbedding(ctx context.Context, employeeID int64) ([]float32, error) {
	var vec pgvector.Vector
	err := r.pool.QueryRow(ctx,
		"SELECT embedding FROM employees WHERE id = $1 AND embedding IS NOT NULL",
		employeeID,
	).Scan(&vec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get embedding: %w", err)
	}
	return vec.Slice(), nil
}

// FindNearest returns up to k enrolled employees ordered by Euclidean
// distance to the query vector. Used to shortlist large galleries before the
// exact re-rank.
func (r *EmployeeRepository) FindNearest(ctx context.Context, query []float32, k int) ([]database.Employee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, department, embedding, created_at
		FROM employees
		WHERE embedding IS NOT NULL
		ORDER BY embedding <-> $1, id
		LIMIT $2
	`, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("find nearest employees: %w", err)
	}
	defer rows.Close()

	var employees []database.Employee
	for rows.Next() {
		var e database.Employee
		var vec pgvector.Vector
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Department, &vec, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan nearest employee: %w", err)
		}
		e.Embedding = vec.Slice()
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nearest employees: %w", err)
	}
	return employees, nil
}

// Get retrieves an employee by id (embedding included), nil if not found.
func (r *EmployeeRepository) Get(ctx context.Context, id int64) (*database.Employee, error) {
	return r.getBy(ctx, "id = $1", id)
}

// GetByEmail retrieves an employee by email, nil if not found.
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*database.Employee, error) {
	return r.getBy(ctx, "email = $1", email)
}

func (r *EmployeeRepository) getBy(ctx context.Context, where string, arg any) (*database.Employee, error) {
	var e database.Employee
	var raw sql.NullString // embedding is NULL until enrollment
	err := r.pool.QueryRow(ctx,
		"SELECT id, name, email, department, embedding, created_at FROM employees WHERE "+where,
		arg,
	).Scan(&e.ID, &e.Name, &e.Email, &e.Department, &raw, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if raw.Valid {
		var vec pgvector.Vector
		if err := vec.Scan(raw.String); err != nil {
			return nil, fmt.Errorf("parse embedding: %w", err)
		}
		e.Embedding = vec.Slice()
	}
	return &e, nil
}

// SearchByName returns employees whose normalized name contains the
// normalized query. Normalization (case, diacritics) happens in Go, so the
// scan fetches names only and filters in memory; galleries are small enough
// that this beats keeping a normalized column in sync.
func (r *EmployeeRepository) SearchByName(ctx context.Context, name string) ([]database.Employee, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	needle := database.NormalizeEmployeeName(name)
	var out []database.Employee
	for _, e := range all {
		if strings.Contains(database.NormalizeEmployeeName(e.Name), needle) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Create inserts a new employee and returns its id.
func (r *EmployeeRepository) Create(ctx context.Context, e *database.Employee) (int64, error) {
	var embedding any
	if e.Enrolled() {
		embedding = pgvector.NewVector(e.Embedding)
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO employees (name, email, department, embedding)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, e.Name, e.Email, e.Department, embedding).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create employee: %w", err)
	}
	return id, nil
}

// Update replaces name, email, department, and (when set) the embedding.
func (r *EmployeeRepository) Update(ctx context.Context, e *database.Employee) error {
	var err error
	if e.Enrolled() {
		_, err = r.pool.Exec(ctx, `
			UPDATE employees
			SET name = $1, email = $2, department = $3, embedding = $4
			WHERE id = $5
		`, e.Name, e.Email, e.Department, pgvector.NewVector(e.Embedding), e.ID)
	} else {
		_, err = r.pool.Exec(ctx, `
			UPDATE employees
			SET name = $1, email = $2, department = $3
			WHERE id = $4
		`, e.Name, e.Email, e.Department, e.ID)
	}
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return nil
}

// SetEmbedding replaces the employee's embedding (re-enrollment).
func (r *EmployeeRepository) SetEmbedding(ctx context.Context, id int64, embedding []float32) error {
	result, err := r.pool.Exec(ctx,
		"UPDATE employees SET embedding = $1 WHERE id = $2",
		pgvector.NewVector(embedding), id,
	)
	if err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("employee %d not found", id)
	}
	return nil
}

// Delete removes an employee; sessions cascade at the schema level.
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM employees WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("employee %d not found", id)
	}
	return nil
}

// Count returns the total number of employees.
func (r *EmployeeRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM employees").Scan(&count); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return count, nil
}

// CountEnrolled returns the number of employees with an embedding.
func (r *EmployeeRepository) CountEnrolled(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM employees WHERE embedding IS NOT NULL",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count enrolled employees: %w", err)
	}
	return count, nil
}
