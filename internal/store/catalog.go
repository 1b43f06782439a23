package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/cinspect/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Catalog is an in-memory SQLite table of session summaries. It answers
// filtered, sorted list queries and is rebuilt from the cache on every scan;
// nothing is written to disk.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog creates an empty in-memory catalog.
func OpenCatalog() (*Catalog, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening catalog db: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the catalog database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// ReplaceAll swaps the catalog contents for sessions in one transaction.
func (c *Catalog) ReplaceAll(sessions []*model.Session) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM sessions"); err != nil {
		return err
	}
	for _, s := range sessions {
		if err := saveSession(tx, s); err != nil {
			return fmt.Errorf("saving %s: %w", s.SessionID, err)
		}
	}
	return tx.Commit()
}

// Upsert stores or replaces the row for one session.
func (c *Catalog) Upsert(s *model.Session) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := saveSession(tx, s); err != nil {
		return err
	}
	return tx.Commit()
}

func saveSession(tx *sql.Tx, s *model.Session) error {
	sum := s.Summarize()

	var startTime, endTime, startDate sql.NullString
	var startNs sql.NullInt64
	if !sum.StartTime.IsZero() {
		startTime = sql.NullString{String: sum.StartTime.Format(time.RFC3339Nano), Valid: true}
		startDate = sql.NullString{String: sum.StartTime.Format(model.DateLayout), Valid: true}
		startNs = sql.NullInt64{Int64: sum.StartTime.UnixNano(), Valid: true}
	}
	if !sum.EndTime.IsZero() {
		endTime = sql.NullString{String: sum.EndTime.Format(time.RFC3339Nano), Valid: true}
	}

	_, err := tx.Exec(`INSERT OR REPLACE INTO sessions
		(session_id, description, project, project_path, project_dir, git_branch, git_branch_lower,
		 message_count, total_tokens, input_tokens, output_tokens,
		 start_time, end_time, start_unix_ns, start_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.SessionID, sum.Description, sum.Project, sum.ProjectPath, sum.ProjectDir,
		sum.GitBranch, strings.ToLower(sum.GitBranch),
		sum.MessageCount, sum.TotalTokens, sum.InputTokens, sum.OutputTokens,
		startTime, endTime, startNs, startDate,
	)
	if err != nil {
		return err
	}

	// Delete old model entries for this session
	if _, err := tx.Exec("DELETE FROM session_models WHERE session_id = ?", sum.SessionID); err != nil {
		return err
	}

	for _, mu := range modelUsage(s) {
		_, err = tx.Exec(`INSERT INTO session_models
			(session_id, model, messages, input_tokens, output_tokens)
			VALUES (?, ?, ?, ?, ?)`,
			sum.SessionID, mu.Model, mu.Messages, mu.InputTokens, mu.OutputTokens,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Query returns summaries matching f, newest first. Sessions without a start
// time sort last and are not subject to the date bounds.
func (c *Catalog) Query(f model.Filter) ([]model.SessionSummary, error) {
	var (
		where []string
		args  []any
	)
	addRange := func(col string, r model.Range) {
		where = append(where, col+" >= ?")
		args = append(args, r.Min)
		if r.Max != nil {
			where = append(where, col+" <= ?")
			args = append(args, *r.Max)
		}
	}
	addRange("message_count", f.Messages)
	addRange("total_tokens", f.TotalTokens)
	addRange("input_tokens", f.InputTokens)
	addRange("output_tokens", f.OutputTokens)

	if f.Branch != "" {
		where = append(where, "instr(git_branch_lower, ?) > 0")
		args = append(args, strings.ToLower(f.Branch))
	}
	if f.StartDate != "" {
		where = append(where, "(start_date IS NULL OR start_date >= ?)")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		where = append(where, "(start_date IS NULL OR start_date <= ?)")
		args = append(args, f.EndDate)
	}

	query := `SELECT
		session_id, description, project, project_path, project_dir, git_branch,
		message_count, total_tokens, input_tokens, output_tokens, start_time, end_time
		FROM sessions
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY start_unix_ns IS NULL, start_unix_ns DESC, session_id`

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.SessionSummary
	for rows.Next() {
		var s model.SessionSummary
		var projectPath, branch, startStr, endStr sql.NullString

		err := rows.Scan(
			&s.SessionID, &s.Description, &s.Project, &projectPath, &s.ProjectDir, &branch,
			&s.MessageCount, &s.TotalTokens, &s.InputTokens, &s.OutputTokens, &startStr, &endStr,
		)
		if err != nil {
			return nil, err
		}

		s.ProjectPath = projectPath.String
		s.GitBranch = branch.String
		if startStr.Valid {
			s.StartTime, _ = time.Parse(time.RFC3339Nano, startStr.String)
		}
		if endStr.Valid {
			s.EndTime, _ = time.Parse(time.RFC3339Nano, endStr.String)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of cataloged sessions.
func (c *Catalog) Count() (int, error) {
	var n int
	err := c.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n)
	return n, err
}

// ModelUsage aggregates messages attributed to one model.
type ModelUsage struct {
	Model        string `json:"model"`
	Messages     int    `json:"messages"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
}

// ModelBreakdown totals model usage across all cataloged sessions, busiest first.
func (c *Catalog) ModelBreakdown() ([]ModelUsage, error) {
	rows, err := c.db.Query(`SELECT model, SUM(messages), SUM(input_tokens), SUM(output_tokens)
		FROM session_models
		GROUP BY model
		ORDER BY SUM(messages) DESC, model`)
	if err != nil {
		return nil, fmt.Errorf("querying models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ModelUsage
	for rows.Next() {
		var mu ModelUsage
		if err := rows.Scan(&mu.Model, &mu.Messages, &mu.InputTokens, &mu.OutputTokens); err != nil {
			return nil, err
		}
		out = append(out, mu)
	}
	return out, rows.Err()
}

func modelUsage(s *model.Session) []ModelUsage {
	byModel := make(map[string]*ModelUsage)
	for _, m := range s.Messages {
		if m.Model == "" {
			continue
		}
		mu, ok := byModel[m.Model]
		if !ok {
			mu = &ModelUsage{Model: m.Model}
			byModel[m.Model] = mu
		}
		mu.Messages++
		mu.InputTokens += m.TokensInput
		mu.OutputTokens += m.TokensOutput
	}

	out := make([]ModelUsage, 0, len(byModel))
	for _, mu := range byModel {
		out = append(out, *mu)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}
