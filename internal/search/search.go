package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/Zuo-Peng/chatlyze/internal/index"
)

type Options struct {
	Query  string // substring of file path or participant names, "" = all
	Format string // "" = all, else a format id
	Since  string // "" = no filter, e.g. "2024-01-01"
	Limit  int
}

// Search lists saved runs, newest first.
func Search(db *index.DB, opts Options) ([]index.Run, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	var conditions []string
	var args []interface{}

	if q := strings.TrimSpace(opts.Query); q != "" {
		conditions = append(conditions, "(file_path LIKE ? ESCAPE '\\' OR participants LIKE ? ESCAPE '\\')")
		pat := "%" + escapeLike(q) + "%"
		args = append(args, pat, pat)
	}

	if opts.Format != "" {
		conditions = append(conditions, "format = ?")
		args = append(args, opts.Format)
	}

	if opts.Since != "" {
		since, err := parseSince(opts.Since)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, "created_at >= ?")
		args = append(args, since)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM runs
		%s
		ORDER BY created_at DESC, id
		LIMIT ?
	`, index.RunColumns, where)
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []index.Run
	for rows.Next() {
		r, err := index.ScanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// parseSince accepts a date or a relative duration such as "72h".
func parseSince(s string) (string, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().UTC().Add(-d).Format("2006-01-02T15:04:05Z"), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02T15:04:05Z"), nil
	}
	return "", fmt.Errorf("invalid --since %q: want YYYY-MM-DD or a duration like 72h", s)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
