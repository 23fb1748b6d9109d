package store

import (
	"context"
	"fmt"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// Problem is one inconsistency found by Verify.
type Problem struct {
	Check   string
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Check, p.Message)
}

// Verify checks the collection invariants: SQLite integrity, unique and
// positive identifiers, element nodes that are nodes, and group members
// that exist. It returns the problems found; an error means a check could
// not run.
func (s *Store) Verify(ctx context.Context) ([]Problem, error) {
	problems := []Problem{}

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		return nil, fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		problems = append(problems, Problem{Check: "integrity", Message: integrity})
	}

	checks := []struct {
		name  string
		query string
	}{
		{"unique", `
			SELECT 'identifier ' || kind || '/' || tag || '/' || number || ' held ' || COUNT(*) || ' times'
			FROM entities GROUP BY kind, tag, number HAVING COUNT(*) > 1`},
		{"positive", `
			SELECT 'handle ' || handle || ' has identifier ' || number
			FROM entities WHERE number <= 0`},
		{"element_nodes", fmt.Sprintf(`
			SELECT 'element handle ' || n.element || ' references handle ' || n.node || ', not a node'
			FROM element_nodes n LEFT JOIN entities e ON e.handle = n.node
			WHERE e.handle IS NULL OR e.kind <> %d`, ir.KindNode)},
		{"group_members", `
			SELECT 'group ' || g.name || ' references missing handle ' || g.handle
			FROM group_members g LEFT JOIN entities e ON e.handle = g.handle
			WHERE e.handle IS NULL`},
	}
	for _, c := range checks {
		rows, err := s.db.QueryContext(ctx, c.query)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", c.name, err)
		}
		for rows.Next() {
			var msg string
			if err := rows.Scan(&msg); err != nil {
				rows.Close()
				return nil, fmt.Errorf("check %s: %w", c.name, err)
			}
			problems = append(problems, Problem{Check: c.name, Message: msg})
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", c.name, err)
		}
	}
	return problems, nil
}
