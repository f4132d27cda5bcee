package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lauolme/registro-app/internal/ir"
)

// RuleSetRow is a lightweight listing entry.
type RuleSetRow struct {
	Name       string    `json:"name"`
	Source     string    `json:"source"`
	ImportedAt time.Time `json:"imported_at"`
	Rules      int       `json:"rules"`
}

// ImportRuleSet replaces the rule set called name with rs, keeping pack order.
func (db *DB) ImportRuleSet(name, source string, rs []ir.Rule) error {
	if name == "" {
		return errors.New("storage: empty rule set name")
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Cascades to rules and conditions.
	if _, err := tx.Exec(`DELETE FROM rule_sets WHERE name = ?`, name); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO rule_sets (name, source, imported_at) VALUES (?, ?, ?)`,
		name, source, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return err
	}

	ruleStmt, err := tx.Prepare(`
		INSERT INTO rules (rule_set, ordinal, name, analysis, conclusion, risk, next_steps)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ruleStmt.Close()
	condStmt, err := tx.Prepare(`
		INSERT INTO conditions (rule_set, rule_ord, ordinal, key, value)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer condStmt.Close()

	for i, r := range rs {
		if _, err := ruleStmt.Exec(name, i, r.Name, r.Analysis, r.Conclusion, r.Risk, r.NextSteps); err != nil {
			return err
		}
		for j, c := range r.Condition {
			if _, err := condStmt.Exec(name, i, j, c.Key, c.Value); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// LoadRuleSet returns the rules of the named set in pack order. A missing set
// is a *ir.LoadError wrapping sql.ErrNoRows.
func (db *DB) LoadRuleSet(name string) ([]ir.Rule, error) {
	src := "sqlite:" + name
	var exists int
	if err := db.conn.QueryRow(`SELECT COUNT(1) FROM rule_sets WHERE name = ?`, name).Scan(&exists); err != nil {
		return nil, &ir.LoadError{Source: src, Index: -1, Err: err}
	}
	if exists == 0 {
		return nil, &ir.LoadError{Source: src, Index: -1, Reason: "rule set not found", Err: sql.ErrNoRows}
	}

	rows, err := db.conn.Query(`
		SELECT ordinal, name, analysis, conclusion, risk, next_steps
		  FROM rules
		 WHERE rule_set = ?
		 ORDER BY ordinal`, name)
	if err != nil {
		return nil, &ir.LoadError{Source: src, Index: -1, Err: err}
	}
	out := []ir.Rule{}
	byOrd := map[int]int{}
	for rows.Next() {
		var ord int
		var r ir.Rule
		if err := rows.Scan(&ord, &r.Name, &r.Analysis, &r.Conclusion, &r.Risk, &r.NextSteps); err != nil {
			rows.Close()
			return nil, &ir.LoadError{Source: src, Index: len(out), Err: err}
		}
		r.Condition = ir.Condition{}
		byOrd[ord] = len(out)
		out = append(out, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, &ir.LoadError{Source: src, Index: -1, Err: err}
	}

	crows, err := db.conn.Query(`
		SELECT rule_ord, key, value
		  FROM conditions
		 WHERE rule_set = ?
		 ORDER BY rule_ord, ordinal`, name)
	if err != nil {
		return nil, &ir.LoadError{Source: src, Index: -1, Err: err}
	}
	defer crows.Close()
	for crows.Next() {
		var ord int
		var c ir.Clause
		if err := crows.Scan(&ord, &c.Key, &c.Value); err != nil {
			return nil, &ir.LoadError{Source: src, Index: -1, Field: "condition", Err: err}
		}
		i, ok := byOrd[ord]
		if !ok {
			continue
		}
		out[i].Condition = append(out[i].Condition, c)
	}
	if err := crows.Err(); err != nil {
		return nil, &ir.LoadError{Source: src, Index: -1, Field: "condition", Err: err}
	}
	return out, nil
}

// ListRuleSets returns every stored set with its rule count, newest first.
func (db *DB) ListRuleSets() ([]RuleSetRow, error) {
	const q = `
		SELECT s.name, COALESCE(s.source, ''), s.imported_at,
		       (SELECT COUNT(1) FROM rules r WHERE r.rule_set = s.name) AS n
		  FROM rule_sets s
		 ORDER BY s.imported_at DESC, s.name`
	rows, err := db.conn.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RuleSetRow
	for rows.Next() {
		var rr RuleSetRow
		var importedAt string
		if err := rows.Scan(&rr.Name, &rr.Source, &importedAt, &rr.Rules); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, importedAt); err == nil {
			rr.ImportedAt = t
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// DeleteRuleSet removes a set; it reports whether one existed.
func (db *DB) DeleteRuleSet(name string) (bool, error) {
	res, err := db.conn.Exec(`DELETE FROM rule_sets WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
