package sqlstore

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist. The DDL is restricted to the
// subset understood by both SQLite and PostgreSQL.
// IMPORTANT: referenced tables must be created before the tables that point at them.
const schema = `
CREATE TABLE IF NOT EXISTS periods (
    id TEXT PRIMARY KEY,
    community_id TEXT NOT NULL,
    code TEXT NOT NULL,
    seq BIGINT NOT NULL,
    UNIQUE (community_id, seq)
);

CREATE TABLE IF NOT EXISTS units (
    id TEXT PRIMARY KEY,
    community_id TEXT NOT NULL,
    code TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS unit_groups (
    id TEXT PRIMARY KEY,
    community_id TEXT NOT NULL,
    code TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS unit_group_members (
    group_id TEXT NOT NULL,
    unit_id TEXT NOT NULL,
    start_seq BIGINT NOT NULL,
    end_seq BIGINT,
    FOREIGN KEY (group_id) REFERENCES unit_groups(id) ON DELETE CASCADE,
    FOREIGN KEY (unit_id) REFERENCES units(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS billing_entities (
    id TEXT PRIMARY KEY,
    community_id TEXT NOT NULL,
    code TEXT NOT NULL,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS billing_entity_members (
    billing_entity_id TEXT NOT NULL,
    unit_id TEXT NOT NULL,
    start_seq BIGINT NOT NULL,
    end_seq BIGINT,
    FOREIGN KEY (billing_entity_id) REFERENCES billing_entities(id) ON DELETE CASCADE,
    FOREIGN KEY (unit_id) REFERENCES units(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS expense_target_sets (
    id TEXT PRIMARY KEY,
    community_id TEXT NOT NULL,
    code TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS expense_target_members (
    set_id TEXT NOT NULL,
    unit_id TEXT NOT NULL,
    PRIMARY KEY (set_id, unit_id),
    FOREIGN KEY (set_id) REFERENCES expense_target_sets(id) ON DELETE CASCADE,
    FOREIGN KEY (unit_id) REFERENCES units(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS allocation_rules (
    id TEXT PRIMARY KEY,
    community_id TEXT NOT NULL,
    code TEXT NOT NULL,
    method TEXT NOT NULL,
    params TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS expense_types (
    id TEXT PRIMARY KEY,
    community_id TEXT NOT NULL,
    code TEXT NOT NULL,
    name TEXT NOT NULL,
    rule_id TEXT,
    FOREIGN KEY (rule_id) REFERENCES allocation_rules(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS weight_vectors (
    id TEXT PRIMARY KEY,
    community_id TEXT NOT NULL,
    period_id TEXT NOT NULL,
    rule_id TEXT NOT NULL,
    scope_type TEXT NOT NULL,
    scope_id TEXT NOT NULL,
    UNIQUE (community_id, period_id, rule_id, scope_type, scope_id),
    FOREIGN KEY (period_id) REFERENCES periods(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS weight_items (
    vector_id TEXT NOT NULL,
    unit_id TEXT NOT NULL,
    raw DOUBLE PRECISION NOT NULL,
    weight DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (vector_id, unit_id),
    FOREIGN KEY (vector_id) REFERENCES weight_vectors(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    community_id TEXT NOT NULL,
    period_id TEXT NOT NULL,
    expense_type_id TEXT,
    description TEXT NOT NULL DEFAULT '',
    allocatable_amount TEXT NOT NULL,
    currency TEXT NOT NULL DEFAULT '',
    target_type TEXT NOT NULL,
    target_id TEXT NOT NULL DEFAULT '',
    weight_vector_id TEXT,
    FOREIGN KEY (period_id) REFERENCES periods(id) ON DELETE CASCADE,
    FOREIGN KEY (expense_type_id) REFERENCES expense_types(id) ON DELETE SET NULL,
    FOREIGN KEY (weight_vector_id) REFERENCES weight_vectors(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS measures (
    period_id TEXT NOT NULL,
    unit_id TEXT NOT NULL,
    type_code TEXT NOT NULL,
    value DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (period_id, unit_id, type_code),
    FOREIGN KEY (period_id) REFERENCES periods(id) ON DELETE CASCADE,
    FOREIGN KEY (unit_id) REFERENCES units(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS allocation_lines (
    id TEXT PRIMARY KEY,
    community_id TEXT NOT NULL,
    period_id TEXT NOT NULL,
    expense_id TEXT NOT NULL,
    unit_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    UNIQUE (expense_id, unit_id),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE,
    FOREIGN KEY (unit_id) REFERENCES units(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bills (
    id TEXT PRIMARY KEY,
    community_id TEXT NOT NULL,
    period_id TEXT NOT NULL,
    billing_entity_id TEXT NOT NULL,
    total TEXT NOT NULL,
    updated_at BIGINT NOT NULL,
    UNIQUE (community_id, period_id, billing_entity_id),
    FOREIGN KEY (billing_entity_id) REFERENCES billing_entities(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bill_lines (
    bill_id TEXT NOT NULL,
    expense_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    PRIMARY KEY (bill_id, expense_id),
    FOREIGN KEY (bill_id) REFERENCES bills(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_units_community_id ON units(community_id);
CREATE INDEX IF NOT EXISTS idx_unit_group_members_group_id ON unit_group_members(group_id);
CREATE INDEX IF NOT EXISTS idx_billing_entity_members_unit_id ON billing_entity_members(unit_id);
CREATE INDEX IF NOT EXISTS idx_allocation_rules_community_id ON allocation_rules(community_id);
CREATE INDEX IF NOT EXISTS idx_measures_period_type ON measures(period_id, type_code);
CREATE INDEX IF NOT EXISTS idx_allocation_lines_period_id ON allocation_lines(period_id, community_id);
CREATE INDEX IF NOT EXISTS idx_bills_period_id ON bills(period_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
