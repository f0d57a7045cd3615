package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS course_state (
	course_id  TEXT NOT NULL,
	piece      TEXT NOT NULL,
	data       TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (course_id, piece)
);

CREATE INDEX IF NOT EXISTS idx_course_state_course ON course_state(course_id);

CREATE TABLE IF NOT EXISTS page_cache (
	id         TEXT PRIMARY KEY,
	position   INTEGER NOT NULL,
	data       TEXT NOT NULL DEFAULT '{}',
	fetched_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_page_cache_position ON page_cache(position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
