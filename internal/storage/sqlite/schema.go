// ABOUTME: SQLite schema for a single document collection
// ABOUTME: One file per collection; chunks carry their metadata and a vector BLOB
package sqlite

// SchemaVersion is recorded in collection_meta
const SchemaVersion = 1

// DistanceSpace names the metric used for nearest-neighbour queries
const DistanceSpace = "cosine"

// Schema contains all SQL statements for collection initialization
const Schema = `
-- Collection metadata singleton
CREATE TABLE IF NOT EXISTS collection_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    schema_version INTEGER NOT NULL,
    space TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Chunks table (text, metadata and embedding vector)
CREATE TABLE IF NOT EXISTS chunks (
    key TEXT PRIMARY KEY,
    doc_id TEXT NOT NULL,
    page INTEGER NOT NULL,
    section TEXT NOT NULL,
    chunk_id INTEGER NOT NULL,
    text TEXT NOT NULL,
    vector BLOB NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
`
