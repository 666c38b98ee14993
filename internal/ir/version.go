package ir

// EngineVersion is the qrelax release version, reported by the CLI and
// the health endpoint. Canonical key layouts are versioned separately by
// their domain prefixes.
const EngineVersion = "0.1.0"
