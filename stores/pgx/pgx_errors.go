package pgx

import (
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	es "github.com/userevents/core"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == "23505"
}

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

func unmarshalJSON(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

func metadataJSON(md es.Metadata) []byte {
	if md == nil {
		return []byte("{}")
	}
	b, err := json.Marshal(md)
	if err != nil {
		return []byte("{}")
	}
	return b
}

func decodeMetadata(raw []byte) es.Metadata {
	if len(raw) == 0 {
		return nil
	}
	var md es.Metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil
	}
	return md
}
