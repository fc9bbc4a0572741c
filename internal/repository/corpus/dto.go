package corpus

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Omar-Sa03/rag-api/internal/domain"
)

// docToFields serializes a document into hash fields. The vector is packed
// as little-endian float32, matching the FT index TYPE FLOAT32.
func docToFields(doc domain.Document) (map[string]string, error) {
	meta, err := json.Marshal(domain.CleanMetadata(doc.Metadata))
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return map[string]string{
		fieldContent:  doc.Text,
		fieldVector:   vectorToBytes(doc.Embedding),
		fieldMetadata: string(meta),
	}, nil
}

// fieldsToMetadata decodes the metadata field, tolerating absent or corrupt
// payloads with an empty map.
func fieldsToMetadata(fields map[string]string) domain.Metadata {
	raw, ok := fields[fieldMetadata]
	if !ok || raw == "" {
		return domain.Metadata{}
	}
	var meta domain.Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return domain.Metadata{}
	}
	return meta
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
