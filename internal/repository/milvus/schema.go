package milvus

import (
	"encoding/binary"
	"strconv"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Field names shared between schema definitions and result parsing.
const (
	FieldID            = "id"
	FieldEmbedding     = "embedding"
	FieldText          = "text"
	FieldTitle         = "title"
	FieldURL           = "url"
	FieldSource        = "source"
	FieldPublishedDate = "published_date"
	FieldTags          = "tags"
	FieldChunkIndex    = "chunk_index"
	FieldDocPath       = "doc_path"
)

// Scalar field widths. Tags are stored as a JSON-encoded string array.
const (
	maxLenText          = 65535
	maxLenTitle         = 1024
	maxLenURL           = 2048
	maxLenSource        = 512
	maxLenPublishedDate = 64
	maxLenTags          = 2048
	maxLenDocPath       = 2048
)

// DocumentSchema describes the primary article corpus. IDs are assigned by
// the caller (see NewDocumentID) so inserts stay idempotent per document.
func DocumentSchema(collection string, dim int) *entity.Schema {
	return &entity.Schema{
		CollectionName: collection,
		Description:    "Ingested articles for retrieval-augmented answers",
		Fields: []*entity.Field{
			{
				Name:       FieldID,
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     false,
			},
			{
				Name:     FieldEmbedding,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(dim),
				},
			},
			{
				Name:     FieldText,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": strconv.Itoa(maxLenText),
				},
			},
			{
				Name:     FieldTitle,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": strconv.Itoa(maxLenTitle),
				},
			},
			{
				Name:     FieldURL,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": strconv.Itoa(maxLenURL),
				},
			},
			{
				Name:     FieldSource,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": strconv.Itoa(maxLenSource),
				},
			},
			{
				Name:     FieldPublishedDate,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": strconv.Itoa(maxLenPublishedDate),
				},
			},
			{
				Name:     FieldTags,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": strconv.Itoa(maxLenTags),
				},
			},
		},
	}
}

// MemorySchema describes the security-memory corpus. The store assigns IDs
// (AutoID) since chunks have no natural external identity.
func MemorySchema(collection string, dim int) *entity.Schema {
	return &entity.Schema{
		CollectionName: collection,
		Description:    "Security knowledge chunks with tag filtering",
		Fields: []*entity.Field{
			{
				Name:       FieldID,
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     true,
			},
			{
				Name:     FieldEmbedding,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(dim),
				},
			},
			{
				Name:     FieldText,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": strconv.Itoa(maxLenText),
				},
			},
			{
				Name:     FieldTitle,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": strconv.Itoa(maxLenTitle),
				},
			},
			{
				Name:     FieldSource,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": strconv.Itoa(maxLenSource),
				},
			},
			{
				Name:     FieldTags,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": strconv.Itoa(maxLenTags),
				},
			},
			{
				Name:     FieldChunkIndex,
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     FieldDocPath,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": strconv.Itoa(maxLenDocPath),
				},
			},
		},
	}
}

// NewDocumentID derives a positive int64 primary key from the high eight
// bytes of a fresh UUID. The sign bit is cleared so the value is always
// non-negative.
func NewDocumentID() int64 {
	u := uuid.New()
	raw := binary.BigEndian.Uint64(u[:8])
	return int64(raw & 0x7FFFFFFFFFFFFFFF)
}
