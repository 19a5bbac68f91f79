package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestBlock_KindFallsBackToText(t *testing.T) {
	b := Block{Type: "video", Content: "hello"}
	assert.Equal(t, BlockTypeText, b.Kind())

	b.Type = BlockTypePDF
	assert.Equal(t, BlockTypePDF, b.Kind())
}

func TestBlock_NameDefaults(t *testing.T) {
	tests := []struct {
		name  string
		block Block
		want  string
	}{
		{"image without name", Block{Type: BlockTypeImage}, DefaultImageName},
		{"image with empty name", Block{Type: BlockTypeImage, FileName: strPtr("")}, DefaultImageName},
		{"image with name", Block{Type: BlockTypeImage, FileName: strPtr("cat.png")}, "cat.png"},
		{"pdf without name", Block{Type: BlockTypePDF}, DefaultPDFName},
		{"pdf with name", Block{Type: BlockTypePDF, FileName: strPtr("notes.pdf")}, "notes.pdf"},
		{"text has no name", Block{Type: BlockTypeText, FileName: strPtr("x")}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.block.Name())
		})
	}
}

func TestBlock_TitleOnlyForLinks(t *testing.T) {
	assert.Equal(t, "Docs", Block{Type: BlockTypeLink, FileName: strPtr("Docs")}.Title())
	assert.Equal(t, "", Block{Type: BlockTypeLink}.Title())
	assert.Equal(t, "", Block{Type: BlockTypeImage, FileName: strPtr("a.png")}.Title())
}

func TestBlock_MarshalJSONPerVariant(t *testing.T) {
	id := uuid.MustParse("7b3f7a5e-0000-4000-8000-000000000001")

	tests := []struct {
		name  string
		block Block
		want  map[string]interface{}
	}{
		{
			name:  "text",
			block: Block{ID: id, Type: BlockTypeText, Content: "hi", FileName: strPtr("ignored"), Position: 3},
			want:  map[string]interface{}{"id": id.String(), "type": "text", "content": "hi"},
		},
		{
			name:  "link with title",
			block: Block{ID: id, Type: BlockTypeLink, Content: "https://example.com", FileName: strPtr("Example")},
			want:  map[string]interface{}{"id": id.String(), "type": "link", "content": "https://example.com", "title": "Example"},
		},
		{
			name:  "link without title",
			block: Block{ID: id, Type: BlockTypeLink, Content: "https://example.com"},
			want:  map[string]interface{}{"id": id.String(), "type": "link", "content": "https://example.com"},
		},
		{
			name:  "pdf default name",
			block: Block{ID: id, Type: BlockTypePDF, Content: "https://cdn/media/a.pdf", StorageKey: strPtr("a.pdf")},
			want:  map[string]interface{}{"id": id.String(), "type": "pdf", "content": "https://cdn/media/a.pdf", "name": DefaultPDFName},
		},
		{
			name:  "unknown type renders as text",
			block: Block{ID: id, Type: "sticker", Content: "raw"},
			want:  map[string]interface{}{"id": id.String(), "type": "text", "content": "raw"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.block)
			require.NoError(t, err)

			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("root").Valid())
	assert.False(t, Role("").Valid())
}

func TestModelColumns(t *testing.T) {
	cols, err := modelColumns(Block{}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"id", "entry_id", "type", "content", "file_name", "storage_key", "position", "created_at",
	}, cols)

	cols, err = modelColumns(Entry{}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"id", "title", "description", "created_by", "created_at", "updated_at",
	}, cols)
}

func TestFindColumnMismatches(t *testing.T) {
	got := findColumnMismatches(
		[]string{"id", "title", "legacy", "created_at"},
		[]string{"id", "title", "created_at"},
	)
	assert.Equal(t, []string{"legacy"}, got)
	assert.Empty(t, findColumnMismatches([]string{"id"}, []string{"id", "title"}))
}
