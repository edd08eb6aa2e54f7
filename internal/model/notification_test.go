package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	r, err := NewRecord("Build finished", "All 42 tests passed", "ok.png")
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Len(t, r.ID, 26)
	assert.Equal(t, "Build finished", r.Title)
	assert.Equal(t, "All 42 tests passed", r.Detail)
	assert.Equal(t, "ok.png", r.IconPath)
	assert.Empty(t, r.ApplicationID)
	assert.True(t, r.EnqueuedAt.IsZero())
}

func TestNewRecord_UniqueIDs(t *testing.T) {
	a, err := NewRecord("same", "same", "")
	require.NoError(t, err)
	b, err := NewRecord("same", "same", "")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotSame(t, a, b)
}

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr error
	}{
		{name: "valid", title: "hello", wantErr: nil},
		{name: "empty title", title: "", wantErr: ErrEmptyTitle},
		{name: "whitespace title", title: "   \t", wantErr: ErrEmptyTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{Title: tt.title}
			assert.ErrorIs(t, r.Validate(), tt.wantErr)
		})
	}
}

func TestRecord_Clone(t *testing.T) {
	r := &Record{ID: "1", Title: "original"}
	c := r.Clone()
	c.Title = "changed"

	assert.Equal(t, "original", r.Title)
	assert.Equal(t, "1", c.ID)
	assert.NotSame(t, r, c)
}

func TestRecord_DetailTruncated(t *testing.T) {
	tests := []struct {
		name   string
		detail string
		maxLen int
		want   string
	}{
		{name: "short", detail: "hello", maxLen: 10, want: "hello"},
		{name: "exact", detail: "hello", maxLen: 5, want: "hello"},
		{name: "truncated", detail: "hello world", maxLen: 8, want: "hello..."},
		{name: "tiny max", detail: "hello", maxLen: 2, want: "he"},
		{name: "zero max", detail: "hello", maxLen: 0, want: ""},
		{name: "collapses whitespace", detail: "a\n\n  b", maxLen: 10, want: "a b"},
		{name: "multibyte", detail: "héllo wörld", maxLen: 8, want: "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{Detail: tt.detail}
			assert.Equal(t, tt.want, r.DetailTruncated(tt.maxLen))
		})
	}
}

func TestRecord_TextLength(t *testing.T) {
	r := &Record{Title: "héllo", Detail: "abc"}
	assert.Equal(t, 8, r.TextLength())
}

func TestBannerStyle_String(t *testing.T) {
	assert.Equal(t, "dark", StyleDark.String())
	assert.Equal(t, "light", StyleLight.String())
	assert.Equal(t, "unknown", BannerStyle(7).String())
}

func TestBannerStyle_DefaultIsDark(t *testing.T) {
	var s BannerStyle
	assert.Equal(t, StyleDark, s)
}

func TestBannerStyle_Toggle(t *testing.T) {
	assert.Equal(t, StyleLight, StyleDark.Toggle())
	assert.Equal(t, StyleDark, StyleLight.Toggle())
}

func TestParseBannerStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    BannerStyle
		wantErr bool
	}{
		{in: "dark", want: StyleDark},
		{in: "Light", want: StyleLight},
		{in: " DARK ", want: StyleDark},
		{in: "blue", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBannerStyle(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStyle)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBannerStyle_JSON(t *testing.T) {
	type wrapper struct {
		Style BannerStyle `json:"style"`
	}

	data, err := json.Marshal(wrapper{Style: StyleLight})
	require.NoError(t, err)
	assert.JSONEq(t, `{"style":"light"}`, string(data))

	var w wrapper
	require.Error(t, json.Unmarshal([]byte(`{"style":"sepia"}`), &w))
}
