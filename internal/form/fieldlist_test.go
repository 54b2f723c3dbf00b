package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFieldList(t *testing.T) {
	assert.Equal(t, []string{""}, NewFieldList().Values())
	assert.Equal(t, []string{"a", "b"}, NewFieldList("a", "b").Values())
}

func TestFieldList_Remove(t *testing.T) {
	tests := []struct {
		name    string
		start   []string
		index   int
		want    []string
		wantErr error
	}{
		{"middle keeps order", []string{"a", "b", "c"}, 1, []string{"a", "c"}, nil},
		{"first", []string{"a", "b"}, 0, []string{"b"}, nil},
		{"last entry refused", []string{"only"}, 0, []string{"only"}, ErrLastEntry},
		{"negative index", []string{"a", "b"}, -1, []string{"a", "b"}, ErrIndexOutOfRange},
		{"past the end", []string{"a", "b"}, 2, []string{"a", "b"}, ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewFieldList(tt.start...)

			err := l.Remove(tt.index)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, l.Values())
		})
	}
}

func TestFieldList_NeverEmpty(t *testing.T) {
	l := NewFieldList()
	l.Append()
	l.Append()

	for l.Len() > 1 {
		require.NoError(t, l.Remove(0))
	}
	assert.ErrorIs(t, l.Remove(0), ErrLastEntry)
	assert.Equal(t, 1, l.Len())
}

func TestFieldList_SetAndValuesCopy(t *testing.T) {
	l := NewFieldList()
	require.NoError(t, l.Set(0, "1 Chicken Breast"))
	assert.ErrorIs(t, l.Set(3, "x"), ErrIndexOutOfRange)

	vals := l.Values()
	vals[0] = "changed"
	assert.Equal(t, []string{"1 Chicken Breast"}, l.Values())
}
