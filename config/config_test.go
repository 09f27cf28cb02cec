package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imor/http-efi/errors"
)

func TestNoZeroFields(t *testing.T) {
	cfg := Default()

	for _, field := range visit(newVar(*cfg), "Config") {
		assert.Fail(t, "zero-value field", field)
	}
}

type variable struct {
	Type  reflect.Type
	Value reflect.Value
}

func newVar(a any) variable {
	return variable{reflect.TypeOf(a), reflect.ValueOf(a)}
}

func visit(a variable, name string) (fields []string) {
	if a.Type.Kind() == reflect.Struct {
		for field := 0; field < a.Value.NumField(); field++ {
			v1 := variable{a.Type.Field(field).Type, a.Value.Field(field)}
			fields = append(fields, visit(v1, name+"."+a.Type.Field(field).Name)...)
		}

		return fields
	}

	if a.Value.IsZero() {
		return []string{name}
	}

	return nil
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestFromJSON(t *testing.T) {
	t.Run("partial overlay", func(t *testing.T) {
		cfg, err := FromJSON([]byte(`{"writer":{"buffer_size":64},"transport":{"kind":"unix"}}`))
		require.NoError(t, err)
		require.Equal(t, 64, cfg.Writer.BufferSize)
		require.Equal(t, "unix", cfg.Transport.Kind)
		require.Equal(t, Default().Response, cfg.Response)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := FromJSON([]byte(`{"writer":`))
		require.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := FromJSON([]byte(`{"writer":{"buffer_size":0}}`))
		require.True(t, errors.IsInvalidArgument(err))

		_, err = FromJSON([]byte(`{"response":{"max_size":1,"initial_buffer_size":2}}`))
		require.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("round trip through Marshal", func(t *testing.T) {
		data, err := Default().Marshal()
		require.NoError(t, err)
		cfg, err := FromJSON(data)
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"response":{"max_headers":2}}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Response.MaxHeaders)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.True(t, errors.IsInvalidArgument(err))
}
