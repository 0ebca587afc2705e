package nomad_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

func response(code int, body string, headers ...string) *nomad.Response {
	h := http.Header{}
	for i := 0; i+1 < len(headers); i += 2 {
		h.Set(headers[i], headers[i+1])
	}

	return nomad.NewResponse(code, h, []byte(body))
}

func TestClassify_Precedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		code          int
		allowNotFound bool
		expected      error
	}{
		{name: "500", code: 500, expected: nomad.ErrServerError},
		{name: "503", code: 503, expected: nomad.ErrServerError},
		{name: "599", code: 599, expected: nomad.ErrServerError},
		{name: "400", code: 400, expected: nomad.ErrBadRequest},
		{name: "401", code: 401, expected: nomad.ErrAuthenticationDisabled},
		{name: "401 with 404 allowed", code: 401, allowNotFound: true, expected: nomad.ErrAuthenticationDisabled},
		{name: "403", code: 403, expected: nomad.ErrPermissionDenied},
		{name: "403 with 404 allowed", code: 403, allowNotFound: true, expected: nomad.ErrPermissionDenied},
		{name: "404 required", code: 404, expected: nomad.ErrNotFound},
		{name: "404 allowed", code: 404, allowNotFound: true},
		{name: "200", code: 200},
		{name: "409", code: 409},
		{name: "600", code: 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := nomad.Classify(response(tt.code, "detail"), tt.allowNotFound)
			if tt.expected == nil {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)

			var nomadErr *nomad.Error
			require.ErrorAs(t, err, &nomadErr)
			assert.Equal(t, tt.code, nomadErr.StatusCode)
			assert.Equal(t, "detail", nomadErr.Body)
		})
	}
}

func TestJSON_NotFound(t *testing.T) {
	t.Parallel()

	t.Run("allowed by default", func(t *testing.T) {
		t.Parallel()

		result, err := nomad.JSON()(response(404, "job not found"))
		require.NoError(t, err)
		assert.True(t, result.Absent())
	})

	t.Run("required", func(t *testing.T) {
		t.Parallel()

		_, err := nomad.JSON(nomad.RequireFound())(response(404, "job not found"))
		require.Error(t, err)
		assert.True(t, nomad.IsNotFound(err))

		kind, ok := nomad.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, nomad.KindNotFound, kind)
	})
}

func TestInterpreters_ServerErrorRegardlessOfOptions(t *testing.T) {
	t.Parallel()

	resp := response(502, "bad gateway")

	_, err := nomad.JSON(nomad.FirstOnly(), nomad.WithIndex())(resp)
	assert.True(t, nomad.IsServerError(err))

	_, err = nomad.JSON(nomad.AllowNotFound(true))(resp)
	assert.True(t, nomad.IsServerError(err))

	value, err := nomad.Bool()(resp)
	assert.True(t, nomad.IsServerError(err))
	assert.False(t, value)

	_, err = nomad.Raw()(resp)
	assert.True(t, nomad.IsServerError(err))
}

func TestInterpreters_PermissionDeniedNeverSuppressed(t *testing.T) {
	t.Parallel()

	resp := response(403, "Permission denied")

	_, err := nomad.JSON(nomad.AllowNotFound(true))(resp)
	assert.True(t, nomad.IsPermissionDenied(err))

	_, err = nomad.Bool()(resp)
	assert.True(t, nomad.IsPermissionDenied(err))

	_, err = nomad.Raw(nomad.AllowNotFound(true))(resp)
	assert.True(t, nomad.IsPermissionDenied(err))
}

func TestJSON_Decode(t *testing.T) {
	t.Parallel()

	result, err := nomad.JSON()(response(200, `{"ID":"web","Priority":50}`))
	require.NoError(t, err)
	require.False(t, result.Absent())

	object, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "web", object["ID"])
	assert.Equal(t, json.Number("50"), object["Priority"])
	assert.False(t, result.Indexed)
}

func TestJSON_NonOKStatusIsAbsent(t *testing.T) {
	t.Parallel()

	result, err := nomad.JSON()(response(409, `{"conflict":true}`))
	require.NoError(t, err)
	assert.True(t, result.Absent())
}

func TestJSON_MalformedBody(t *testing.T) {
	t.Parallel()

	_, err := nomad.JSON()(response(200, `{"ID":`))
	require.Error(t, err)

	_, classified := nomad.KindOf(err)
	assert.False(t, classified)
}

func TestJSON_EmptyBody(t *testing.T) {
	t.Parallel()

	result, err := nomad.JSON()(response(200, ""))
	require.NoError(t, err)
	assert.True(t, result.Absent())
}

func TestJSON_FirstOnly(t *testing.T) {
	t.Parallel()

	result, err := nomad.JSON(nomad.FirstOnly())(response(200, `[{"ID":"a"},{"ID":"b"}]`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ID": "a"}, result.Data)

	result, err = nomad.JSON(nomad.FirstOnly())(response(200, `[]`))
	require.NoError(t, err)
	assert.True(t, result.Absent())

	_, err = nomad.JSON(nomad.FirstOnly())(response(200, `{"ID":"a"}`))
	assert.ErrorIs(t, err, nomad.ErrUnexpectedPayload)
}

func TestJSON_DecodeField(t *testing.T) {
	t.Parallel()

	body := `[{"ID":"a","Payload":"aGVsbG8="},{"ID":"b","Payload":null},{"ID":"c"}]`

	result, err := nomad.JSON(nomad.DecodeField("Payload"))(response(200, body))
	require.NoError(t, err)

	items, ok := result.Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 3)

	assert.Equal(t, []byte("hello"), items[0].(map[string]any)["Payload"])
	assert.Nil(t, items[1].(map[string]any)["Payload"])
	assert.NotContains(t, items[2].(map[string]any), "Payload")
}

func TestJSON_DecodeFieldInvalidBase64(t *testing.T) {
	t.Parallel()

	_, err := nomad.JSON(nomad.DecodeField("Payload"))(response(200, `[{"Payload":"!!!"}]`))
	require.Error(t, err)

	_, classified := nomad.KindOf(err)
	assert.False(t, classified)
}

func TestJSON_ExtractID(t *testing.T) {
	t.Parallel()

	result, err := nomad.JSON(nomad.ExtractID())(response(200, `{"ID":"abc","Name":"web"}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", result.Data)

	_, err = nomad.JSON(nomad.ExtractID())(response(200, `["abc"]`))
	assert.ErrorIs(t, err, nomad.ErrUnexpectedPayload)
}

func TestJSON_TransformRunsLast(t *testing.T) {
	t.Parallel()

	var seen any

	upper := func(data any) (any, error) {
		seen = data

		return strings.ToUpper(data.(string)), nil
	}

	result, err := nomad.JSON(nomad.ExtractID(), nomad.Transform(upper))(response(200, `{"ID":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "ABC", result.Data)

	failing := func(any) (any, error) { return nil, errors.New("boom") }

	_, err = nomad.JSON(nomad.Transform(failing))(response(200, `{}`))
	assert.ErrorContains(t, err, "boom")
}

func TestJSON_WithIndex(t *testing.T) {
	t.Parallel()

	result, err := nomad.JSON(nomad.WithIndex())(response(200, `[{"ID":"a"}]`, "X-Nomad-Index", "57"))
	require.NoError(t, err)
	assert.True(t, result.Indexed)
	assert.Equal(t, uint64(57), result.Index)
	assert.Len(t, result.Data, 1)

	result, err = nomad.JSON(nomad.WithIndex())(response(404, ``, "X-Nomad-Index", "12"))
	require.NoError(t, err)
	assert.True(t, result.Absent())
	assert.Equal(t, uint64(12), result.Index)

	result, err = nomad.JSON(nomad.WithIndex())(response(200, `[]`))
	require.NoError(t, err)
	assert.False(t, result.Indexed)
	assert.Zero(t, result.Index)

	_, err = nomad.JSON(nomad.WithIndex())(response(200, `[]`, "X-Nomad-Index", "abc"))
	assert.ErrorIs(t, err, nomad.ErrInvalidIndex)
}

func TestBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     int
		expected bool
		err      error
	}{
		{code: 200, expected: true},
		{code: 409, expected: false},
		{code: 404, expected: false},
		{code: 400, err: nomad.ErrBadRequest},
		{code: 401, err: nomad.ErrAuthenticationDisabled},
		{code: 500, err: nomad.ErrServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			t.Parallel()

			value, err := nomad.Bool()(response(tt.code, ""))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestRaw(t *testing.T) {
	t.Parallel()

	resp := response(200, "metric 1\n", "X-Nomad-Index", "3")

	result, err := nomad.Raw(nomad.WithIndex())(resp)
	require.NoError(t, err)
	assert.Equal(t, []byte("metric 1\n"), result.Body)
	assert.Equal(t, uint64(3), result.Index)

	result.Body[0] = 'X'
	assert.Equal(t, byte('m'), resp.Body[0])

	result, err = nomad.Raw()(response(404, "gone"))
	require.NoError(t, err)
	assert.Nil(t, result.Body)
}

func TestInterpreter_Into(t *testing.T) {
	t.Parallel()

	var ok bool

	cb := nomad.Bool().Into(&ok)
	require.NoError(t, cb(response(200, "")))
	assert.True(t, ok)

	var result *nomad.Result

	cb = nomad.JSON(nomad.RequireFound()).Into(&result)
	err := cb(response(404, ""))
	assert.True(t, nomad.IsNotFound(err))
	assert.Nil(t, result)
}

func TestInterpreter_Idempotent(t *testing.T) {
	t.Parallel()

	in := nomad.JSON(nomad.DecodeField("Payload"), nomad.WithIndex())
	resp := response(200, `[{"Payload":"aGk="}]`, "X-Nomad-Index", "9")

	first, err := in(resp)
	require.NoError(t, err)

	second, err := in(resp)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
