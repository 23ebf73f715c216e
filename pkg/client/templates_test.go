package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{"template_name":"lead-like","property_filters":{"molecular_weight":{"min_val":150,"max_val":500}}}`

func TestTemplatesClient_Evaluate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/templates/evaluate", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)

		var body struct {
			Config  json.RawMessage `json:"template_config"`
			Queries []string        `json:"queries"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, sampleConfig, string(body.Config))
		assert.Equal(t, []string{"CCO", "bad"}, body.Queries)

		w.Write([]byte(`[
			{"input":"CCO","index":0,"result":true,"template_data":{"valid_input":true}},
			{"input":"bad","index":1,"result":false,"template_data":{"valid_input":false}}
		]`))
	})

	res, err := c.Templates().Evaluate(context.Background(), json.RawMessage(sampleConfig), []string{"CCO", "bad"}, true)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.True(t, res[0].Result)
	assert.False(t, res[1].Result)
	assert.Equal(t, 1, res[1].Index)
	assert.JSONEq(t, `{"valid_input":false}`, string(res[1].TemplateData))
}

func TestTemplatesClient_EvaluateWithoutData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/templates/tpl-1/evaluate", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("return_data"))
		w.Write([]byte(`[{"input":"CCO","index":0,"result":true,"template_data":null}]`))
	})

	res, err := c.Templates().EvaluateSaved(context.Background(), "tpl-1", []string{"CCO"}, false)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "null", string(res[0].TemplateData))
}

func TestTemplatesClient_ArgumentChecks(t *testing.T) {
	c, err := NewClient("http://unused.invalid")
	require.NoError(t, err)
	ctx := context.Background()
	tpl := c.Templates()

	_, err = tpl.Evaluate(ctx, nil, []string{"C"}, true)
	assert.Error(t, err)
	_, err = tpl.Evaluate(ctx, json.RawMessage(sampleConfig), nil, true)
	assert.Error(t, err)
	_, err = tpl.EvaluateSaved(ctx, "", []string{"C"}, true)
	assert.Error(t, err)
	_, err = tpl.Strip(ctx, nil)
	assert.Error(t, err)
	_, err = tpl.Get(ctx, "")
	assert.Error(t, err)
	_, err = tpl.Create(ctx, &TemplateRequest{})
	assert.Error(t, err)
	_, err = tpl.Update(ctx, "", &TemplateRequest{Config: json.RawMessage(sampleConfig)})
	assert.Error(t, err)
	assert.Error(t, tpl.Delete(ctx, ""))
	_, err = tpl.Properties(ctx, nil, nil)
	assert.Error(t, err)
}

func TestTemplatesClient_CRUD(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/templates":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"name":"lead-like","template_config":`+sampleConfig+`}`, string(body))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"tpl-1","name":"lead-like","template_config":` + sampleConfig + `,"version":1}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/templates":
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			w.Write([]byte(`[{"id":"tpl-1","name":"lead-like","version":1}]`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/templates/tpl-1":
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"code":"COMMON_006","message":"version mismatch"}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/templates/tpl-1":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()
	tpl := c.Templates()

	created, err := tpl.Create(ctx, &TemplateRequest{Name: "lead-like", Config: json.RawMessage(sampleConfig)})
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", created.ID)
	assert.Equal(t, 1, created.Version)

	list, err := tpl.List(ctx, &ListOptions{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = tpl.Update(ctx, "tpl-1", &TemplateRequest{Config: json.RawMessage(sampleConfig), Version: 7})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsConflict())

	assert.NoError(t, tpl.Delete(ctx, "tpl-1"))
}

func TestTemplatesClient_StripAndLookups(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/templates/strip":
			w.Write([]byte(`{"template_config":{"template_name":"x"},"dropped":[{"category":"property_filters","key":"tpsa","reason":"inactive"}]}`))
		case "/api/v1/molecules/properties":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"inputs":["CCO"],"names":["molecular_weight"]}`, string(body))
			w.Write([]byte(`[{"input":"CCO","index":0,"valid":true,"values":{"molecular_weight":46.07}}]`))
		case "/api/v1/molecules/catalogs":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"inputs":["CCO"]}`, string(body))
			w.Write([]byte(`[{"input":"CCO","index":0,"valid":true,"values":{"pains":false}}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	stripped, err := c.Templates().Strip(ctx, json.RawMessage(sampleConfig))
	require.NoError(t, err)
	require.Len(t, stripped.Dropped, 1)
	assert.Equal(t, "tpsa", stripped.Dropped[0].Key)

	props, err := c.Templates().Properties(ctx, []string{"CCO"}, []string{"molecular_weight"})
	require.NoError(t, err)
	assert.InDelta(t, 46.07, props[0].Values["molecular_weight"], 1e-9)

	cats, err := c.Templates().Catalogs(ctx, []string{"CCO"}, nil)
	require.NoError(t, err)
	assert.Equal(t, false, cats[0].Values["pains"])
}

//Personal.AI order the ending
